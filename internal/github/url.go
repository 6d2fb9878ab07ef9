package github

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var prURLRegex = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/pull/(\d+)$`)

// ParsePullRequestURL extracts the owner, repository name, and pull request
// number from a GitHub pull request URL of the form
// https://github.com/{owner}/{repo}/pull/{number}.
func ParsePullRequestURL(url string) (owner, repo string, number int, err error) {
	url = strings.TrimSuffix(url, "/")

	matches := prURLRegex.FindStringSubmatch(url)
	if len(matches) != 4 {
		return "", "", 0, fmt.Errorf("invalid pull request URL format: %s", url)
	}

	number, err = strconv.Atoi(matches[3])
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid pull request number %q: %w", matches[3], err)
	}

	return matches[1], matches[2], number, nil
}
