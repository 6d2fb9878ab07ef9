// Package diff contains helpers for working with unified diff patches
// as returned by the GitHub API.
package diff

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrMalformedPatch indicates that a patch did not start with a
// recognizable unified diff hunk header.
var ErrMalformedPatch = errors.New("malformed patch")

// Matches the leading hunk header of a unified diff, e.g. "@@ -12,7 +12,9 @@".
var hunkHeaderRegex = regexp.MustCompile(`^@@ [-+](\d+),`)

// ParseHunkStart extracts the starting line number from the first hunk
// header of a patch. Comment placement depends on this value, so a patch
// without a parseable header is a hard error rather than a default.
func ParseHunkStart(patch string) (int, error) {
	matches := hunkHeaderRegex.FindStringSubmatch(patch)
	if len(matches) != 2 {
		preview := patch
		const maxPreview = 40
		if len(preview) > maxPreview {
			preview = preview[:maxPreview]
		}
		return 0, fmt.Errorf("%w: no hunk header in %q", ErrMalformedPatch, preview)
	}

	line, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid line number %q: %w", ErrMalformedPatch, matches[1], err)
	}
	return line, nil
}
