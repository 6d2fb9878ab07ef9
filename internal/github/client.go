// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"log/slog"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"
)

// CommitFile holds the status and patch data of a single file changed in a
// commit. Status follows the GitHub API vocabulary ("added", "modified",
// "removed", "renamed", "unchanged", ...).
type CommitFile struct {
	Filename string
	Status   string
	Patch    string
}

// DraftReviewComment represents a single line comment to be posted as part
// of a pull request review.
type DraftReviewComment struct {
	Path string
	Line int
	Body string
}

// ReviewComment is a simplified view of an existing pull request review
// comment, carrying just the fields the reply handler needs. InReplyTo is
// zero for thread roots.
type ReviewComment struct {
	ID               int64
	InReplyTo        int64
	Author           string
	Body             string
	Path             string
	DiffHunk         string
	OriginalCommitID string
	OriginalPosition int
}

// Client defines the set of GitHub operations the reviewer needs: pull
// request lookup, commit and file enumeration, content retrieval, and
// review comment handling.
//
//go:generate mockgen -destination=../../mocks/mock_github_client.go -package=mocks . Client
type Client interface {
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error)
	ListCommits(ctx context.Context, owner, repo string, number int) ([]string, error)
	GetCommitFiles(ctx context.Context, owner, repo, sha string) ([]CommitFile, error)
	GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error)
	ListReviewComments(ctx context.Context, owner, repo string, number int) ([]ReviewComment, error)
	CreateReview(ctx context.Context, owner, repo string, number int, body string, comments []DraftReviewComment) error
	CreateReviewCommentReply(ctx context.Context, owner, repo string, number int, commentID int64, body string) error
}

type gitHubClient struct {
	client *github.Client
	logger *slog.Logger
}

// NewClient wraps an already configured go-github client. Used by tests and
// by callers that need custom transport configuration.
func NewClient(client *github.Client, logger *slog.Logger) Client {
	return &gitHubClient{client: client, logger: logger}
}

// NewPATClient creates a GitHub client authenticated with a Personal Access
// Token, which is how the reviewer runs inside a workflow job.
func NewPATClient(ctx context.Context, token string, logger *slog.Logger) Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	return &gitHubClient{client: github.NewClient(tc), logger: logger}
}

// GetPullRequest retrieves a single pull request by its number.
func (g *gitHubClient) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	pr, _, err := g.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		g.logger.Error("failed to get pull request", "owner", owner, "repo", repo, "pr", number, "error", err)
		return nil, err
	}
	return pr, nil
}

// ListCommits returns the SHAs of a pull request's commits in the order the
// API reports them, handling pagination.
func (g *gitHubClient) ListCommits(ctx context.Context, owner, repo string, number int) ([]string, error) {
	var shas []string
	opts := &github.ListOptions{PerPage: 100}

	for {
		commits, resp, err := g.client.PullRequests.ListCommits(ctx, owner, repo, number, opts)
		if err != nil {
			g.logger.Error("failed to list commits for pull request", "owner", owner, "repo", repo, "pr", number, "error", err)
			return nil, err
		}

		for _, commit := range commits {
			shas = append(shas, commit.GetSHA())
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return shas, nil
}

// GetCommitFiles retrieves the files changed by a single commit. The list
// commits endpoint does not include file data, so each commit is fetched
// individually.
func (g *gitHubClient) GetCommitFiles(ctx context.Context, owner, repo, sha string) ([]CommitFile, error) {
	var allFiles []CommitFile
	opts := &github.ListOptions{PerPage: 100}

	for {
		commit, resp, err := g.client.Repositories.GetCommit(ctx, owner, repo, sha, opts)
		if err != nil {
			g.logger.Error("failed to get commit", "owner", owner, "repo", repo, "sha", sha, "error", err)
			return nil, err
		}

		for _, file := range commit.Files {
			allFiles = append(allFiles, CommitFile{
				Filename: file.GetFilename(),
				Status:   file.GetStatus(),
				Patch:    file.GetPatch(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allFiles, nil
}

// GetFileContent retrieves the decoded content of a file at a specific ref.
func (g *gitHubClient) GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error) {
	fileContent, _, _, err := g.client.Repositories.GetContents(ctx, owner, repo, path, &github.RepositoryContentGetOptions{
		Ref: ref,
	})
	if err != nil {
		g.logger.Error("failed to get file content", "owner", owner, "repo", repo, "path", path, "ref", ref, "error", err)
		return "", err
	}

	content, err := fileContent.GetContent()
	if err != nil {
		g.logger.Error("failed to decode file content", "owner", owner, "repo", repo, "path", path, "error", err)
		return "", err
	}
	return content, nil
}

// ListReviewComments retrieves all review comments on a pull request,
// handling pagination.
func (g *gitHubClient) ListReviewComments(ctx context.Context, owner, repo string, number int) ([]ReviewComment, error) {
	var all []ReviewComment
	opts := &github.PullRequestListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		comments, resp, err := g.client.PullRequests.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			g.logger.Error("failed to list review comments", "owner", owner, "repo", repo, "pr", number, "error", err)
			return nil, err
		}

		for _, c := range comments {
			all = append(all, ReviewComment{
				ID:               c.GetID(),
				InReplyTo:        c.GetInReplyTo(),
				Author:           c.GetUser().GetLogin(),
				Body:             c.GetBody(),
				Path:             c.GetPath(),
				DiffHunk:         c.GetDiffHunk(),
				OriginalCommitID: c.GetOriginalCommitID(),
				OriginalPosition: c.GetOriginalPosition(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// CreateReview creates a pull request review with a summary body and
// line-specific comments, posted as a non-blocking COMMENT review.
func (g *gitHubClient) CreateReview(ctx context.Context, owner, repo string, number int, body string, comments []DraftReviewComment) error {
	var ghComments []*github.DraftReviewComment
	for _, c := range comments {
		ghComments = append(ghComments, &github.DraftReviewComment{
			Path: github.Ptr(c.Path),
			Line: github.Ptr(c.Line),
			Body: github.Ptr(c.Body),
		})
	}

	reviewRequest := &github.PullRequestReviewRequest{
		Body:     github.Ptr(body),
		Event:    github.Ptr("COMMENT"),
		Comments: ghComments,
	}

	_, _, err := g.client.PullRequests.CreateReview(ctx, owner, repo, number, reviewRequest)
	if err != nil {
		g.logger.Error("failed to create pull request review", "owner", owner, "repo", repo, "pr", number, "error", err)
	}
	return err
}

// CreateReviewCommentReply posts a reply to an existing review comment.
func (g *gitHubClient) CreateReviewCommentReply(ctx context.Context, owner, repo string, number int, commentID int64, body string) error {
	_, _, err := g.client.PullRequests.CreateCommentInReplyTo(ctx, owner, repo, number, body, commentID)
	if err != nil {
		g.logger.Error("failed to create review comment reply", "owner", owner, "repo", repo, "pr", number, "comment", commentID, "error", err)
	}
	return err
}
