// Package review implements the change selection and prompt building logic
// of the reviewer: deciding which files of a pull request get reviewed, at
// which line the review comment is anchored, and what the model is asked.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/codecritic/codecritic/internal/diff"
	"github.com/codecritic/codecritic/internal/github"
)

// Change is one file selected for review: the filename, the starting line
// of its first hunk (clamped to 1), and the commit that introduced it.
type Change struct {
	Filename  string
	Line      int
	CommitSHA string
}

// CommitSource lists a pull request's commits and the files each commit
// changed. Satisfied by github.Client.
type CommitSource interface {
	ListCommits(ctx context.Context, owner, repo string, number int) ([]string, error)
	GetCommitFiles(ctx context.Context, owner, repo, sha string) ([]github.CommitFile, error)
}

// Selector walks a pull request's commit history and picks the files to
// review.
type Selector struct {
	src    CommitSource
	logger *slog.Logger
}

// NewSelector creates a Selector reading commits from src.
func NewSelector(src CommitSource, logger *slog.Logger) *Selector {
	return &Selector{src: src, logger: logger}
}

// Select returns one Change per unique file matching any of the glob
// patterns, attributed to the first commit (in API order) that touched it.
// Files with status "unchanged" or "removed" are skipped. A matched file
// whose patch has no parseable hunk header fails the whole selection.
//
// Results keep insertion order, so the first-commit-wins guarantee is
// deterministic rather than an accident of map iteration.
func (s *Selector) Select(ctx context.Context, owner, repo string, number int, patterns []string) ([]Change, error) {
	shas, err := s.src.ListCommits(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to list pull request commits: %w", err)
	}

	seen := make(map[string]struct{})
	var changes []Change

	for _, sha := range shas {
		files, err := s.src.GetCommitFiles(ctx, owner, repo, sha)
		if err != nil {
			return nil, fmt.Errorf("failed to get files for commit %s: %w", sha, err)
		}

		for _, file := range files {
			if file.Status == "unchanged" || file.Status == "removed" {
				continue
			}
			if !matchesAny(file.Filename, patterns) {
				continue
			}
			if _, ok := seen[file.Filename]; ok {
				// First commit wins; later changes to the same file are ignored.
				continue
			}

			line, err := diff.ParseHunkStart(file.Patch)
			if err != nil {
				return nil, fmt.Errorf("file %s in commit %s: %w", file.Filename, sha, err)
			}

			seen[file.Filename] = struct{}{}
			changes = append(changes, Change{
				Filename:  file.Filename,
				Line:      max(1, line),
				CommitSHA: sha,
			})
			s.logger.Debug("selected file for review", "file", file.Filename, "line", max(1, line), "commit", sha)
		}
	}

	return changes, nil
}

// matchesAny tests a path against each pattern, first as a full path and
// then by base name so that "*.py" also matches files in subdirectories.
func matchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}
