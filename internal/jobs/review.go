// Package jobs defines the runnable units of work: reviewing a pull
// request and answering follow-up replies on earlier reviews.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codecritic/codecritic/internal/config"
	"github.com/codecritic/codecritic/internal/github"
	"github.com/codecritic/codecritic/internal/llm"
	"github.com/codecritic/codecritic/internal/review"
)

// reviewTitle is the summary body of every review the bot posts.
const reviewTitle = "**ChatGPT code review**"

// ReviewJob reviews the changed files of one pull request and posts the
// model's commentary as a single non-blocking review.
type ReviewJob struct {
	cfg     *config.Config
	gh      github.Client
	llm     llm.Client
	prompts *review.PromptBuilder
	logger  *slog.Logger
}

// NewReviewJob creates a ReviewJob. All dependencies are required.
func NewReviewJob(cfg *config.Config, gh github.Client, llmClient llm.Client, prompts *review.PromptBuilder, logger *slog.Logger) *ReviewJob {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if gh == nil {
		panic("github client cannot be nil")
	}
	if llmClient == nil {
		panic("llm client cannot be nil")
	}
	if prompts == nil {
		panic("prompt builder cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ReviewJob{cfg: cfg, gh: gh, llm: llmClient, prompts: prompts, logger: logger}
}

// Run executes one review pass: select changed files, fetch each file's
// content at its attributing commit, request a review from the model, and
// submit everything as one pull request review. Empty files are skipped;
// any other failure aborts the run.
func (j *ReviewJob) Run(ctx context.Context) error {
	owner := j.cfg.GitHub.Owner
	repo := j.cfg.GitHub.Repo
	number := j.cfg.GitHub.PRNumber

	pr, err := j.gh.GetPullRequest(ctx, owner, repo, number)
	if err != nil {
		return fmt.Errorf("failed to get pull request: %w", err)
	}
	j.logger.Info("starting review", "repo", owner+"/"+repo, "pr", number, "title", pr.GetTitle())

	selector := review.NewSelector(j.gh, j.logger)
	changes, err := selector.Select(ctx, owner, repo, number, j.cfg.Files)
	if err != nil {
		return fmt.Errorf("failed to select files for review: %w", err)
	}

	var comments []github.DraftReviewComment
	for _, change := range changes {
		content, err := j.gh.GetFileContent(ctx, owner, repo, change.Filename, change.CommitSHA)
		if err != nil {
			return fmt.Errorf("failed to fetch content of %s at %s: %w", change.Filename, change.CommitSHA, err)
		}
		if len(content) == 0 {
			j.logger.Debug("skipping empty file", "file", change.Filename)
			continue
		}

		body, err := j.reviewFile(ctx, change.Filename, content)
		if err != nil {
			return err
		}

		comments = append(comments, github.DraftReviewComment{
			Path: change.Filename,
			Line: change.Line,
			Body: body,
		})
	}

	if len(comments) == 0 {
		j.logger.Info("no files to review", "repo", owner+"/"+repo, "pr", number)
		return nil
	}

	if err := j.gh.CreateReview(ctx, owner, repo, number, reviewTitle, comments); err != nil {
		return fmt.Errorf("failed to create pull request review: %w", err)
	}

	j.logger.Info("review posted", "pr", number, "comments", len(comments))
	return nil
}

// reviewFile asks the model to review one file and formats the labeled
// comment body.
func (j *ReviewJob) reviewFile(ctx context.Context, filename, content string) (string, error) {
	prompt, err := j.prompts.BuildReviewPrompt(filename, content)
	if err != nil {
		return "", err
	}

	out, err := j.llm.ChatCompletion(ctx, llm.ChatRequest{
		Model:       j.cfg.OpenAI.Model,
		Temperature: j.cfg.OpenAI.Temperature,
		MaxTokens:   j.cfg.OpenAI.MaxTokens,
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("review request for %s failed: %w", filename, err)
	}

	return fmt.Sprintf("*ChatGPT review for %s:*\n%s", filename, out), nil
}
