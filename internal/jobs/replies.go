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

// ReplyJob scans the review comment threads of a pull request for human
// replies to the bot's comments that the bot has not answered yet, and
// answers each with a completion call. The presence of a bot reply is the
// only "handled" marker; there is no other persisted state.
type ReplyJob struct {
	cfg     *config.Config
	gh      github.Client
	llm     llm.Client
	prompts *review.PromptBuilder
	logger  *slog.Logger
}

// NewReplyJob creates a ReplyJob. All dependencies are required.
func NewReplyJob(cfg *config.Config, gh github.Client, llmClient llm.Client, prompts *review.PromptBuilder, logger *slog.Logger) *ReplyJob {
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
	return &ReplyJob{cfg: cfg, gh: gh, llm: llmClient, prompts: prompts, logger: logger}
}

// Run fetches all review comments once, indexes replies by their target
// comment, and answers every unhandled human reply to a bot comment.
func (j *ReplyJob) Run(ctx context.Context) error {
	owner := j.cfg.GitHub.Owner
	repo := j.cfg.GitHub.Repo
	number := j.cfg.GitHub.PRNumber
	bot := j.cfg.GitHub.BotLogin

	comments, err := j.gh.ListReviewComments(ctx, owner, repo, number)
	if err != nil {
		return fmt.Errorf("failed to list review comments: %w", err)
	}

	repliesByTarget := make(map[int64][]github.ReviewComment)
	for _, c := range comments {
		if c.InReplyTo != 0 {
			repliesByTarget[c.InReplyTo] = append(repliesByTarget[c.InReplyTo], c)
		}
	}

	for _, comment := range comments {
		if comment.Author != bot {
			j.logger.Debug("skipping non-bot comment", "comment", comment.ID, "author", comment.Author)
			continue
		}

		for _, reply := range repliesByTarget[comment.ID] {
			if reply.Author == bot {
				continue
			}
			if hasReplyFrom(repliesByTarget[reply.ID], bot) {
				j.logger.Debug("skipping already handled reply", "comment", reply.ID, "author", reply.Author)
				continue
			}

			if err := j.answerReply(ctx, number, reply); err != nil {
				return err
			}
			j.logger.Info("answered reply", "comment", reply.ID, "author", reply.Author)
		}
	}

	return nil
}

// answerReply generates an answer for one human reply and posts it in the
// same thread.
func (j *ReplyJob) answerReply(ctx context.Context, number int, reply github.ReviewComment) error {
	prompt, err := j.prompts.BuildReplyPrompt(reply.Body, reply.OriginalCommitID, reply.Path, reply.OriginalPosition, reply.DiffHunk)
	if err != nil {
		return err
	}

	answer, err := j.llm.Completion(ctx, llm.CompletionRequest{
		Model:       j.cfg.OpenAI.Model,
		Prompt:      prompt,
		Temperature: j.cfg.OpenAI.Temperature,
		MaxTokens:   j.cfg.OpenAI.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("completion for reply %d failed: %w", reply.ID, err)
	}

	if err := j.gh.CreateReviewCommentReply(ctx, j.cfg.GitHub.Owner, j.cfg.GitHub.Repo, number, reply.ID, answer); err != nil {
		return fmt.Errorf("failed to post answer to reply %d: %w", reply.ID, err)
	}
	return nil
}

func hasReplyFrom(replies []github.ReviewComment, login string) bool {
	for _, r := range replies {
		if r.Author == login {
			return true
		}
	}
	return false
}
