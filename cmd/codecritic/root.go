package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/codecritic/codecritic/internal/config"
	"github.com/codecritic/codecritic/internal/github"
	"github.com/codecritic/codecritic/internal/jobs"
	"github.com/codecritic/codecritic/internal/llm"
	"github.com/codecritic/codecritic/internal/logger"
	"github.com/codecritic/codecritic/internal/review"
)

var rootCmd = &cobra.Command{
	Use:   "codecritic",
	Short: "codecritic reviews GitHub pull requests with ChatGPT.",
	Long: `codecritic sends the changed files of a pull request to the OpenAI API
and posts the model's commentary back as review comments. It can also answer
follow-up replies to its own comments.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("github_token", "", "GitHub access token")
	flags.Int("github_pr_id", 0, "Pull request number to review")
	flags.String("repository", "", `Target repository as "owner/name" (defaults to $GITHUB_REPOSITORY)`)
	flags.String("openai_api_key", "", "OpenAI API key")
	flags.String("openai_model", "gpt-3.5-turbo", "Completion model to use")
	flags.String("openai_api_base", "", "Override the OpenAI API base URL")
	flags.Float64("openai_temperature", 0.5, "Sampling temperature, a float in [0, 1]")
	flags.Int("openai_max_tokens", 2048, "Maximum number of tokens to generate per completion")
	flags.String("files", "", "Comma-separated glob patterns of files to review")
	flags.String("bot_login", config.DefaultBotLogin, "Author login of the bot's own comments")
	flags.String("log_level", "info", "Log level (debug, info, warn, error)")
	flags.String("log_format", "text", "Log format (text, json)")

	bindings := map[string]string{
		"GITHUB_TOKEN":       "github_token",
		"GITHUB_PR_ID":       "github_pr_id",
		"GITHUB_REPOSITORY":  "repository",
		"OPENAI_API_KEY":     "openai_api_key",
		"OPENAI_MODEL":       "openai_model",
		"OPENAI_API_BASE":    "openai_api_base",
		"OPENAI_TEMPERATURE": "openai_temperature",
		"OPENAI_MAX_TOKENS":  "openai_max_tokens",
		"FILES":              "files",
		"BOT_LOGIN":          "bot_login",
		"LOG_LEVEL":          "log_level",
		"LOG_FORMAT":         "log_format",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			slog.Error("error binding flag", "flag", flag, "error", err)
			os.Exit(1)
		}
	}
}

// initConfig wires environment variables into viper. Credentials can come
// either prefixed (CODECRITIC_GITHUB_TOKEN) or from the conventional names
// a workflow already exports (GITHUB_TOKEN, GITHUB_REPOSITORY).
func initConfig() {
	viper.SetEnvPrefix("CODECRITIC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	for _, key := range []string{"GITHUB_TOKEN", "GITHUB_REPOSITORY", "OPENAI_API_KEY"} {
		if err := viper.BindEnv(key, key); err != nil {
			slog.Error("error binding environment variable", "key", key, "error", err)
			os.Exit(1)
		}
	}
}

// deps bundles everything a job run needs.
type deps struct {
	cfg     *config.Config
	logger  *slog.Logger
	gh      github.Client
	llm     llm.Client
	prompts *review.PromptBuilder
}

// applyPRURL lets a pull request URL argument override the repository and
// PR number configuration.
func applyPRURL(args []string) error {
	if len(args) == 0 {
		return nil
	}
	owner, repo, number, err := github.ParsePullRequestURL(args[0])
	if err != nil {
		return fmt.Errorf("invalid pull request URL: %w\n\nExpected format: https://github.com/owner/repo/pull/123", err)
	}
	viper.Set("GITHUB_REPOSITORY", owner+"/"+repo)
	viper.Set("GITHUB_PR_ID", number)
	return nil
}

// buildDeps loads configuration, merges the optional repo config file, and
// constructs the clients shared by the review and replies commands.
func buildDeps(ctx context.Context, args []string) (*deps, error) {
	if err := applyPRURL(args); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.NewLogger(cfg.Logger, nil)

	repoCfg, err := config.LoadRepoConfig(".")
	if err != nil && !errors.Is(err, config.ErrRepoConfigNotFound) {
		return nil, err
	}
	if len(cfg.Files) == 0 {
		cfg.Files = repoCfg.FilePatterns
	}

	promptManager, err := llm.NewPromptManager()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	return &deps{
		cfg:     cfg,
		logger:  log,
		gh:      github.NewPATClient(ctx, cfg.GitHub.Token, log),
		llm:     llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, log),
		prompts: review.NewPromptBuilder(promptManager, repoCfg.CustomInstructions),
	}, nil
}

func newReviewJob(d *deps) *jobs.ReviewJob {
	return jobs.NewReviewJob(d.cfg, d.gh, d.llm, d.prompts, d.logger)
}

func newReplyJob(d *deps) *jobs.ReplyJob {
	return jobs.NewReplyJob(d.cfg, d.gh, d.llm, d.prompts, d.logger)
}
