package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	dimColor     = color.New(color.FgHiBlack)
)

var withReplies bool

var reviewCmd = &cobra.Command{
	Use:   "review [pr-url]",
	Short: "Review a pull request's changed files with ChatGPT",
	Long: `Review a pull request's changed files with ChatGPT.

The target pull request is taken from $GITHUB_REPOSITORY and --github_pr_id,
or from a pull request URL given as the only argument.

Examples:
  codecritic review --github_pr_id 123 --files "*.go,*.py"
  codecritic review https://github.com/owner/repo/pull/123 --files "*.ts"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewCmd.Flags().BoolVar(&withReplies, "with_replies", false, "Also answer unhandled replies to earlier reviews")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	d, err := buildDeps(ctx, args)
	if err != nil {
		return err
	}

	titleColor.Println("codecritic — PR review")
	dimColor.Printf("   Target: %s/%s#%d\n", d.cfg.GitHub.Owner, d.cfg.GitHub.Repo, d.cfg.GitHub.PRNumber)

	if len(d.cfg.Files) == 0 {
		dimColor.Println("   No file patterns configured, nothing to review.")
		return nil
	}

	if err := newReviewJob(d).Run(ctx); err != nil {
		return fmt.Errorf("review failed: %w", err)
	}
	successColor.Println("Review complete")

	if withReplies {
		if err := newReplyJob(d).Run(ctx); err != nil {
			return fmt.Errorf("reply handling failed: %w", err)
		}
		successColor.Println("Replies handled")
	}
	return nil
}
