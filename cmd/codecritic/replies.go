package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var repliesCmd = &cobra.Command{
	Use:   "replies [pr-url]",
	Short: "Answer unhandled replies to the bot's review comments",
	Long: `Answer unhandled replies to the bot's review comments.

Scans the pull request's review comment threads for human replies the bot
has not answered yet and posts a generated answer in each thread. Reply
handling is independent of reviewing, so it can be scheduled on its own.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplies,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(repliesCmd)
}

func runReplies(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	d, err := buildDeps(ctx, args)
	if err != nil {
		return err
	}

	titleColor.Println("codecritic — reply handling")
	dimColor.Printf("   Target: %s/%s#%d\n", d.cfg.GitHub.Owner, d.cfg.GitHub.Repo, d.cfg.GitHub.PRNumber)

	if err := newReplyJob(d).Run(ctx); err != nil {
		return fmt.Errorf("reply handling failed: %w", err)
	}
	successColor.Println("Replies handled")
	return nil
}
