package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/boardman/internal/types"
)

var releaseCmd = &cobra.Command{
	Use:   "release <issue>",
	Short: "Release a claim on an issue",
	Long: `Post a release marker relinquishing the caller's claim. Release is
unconditional -- an agent can always let go of its own understanding of a
claim, even one that has gone stale or been stolen.

The reason drives the issue's status:
  completed, pr_created   status unchanged (advanced elsewhere on merge)
  blocked                 status becomes Blocked
  abandoned, error        status returns to Todo (back in the ready pool)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid issue number %q", args[0])
		}

		agent, err := agentName(cmd)
		if err != nil {
			return err
		}
		session, _ := cmd.Flags().GetString("session")
		reasonStr, _ := cmd.Flags().GetString("reason")
		reason := types.ReleaseReason(reasonStr)
		if !reason.IsValid() {
			return fmt.Errorf("invalid reason %q (one of: completed, pr_created, blocked, abandoned, error)", reasonStr)
		}

		coord, cleanup, err := newCoordinator()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		issue, err := coord.Issue(ctx, number)
		if err != nil {
			return err
		}

		if err := coord.ReleaseWork(ctx, issue, agent, session, reason); err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Released #%d (%s)\n", green("✓"), number, reason)
		return nil
	},
}

func init() {
	releaseCmd.Flags().String("agent", "", "Agent name (default from config)")
	releaseCmd.Flags().String("session", "", "Session id recorded on the release marker")
	releaseCmd.Flags().String("reason", "completed", "Release reason")
	rootCmd.AddCommand(releaseCmd)
}
