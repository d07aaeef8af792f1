package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// exitContended is the exit code for "someone else holds it", so callers can
// distinguish contention from breakage in scripts.
const exitContended = 2

var claimCmd = &cobra.Command{
	Use:   "claim <issue>",
	Short: "Claim an issue for an agent session",
	Long: `Claim an issue by posting a claim marker comment and moving it to
In Progress.

The claim is refused (exit code 2, no writes) when another fresh claim
holds the issue. A claim older than the TTL is stale and is superseded.
The check-then-post sequence is not atomic: two agents racing the same
issue can both claim it, and the later comment wins on the next read.

Examples:
  boardman claim 42 --agent claude
  boardman claim 42 --agent codex --session run-7f3a --ttl 8`,
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
		if session == "" {
			session = uuid.New().String()
		}
		ttlHours, _ := cmd.Flags().GetInt("ttl")
		ttl := cfg.ClaimTTL()
		if ttlHours > 0 {
			ttl = time.Duration(ttlHours) * time.Hour
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

		won, err := coord.ClaimWork(ctx, issue, agent, session, ttl)
		if err != nil {
			return err
		}
		if !won {
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Fprintf(os.Stderr, "%s Issue #%d is held by another fresh claim\n", yellow("✗"), number)
			os.Exit(exitContended)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Claimed #%d (session %s)\n", green("✓"), number, session)
		return nil
	},
}

func init() {
	claimCmd.Flags().String("agent", "", "Agent name (default from config)")
	claimCmd.Flags().String("session", "", "Session id (default: random UUID)")
	claimCmd.Flags().Int("ttl", 0, "Claim TTL in hours (default from config)")
	rootCmd.AddCommand(claimCmd)
}
