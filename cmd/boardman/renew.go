package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var renewCmd = &cobra.Command{
	Use:   "renew <issue>",
	Short: "Renew an agent's claim on an issue",
	Long: `Post a renewal marker extending the caller's claim.

Renewal requires ownership by agent name: it is refused (exit code 2, no
writes) when the active claim belongs to a different agent or no claim
exists. Session ids are not compared, so an agent can renew a claim it
started under an earlier session.`,
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

		renewed, err := coord.RenewClaim(ctx, issue, agent, session)
		if err != nil {
			return err
		}
		if !renewed {
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Fprintf(os.Stderr, "%s Cannot renew #%d: claim is not held by %s\n", yellow("✗"), number, agent)
			os.Exit(exitContended)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Renewed claim on #%d\n", green("✓"), number)
		return nil
	},
}

func init() {
	renewCmd.Flags().String("agent", "", "Agent name (default from config)")
	renewCmd.Flags().String("session", "", "Session id recorded on the renewal marker")
	rootCmd.AddCommand(renewCmd)
}
