package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var blockCmd = &cobra.Command{
	Use:   "block <issue> --on <blocker>",
	Short: "Record that an issue is blocked by another",
	Long: `Add a blocker to an issue's blocked-by set. Blocked issues drop out
of ready work until the set is cleared. Re-adding an existing blocker is a
no-op write of the same value.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid issue number %q", args[0])
		}
		blocker, _ := cmd.Flags().GetInt("on")
		if blocker <= 0 {
			return fmt.Errorf("--on is required")
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

		if err := coord.AddBlocker(ctx, issue, blocker); err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s #%d is now blocked by %s\n", green("✓"), number, issue.BlockedByText())
		return nil
	},
}

var discoveredCmd = &cobra.Command{
	Use:   "discovered <issue> --from <parent>",
	Short: "Record which issue this one was discovered during",
	Long: `Set the provenance field linking an issue to the work it was
discovered during. Agents file follow-up issues while executing a claim;
this keeps the trail from follow-up back to origin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid issue number %q", args[0])
		}
		parent, _ := cmd.Flags().GetInt("from")
		if parent <= 0 {
			return fmt.Errorf("--from is required")
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

		if err := coord.MarkDiscoveredFrom(ctx, issue, parent); err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s #%d marked as discovered from #%d\n", green("✓"), number, parent)
		return nil
	},
}

func init() {
	blockCmd.Flags().Int("on", 0, "Issue number that blocks this one")
	discoveredCmd.Flags().Int("from", 0, "Parent issue this one was discovered during")
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(discoveredCmd)
}
