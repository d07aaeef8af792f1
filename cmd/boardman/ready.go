package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/steveyegge/boardman/internal/types"
)

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "List claimable work, highest priority first",
	Long: `List issues eligible for claiming: open on the board, status Todo,
unblocked, and carrying no excluded label.

With --agent, restricts results to issues assigned to that agent or
unassigned. Assignment is not a claim: an assigned issue with no active
claim still shows up here, because the claim protocol (not assignment) is
the mutual-exclusion mechanism.

Examples:
  boardman ready                  # everything claimable
  boardman ready --agent claude   # claimable by Claude Code
  boardman ready -n 5             # top five only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		agent, _ := cmd.Flags().GetString("agent")

		coord, cleanup, err := newCoordinator()
		if err != nil {
			return err
		}
		defer cleanup()

		issues, err := coord.ReadyWork(context.Background(), types.WorkFilter{
			Agent: agent,
			Limit: limit,
		})
		if err != nil {
			return err
		}

		if len(issues) == 0 {
			fmt.Println("No ready work.")
			return nil
		}

		rows := make([][]string, 0, len(issues))
		for _, issue := range issues {
			rows = append(rows, []string{
				"#" + strconv.Itoa(issue.Number),
				string(issue.Priority),
				issue.Title,
				issue.Agent,
			})
		}
		fmt.Println(renderTable([]string{"Issue", "Priority", "Title", "Agent"}, rows))
		return nil
	},
}

func init() {
	readyCmd.Flags().IntP("limit", "n", 20, "Maximum issues to list")
	readyCmd.Flags().String("agent", "", "Only issues assigned to this agent or unassigned")
	rootCmd.AddCommand(readyCmd)
}
