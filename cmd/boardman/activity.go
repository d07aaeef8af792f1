package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/steveyegge/boardman/internal/journal"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show recent coordinator operations from the local journal",
	Long: `Display recent operations this machine performed: claim attempts
(won, contended, stolen), renewals, releases, status changes, and blocker
edits.

The journal is local and best-effort; it records what this coordinator did,
not the board's full history. Use 'boardman claims' for the board's view.

Examples:
  boardman activity                 # last 20 operations
  boardman activity -n 50           # last 50
  boardman activity --issue 42      # operations on issue 42
  boardman activity --kind release  # releases only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		issue, _ := cmd.Flags().GetInt("issue")
		kind, _ := cmd.Flags().GetString("kind")

		if cfg.JournalPath == "" {
			return fmt.Errorf("journaling is disabled (journal_path is empty)")
		}
		jnl, err := journal.Open(cfg.JournalPath)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer func() { _ = jnl.Close() }()

		entries, err := jnl.Recent(context.Background(), journal.Filter{
			Issue: issue,
			Kind:  journal.Kind(kind),
			Limit: limit,
		})
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No journal entries.")
			return nil
		}

		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{
				e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				string(e.Kind),
				"#" + strconv.Itoa(e.Issue),
				e.Agent,
				e.Detail,
			})
		}
		fmt.Println(renderTable([]string{"Time", "Kind", "Issue", "Agent", "Detail"}, rows))
		return nil
	},
}

func init() {
	activityCmd.Flags().IntP("limit", "n", 20, "Maximum entries to show")
	activityCmd.Flags().Int("issue", 0, "Only operations on this issue")
	activityCmd.Flags().String("kind", "", "Only operations of this kind")
	rootCmd.AddCommand(activityCmd)
}
