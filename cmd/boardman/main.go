// boardman coordinates work claims for autonomous coding agents on a shared
// project board. Claims are derived entirely from issue comment markers --
// the board has no transactional storage, so the protocol tolerates races
// instead of pretending to eliminate them.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/boardman/internal/board"
	"github.com/steveyegge/boardman/internal/config"
	"github.com/steveyegge/boardman/internal/coordinator"
	"github.com/steveyegge/boardman/internal/journal"
)

var (
	configPath string
	verbose    bool

	// cfg is loaded by the root PersistentPreRunE and shared by all commands.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "boardman",
	Short: "Work-claim coordinator for agents on a shared project board",
	Long: `boardman lets multiple independent agent processes safely select, claim,
renew, and release issues tracked on a shared project board.

Claim state has no storage of its own: it is reconstructed from marker
comments on each issue, so any number of agents on any number of machines
can coordinate through the board alone. Claim contention is an expected
outcome (exit code 2), not an error.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

// newCoordinator wires a board client, optional journal, and coordinator
// from the loaded config. The returned cleanup closes the journal.
func newCoordinator() (*coordinator.Coordinator, func(), error) {
	token, err := cfg.Token()
	if err != nil {
		return nil, nil, err
	}

	client := board.NewClient(token, cfg.Owner, cfg.ProjectNumber, cfg.Fields)

	var jnl *journal.Journal
	cleanup := func() {}
	if cfg.JournalPath != "" {
		jnl, err = journal.Open(cfg.JournalPath)
		if err != nil {
			// The journal is observability, not state; a broken journal
			// should not stop claim operations.
			slog.Warn("failed to open journal, continuing without it", "path", cfg.JournalPath, "error", err)
			jnl = nil
		} else {
			cleanup = func() { _ = jnl.Close() }
		}
	}

	coord, err := coordinator.New(&coordinator.Config{
		Store:               client,
		StatusField:         cfg.Fields.Status,
		BlockedByField:      cfg.Fields.BlockedBy,
		DiscoveredFromField: cfg.Fields.DiscoveredFrom,
		CommentWindow:       cfg.CommentWindow,
		ExcludeLabels:       cfg.ExcludeLabels,
		AgentAliases:        cfg.AgentAliases,
		Journal:             jnl,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return coord, cleanup, nil
}

// agentName resolves the acting agent from the --agent flag or config.
func agentName(cmd *cobra.Command) (string, error) {
	agent, _ := cmd.Flags().GetString("agent")
	if agent == "" {
		agent = cfg.Agent
	}
	if agent == "" {
		return "", fmt.Errorf("no agent name given (use --agent or set agent in config)")
	}
	return agent, nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to boardman config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
