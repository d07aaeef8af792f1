package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var claimsCmd = &cobra.Command{
	Use:   "claims",
	Short: "Show active claims across the board",
	Long: `Reconstruct the active claim on every In Progress issue and show who
holds what. Claims older than the TTL are flagged stale: still visible in
the log, but functionally free for claiming.

An In Progress issue with no claim usually means its holder released with
reason completed or pr_created and the merge event hasn't advanced it yet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		statuses, err := coord.ActiveClaims(context.Background(), ttl)
		if err != nil {
			return err
		}

		if len(statuses) == 0 {
			fmt.Println("No issues in progress.")
			return nil
		}

		rows := make([][]string, 0, len(statuses))
		for _, s := range statuses {
			holder, age, freshness := "-", "-", "-"
			if s.Claim != nil {
				holder = s.Claim.Agent
				age = time.Since(s.Claim.EffectiveTimestamp()).Round(time.Minute).String()
				if s.Stale {
					freshness = "stale"
				} else {
					freshness = "fresh"
				}
			}
			rows = append(rows, []string{
				"#" + strconv.Itoa(s.Issue.Number),
				s.Issue.Title,
				holder,
				age,
				freshness,
			})
		}
		fmt.Println(renderTable([]string{"Issue", "Title", "Holder", "Age", "Claim"}, rows))
		return nil
	},
}

func init() {
	claimsCmd.Flags().Int("ttl", 0, "Staleness TTL in hours (default from config)")
	rootCmd.AddCommand(claimsCmd)
}
