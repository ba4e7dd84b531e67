package cmd

import (
	"fmt"

	"github.com/huangsam/patchpanel/core"
	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/spf13/cobra"
)

// topCmd lists the most-played games.
var topCmd = &cobra.Command{
	Use:   "top",
	Short: "List the most-played Steam games.",
	Long: `Rank games by current players from steamcharts.com/top, falling back to the
Steam store's popular search when SteamCharts cannot be read.

Examples:
  # Top 30 as a table
  patchpanel top

  # Top 100 ids for a later batch
  patchpanel top --limit 100 --output csv --output-file top.csv`,
	PreRunE: sharedSetup,
	Run: func(cmd *cobra.Command, _ []string) {
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			contract.LogFatal("Cannot read limit", err)
		}
		if limit <= 0 || limit > contract.MaxTopLimit {
			contract.LogFatal("Cannot list top games", fmt.Errorf("limit must be between 1 and %d", contract.MaxTopLimit))
		}
		if err := core.ExecuteTop(limit)(rootCtx, cfg, deps()); err != nil {
			contract.LogFatal("Cannot list top games", err)
		}
	},
}
