package cmd

import (
	"github.com/huangsam/patchpanel/core"
	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/spf13/cobra"
)

// panelCmd builds the event-time panel.
var panelCmd = &cobra.Command{
	Use:   "panel [appid...]",
	Short: "Build the event-time player-count panel for a set of games.",
	Long: `Extract patch events from Steam news and build a panel of monthly player counts.

Each game gets nine rows for relative months -4 through +4:
- Treated games are anchored on the month of their first major patch
- Control games are anchored on the latest month of their player series

Player counts come from SteamCharts, names and Metacritic scores from the Steam store,
and owner estimates from SteamDB. Missing data becomes empty cells instead of errors.

Examples:
  # Panel for two games as a table
  patchpanel panel 730 570

  # Read ids from a file and export CSV
  patchpanel panel --appids-file games.txt --output csv --output-file panel.csv

  # Parquet for pandas or DuckDB
  patchpanel panel --appids 730,570 --output parquet --output-file panel.parquet`,
	PreRunE: batchSetup,
	Run:     runBatch(core.ExecutePanel, "Cannot build panel"),
}

// patchesCmd extracts the patch report on its own.
var patchesCmd = &cobra.Command{
	Use:   "patches [appid...]",
	Short: "Extract and classify patch notes from Steam news.",
	Long: `Fetch Steam news for each game and keep the items that read like patches.

Every patch is classified as major or minor from keywords in its title and body.
The report summarizes patch counts and the first major patch date per game.

Examples:
  # Summary table for the past year
  patchpanel patches 730 570

  # Full JSON report for the past 90 days
  patchpanel patches --appids 730 --window-days 90 --output json`,
	PreRunE: batchSetup,
	Run:     runBatch(core.ExecutePatches, "Cannot extract patches"),
}

// runBatch adapts a batch executor to a cobra Run function.
func runBatch(exec core.ExecutorFunc, failure string) func(*cobra.Command, []string) {
	return func(_ *cobra.Command, _ []string) {
		if err := exec(rootCtx, cfg, deps()); err != nil {
			contract.LogFatal(failure, err)
		}
	}
}
