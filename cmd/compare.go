package cmd

import (
	"github.com/huangsam/patchpanel/core"
	"github.com/spf13/cobra"
)

// compareCmd contrasts recently updated games with the rest.
var compareCmd = &cobra.Command{
	Use:   "compare [appid...]",
	Short: "Compare owner estimates of recently updated games against the rest.",
	Long: `Split games by whether they shipped a patch in the last N months and compare
the owner estimates of both groups.

Owners come from SteamDB. When SteamDB has no estimate the current player count
stands in and the row is marked with owners_source=current_players.

Examples:
  # Did the 50 most-played games that patched recently have more owners?
  patchpanel compare --top 50

  # Twelve month window over a list of games, as CSV
  patchpanel compare --appids-file games.txt --compare-months 12 --output csv`,
	PreRunE: batchSetup,
	Run:     runBatch(core.ExecuteCompare, "Cannot compare update groups"),
}
