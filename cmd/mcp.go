package cmd

import (
	"github.com/huangsam/patchpanel/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the patchpanel MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents classify news items,
summarize patches and build panels through standard tools.

Logs go to stderr so they never mix with the protocol on stdout.`,
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, deps())
	},
}
