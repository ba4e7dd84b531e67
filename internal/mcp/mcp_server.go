// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/patchpanel/core"
	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the patchpanel MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, deps core.Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"Patchpanel Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		deps:    deps,
	}

	s.AddTool(mcp.NewTool("classify_news_item",
		mcp.WithDescription("Classify a Steam news item as a major patch, minor patch or not a patch."),
		mcp.WithString("title", mcp.Description("News item title.")),
		mcp.WithString("body", mcp.Description("News item body.")),
	), h.handleClassifyNewsItem)

	s.AddTool(mcp.NewTool("get_patch_summary",
		mcp.WithDescription("Extract patch records and per-game summaries from Steam news."),
		mcp.WithString("appids", mcp.Description("Comma-separated Steam app ids."), mcp.Required()),
		mcp.WithNumber("window_days", mcp.Description("Look-back window in days. Defaults to the server configuration.")),
	), h.handleGetPatchSummary)

	s.AddTool(mcp.NewTool("build_panel",
		mcp.WithDescription("Build the event-time panel of monthly player counts around each game's first major patch."),
		mcp.WithString("appids", mcp.Description("Comma-separated Steam app ids."), mcp.Required()),
		mcp.WithNumber("window_days", mcp.Description("Look-back window in days. Defaults to the server configuration.")),
	), h.handleBuildPanel)

	s.AddTool(mcp.NewTool("compare_update_groups",
		mcp.WithDescription("Compare owner estimates of games patched in the last N months against games that were not."),
		mcp.WithString("appids", mcp.Description("Comma-separated Steam app ids."), mcp.Required()),
		mcp.WithNumber("months", mcp.Description("Months a game must have been patched within to count as updated. Defaults to the server configuration.")),
	), h.handleCompareUpdateGroups)

	s.AddTool(mcp.NewTool("get_top_games",
		mcp.WithDescription("List the most-played Steam games with their current player counts."),
		mcp.WithNumber("limit", mcp.Description("Number of games to list. Defaults to 30.")),
	), h.handleGetTopGames)

	return s
}

// StartMCPServer serves the patchpanel tools over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, deps core.Deps) error {
	return server.ServeStdio(NewMCPServer(baseCfg, deps))
}
