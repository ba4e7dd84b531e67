package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/patchpanel/core"
	"github.com/huangsam/patchpanel/core/classify"
	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	deps    core.Deps
}

func (h *toolHandler) handleClassifyNewsItem(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := request.GetString("title", "")
	body := request.GetString("body", "")
	if strings.TrimSpace(title) == "" && strings.TrimSpace(body) == "" {
		return mcp.NewToolResultError("title or body is required"), nil
	}

	verdict, _ := classify.Default.Classify(title, body)
	return jsonResult(verdict)
}

func (h *toolHandler) handleGetPatchSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if err := contract.RevalidateBatch(cfg, request.GetString("appids", ""), request.GetInt("window_days", 0)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	report, err := core.GetPatchResults(ctx, cfg, h.deps)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("patch extraction failed: %v", err)), nil
	}
	return jsonResult(report)
}

func (h *toolHandler) handleBuildPanel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if err := contract.RevalidateBatch(cfg, request.GetString("appids", ""), request.GetInt("window_days", 0)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	report, err := core.GetPanelResults(ctx, cfg, h.deps)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("panel build failed: %v", err)), nil
	}
	return jsonResult(report)
}

func (h *toolHandler) handleCompareUpdateGroups(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if err := contract.RevalidateBatch(cfg, request.GetString("appids", ""), 0); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if months := request.GetInt("months", 0); months != 0 {
		if months < 0 || months > contract.MaxCompareMonths {
			return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: months must be between 1 and %d", contract.MaxCompareMonths)), nil
		}
		cfg.CompareMonths = months
	}

	report, err := core.GetComparisonResults(ctx, cfg, h.deps)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("comparison failed: %v", err)), nil
	}
	return jsonResult(report)
}

func (h *toolHandler) handleGetTopGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", schema.DefaultTopLimit)
	if limit <= 0 || limit > contract.MaxTopLimit {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: limit must be between 1 and %d", contract.MaxTopLimit)), nil
	}

	report, err := core.GetTopResults(ctx, h.baseCfg.Clone(), h.deps, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("top games failed: %v", err)), nil
	}
	return jsonResult(report)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("cannot encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
