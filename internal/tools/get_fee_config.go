package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/swapit-router/internal/services"
)

func NewGetFeeConfigTool(router services.FeeSwapRouter) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("get_fee_config",
		mcp.WithDescription("Show the fee router's address, fee rate, fee recipient and owner."),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cfg, err := router.GetFeeConfig(ctx)
		if err != nil {
			return errorResult("Loading fee config", err), nil
		}

		return successResult("Fee config", map[string]interface{}{
			"router":           router.Address().Hex(),
			"fee_basis_points": cfg.FeeBasisPoints,
			"fee_percent":      float64(cfg.FeeBasisPoints) / 100,
			"fee_recipient":    cfg.FeeRecipient,
			"owner":            cfg.Owner,
			"updated_at":       cfg.UpdatedAt,
		})
	}

	return tool, handler
}
