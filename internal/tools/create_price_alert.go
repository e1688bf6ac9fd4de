package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/swapit-router/internal/services"
)

func NewCreatePriceAlertTool(alerts services.AlertService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("create_price_alert",
		mcp.WithDescription("Create an alert that fires once when a token's USD price goes above or below a target."),
		mcp.WithString("user",
			mcp.Required(),
			mcp.Description("Address of the user owning the alert"),
		),
		mcp.WithString("token_symbol",
			mcp.Required(),
			mcp.Description("Symbol of the watched token (e.g., ETH, UNI)"),
		),
		mcp.WithNumber("target_price",
			mcp.Required(),
			mcp.Description("Target USD price"),
		),
		mcp.WithString("direction",
			mcp.Required(),
			mcp.Description("Fire when the price goes 'above' or 'below' the target"),
			mcp.Enum("above", "below"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args services.CreateAlertArgs
		if err := request.BindArguments(&args); err != nil {
			return nil, fmt.Errorf("failed to bind arguments: %w", err)
		}

		alert, err := alerts.CreateAlert(ctx, args)
		if err != nil {
			return errorResult("Creating alert", err), nil
		}

		return successResult("Alert created", alert)
	}

	return tool, handler
}
