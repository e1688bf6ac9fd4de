package tools

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/swapit-router/internal/services"
	"github.com/rxtech-lab/swapit-router/internal/utils"
)

func NewListPriceAlertsTool(alerts services.AlertService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("list_price_alerts",
		mcp.WithDescription("List a user's price alerts, both pending and triggered."),
		mcp.WithString("user",
			mcp.Required(),
			mcp.Description("Address of the user"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		user, err := request.RequireString("user")
		if err != nil {
			return nil, fmt.Errorf("user parameter is required: %w", err)
		}
		if !utils.IsValidEthereumAddress(user) {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid user address: %s", user)), nil
		}

		list, err := alerts.ListAlerts(ctx, common.HexToAddress(user))
		if err != nil {
			return errorResult("Listing alerts", err), nil
		}

		return successResult("Alerts", list)
	}

	return tool, handler
}
