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

func NewDeletePriceAlertTool(alerts services.AlertService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("delete_price_alert",
		mcp.WithDescription("Delete one of the user's price alerts."),
		mcp.WithString("user",
			mcp.Required(),
			mcp.Description("Address of the user owning the alert"),
		),
		mcp.WithString("alert_id",
			mcp.Required(),
			mcp.Description("ID of the alert to delete"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		user, err := request.RequireString("user")
		if err != nil {
			return nil, fmt.Errorf("user parameter is required: %w", err)
		}
		alertID, err := request.RequireString("alert_id")
		if err != nil {
			return nil, fmt.Errorf("alert_id parameter is required: %w", err)
		}
		if !utils.IsValidEthereumAddress(user) {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid user address: %s", user)), nil
		}

		if err := alerts.DeleteAlert(ctx, common.HexToAddress(user), alertID); err != nil {
			return errorResult("Deleting alert", err), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("Alert %s deleted", alertID)), nil
	}

	return tool, handler
}
