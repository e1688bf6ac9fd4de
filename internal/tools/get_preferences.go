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

func NewGetPreferencesTool(preferences services.PreferencesService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("get_preferences",
		mcp.WithDescription("Show a user's trading preferences: slippage tolerance, deadline, expert mode, auto approval and watchlist. Users without saved preferences get the defaults."),
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

		prefs, err := preferences.Load(ctx, common.HexToAddress(user))
		if err != nil {
			return errorResult("Loading preferences", err), nil
		}

		return successResult("Preferences", prefs)
	}

	return tool, handler
}
