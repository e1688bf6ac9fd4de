package tools

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/swapit-router/internal/services"
)

type UpdatePreferencesArguments struct {
	User string `json:"user" validate:"required,eth_addr"`
	services.PreferencesUpdate
}

func NewUpdatePreferencesTool(preferences services.PreferencesService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("update_preferences",
		mcp.WithDescription("Change some of a user's trading preferences. Fields that are not given keep their current value."),
		mcp.WithString("user",
			mcp.Required(),
			mcp.Description("Address of the user"),
		),
		mcp.WithNumber("slippage_bps",
			mcp.Description("Slippage tolerance in basis points, 0 to 5000 (50 = 0.5%)"),
		),
		mcp.WithNumber("deadline_minutes",
			mcp.Description("Minutes a submitted swap stays valid, 1 to 4320"),
		),
		mcp.WithBoolean("expert_mode",
			mcp.Description("Skip confirmation prompts for high price impact swaps"),
		),
		mcp.WithBoolean("auto_approve_tokens",
			mcp.Description("Approve the router for the swap amount automatically"),
		),
		mcp.WithBoolean("show_price_impact_warning",
			mcp.Description("Warn before swaps with high price impact"),
		),
		mcp.WithArray("watchlist",
			mcp.Description("Token symbols to watch; replaces the current list"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args UpdatePreferencesArguments
		if err := request.BindArguments(&args); err != nil {
			return nil, fmt.Errorf("failed to bind arguments: %w", err)
		}

		if err := validator.New().Struct(args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		current, err := preferences.Load(ctx, common.HexToAddress(args.User))
		if err != nil {
			return errorResult("Loading preferences", err), nil
		}

		saved, err := preferences.Save(ctx, args.PreferencesUpdate.Apply(current))
		if err != nil {
			return errorResult("Saving preferences", err), nil
		}

		return successResult("Preferences updated", saved)
	}

	return tool, handler
}
