package tools

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/swapit-router/internal/quote"
	"github.com/rxtech-lab/swapit-router/internal/services"
)

type GetSwapQuoteArguments struct {
	TokenIn     string  `json:"token_in" validate:"required"`
	TokenOut    string  `json:"token_out" validate:"required"`
	Amount      string  `json:"amount" validate:"required"`
	Mode        string  `json:"mode" validate:"omitempty,oneof=sell buy"`
	User        string  `json:"user" validate:"omitempty,eth_addr"`
	SlippageBps *uint32 `json:"slippage_bps" validate:"omitempty,lte=5000"`
}

func NewGetSwapQuoteTool(swapService services.SwapService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("get_swap_quote",
		mcp.WithDescription("Get a swap quote including the 0.08% platform fee, expected output, minimum received under slippage, price impact and network cost. Read-only."),
		mcp.WithString("token_in",
			mcp.Required(),
			mcp.Description("Symbol or address of the token to sell (use 'ETH' for the native asset)"),
		),
		mcp.WithString("token_out",
			mcp.Required(),
			mcp.Description("Symbol or address of the token to buy (use 'ETH' for the native asset)"),
		),
		mcp.WithString("amount",
			mcp.Required(),
			mcp.Description("Amount in human units. Sell mode: amount of token_in. Buy mode: desired amount of token_out"),
		),
		mcp.WithString("mode",
			mcp.Description("Quote direction: 'sell' (default) or 'buy'"),
			mcp.Enum("sell", "buy"),
		),
		mcp.WithString("user",
			mcp.Description("Optional user address whose saved slippage and deadline preferences are applied"),
		),
		mcp.WithNumber("slippage_bps",
			mcp.Description("Slippage tolerance in basis points (0-5000), overrides the user's preference"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args GetSwapQuoteArguments
		if err := request.BindArguments(&args); err != nil {
			return nil, fmt.Errorf("failed to bind arguments: %w", err)
		}

		if err := validator.New().Struct(args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		result, err := swapService.Quote(ctx, services.QuoteArgs{
			User:        args.User,
			TokenIn:     args.TokenIn,
			TokenOut:    args.TokenOut,
			Amount:      args.Amount,
			Mode:        quote.Mode(args.Mode),
			SlippageBps: args.SlippageBps,
		})
		if err != nil {
			return errorResult("Quote", err), nil
		}

		var warnings []string
		switch result.ImpactLevel {
		case quote.ImpactHigh:
			warnings = append(warnings, "Price impact is high")
		case quote.ImpactVeryHigh:
			warnings = append(warnings, "Price impact is very high, consider a smaller amount")
		}
		if !result.Quote.Submittable {
			warnings = append(warnings, "Quote is not submittable")
		}

		return successResult("Quote", map[string]interface{}{
			"quote":    result,
			"warnings": warnings,
		})
	}

	return tool, handler
}
