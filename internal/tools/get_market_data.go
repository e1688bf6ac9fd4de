package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/swapit-router/internal/services"
)

func NewGetMarketDataTool(prices services.PriceService, gas services.GasService, tokenService services.TokenService, chainID uint64) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("get_market_data",
		mcp.WithDescription("Show the ETH/USD price, current gas prices with a recommendation, and optionally the spot rate between two tokens."),
		mcp.WithString("token_in",
			mcp.Description("Symbol or address of the base token for a spot rate"),
		),
		mcp.WithString("token_out",
			mcp.Description("Symbol or address of the quote token for a spot rate"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tokenIn := request.GetString("token_in", "")
		tokenOut := request.GetString("token_out", "")
		if (tokenIn == "") != (tokenOut == "") {
			return mcp.NewToolResultError("token_in and token_out must be given together"), nil
		}

		data := map[string]interface{}{
			"chain_id": chainID,
			"eth_usd":  prices.EthUsd(ctx),
			"gas":      gas.Current(),
		}

		if tokenIn != "" {
			in, err := tokenService.Resolve(ctx, chainID, tokenIn)
			if err != nil {
				return errorResult("Resolving token_in", err), nil
			}
			out, err := tokenService.Resolve(ctx, chainID, tokenOut)
			if err != nil {
				return errorResult("Resolving token_out", err), nil
			}
			rate, err := prices.FetchRate(ctx, *in, *out)
			if err != nil {
				return errorResult(fmt.Sprintf("Fetching %s/%s rate", in.Symbol, out.Symbol), err), nil
			}
			data["rate"] = rate
		}

		return successResult("Market data", data)
	}

	return tool, handler
}
