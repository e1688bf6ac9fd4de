package tools

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/swapit-router/internal/models"
	"github.com/rxtech-lab/swapit-router/internal/services"
	"github.com/rxtech-lab/swapit-router/internal/utils"
)

type SwapTokensArguments struct {
	User         string `json:"user" validate:"required,eth_addr"`
	TokenIn      string `json:"token_in" validate:"required"`
	TokenOut     string `json:"token_out" validate:"required"`
	AmountIn     string `json:"amount_in" validate:"required"`
	MinAmountOut string `json:"min_amount_out"`
	Deadline     int64  `json:"deadline" validate:"gte=0"`
	Signature    string `json:"signature"`
	Kind         string `json:"kind" validate:"omitempty,oneof=native_for_token token_for_native token_for_token"`
}

func NewSwapTokensTool(swapService services.SwapService, tokenService services.TokenService, chainID uint64) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("swap_tokens",
		mcp.WithDescription("Execute a swap through the fee router. 0.08% of amount_in is paid to the fee recipient and the rest is swapped. The swap is atomic: either everything happens or nothing does."),
		mcp.WithString("user",
			mcp.Required(),
			mcp.Description("Address of the user paying amount_in and receiving the output"),
		),
		mcp.WithString("token_in",
			mcp.Required(),
			mcp.Description("Symbol or address of the token to sell (use 'ETH' for the native asset)"),
		),
		mcp.WithString("token_out",
			mcp.Required(),
			mcp.Description("Symbol or address of the token to buy (use 'ETH' for the native asset)"),
		),
		mcp.WithString("amount_in",
			mcp.Required(),
			mcp.Description("Gross input amount in human units, fee included"),
		),
		mcp.WithString("min_amount_out",
			mcp.Description("Minimum output in human units. Defaults to the quote under the user's slippage preference"),
		),
		mcp.WithNumber("deadline",
			mcp.Description("Unix timestamp after which the swap fails. Defaults to now plus the user's deadline preference"),
		),
		mcp.WithString("signature",
			mcp.Description("0x-prefixed personal_sign signature of the swap intent by the user. Signed swaps must also pass deadline and min_amount_out"),
		),
		mcp.WithString("kind",
			mcp.Description("Optional swap kind check"),
			mcp.Enum(string(models.SwapKindNativeForToken), string(models.SwapKindTokenForNative), string(models.SwapKindTokenForToken)),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args SwapTokensArguments
		if err := request.BindArguments(&args); err != nil {
			return nil, fmt.Errorf("failed to bind arguments: %w", err)
		}

		if err := validator.New().Struct(args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		result, err := swapService.Swap(ctx, services.SwapArgs{
			User:         args.User,
			TokenIn:      args.TokenIn,
			TokenOut:     args.TokenOut,
			AmountIn:     args.AmountIn,
			MinAmountOut: args.MinAmountOut,
			Deadline:     args.Deadline,
			Signature:    args.Signature,
			Kind:         models.SwapKind(args.Kind),
		})
		if err != nil {
			return errorResult("Swap", err), nil
		}

		return successResult("Swap executed", describeRecord(ctx, tokenService, chainID, result.Record))
	}

	return tool, handler
}

// describeRecord adds human readable amounts to a swap record
func describeRecord(ctx context.Context, tokenService services.TokenService, chainID uint64, record models.SwapRecord) map[string]interface{} {
	described := map[string]interface{}{
		"event_id":   record.EventID,
		"user":       record.User,
		"user_index": record.UserIndex,
		"kind":       record.Kind,
		"token_in":   record.TokenIn,
		"token_out":  record.TokenOut,
		"amount_in":  record.AmountIn.String(),
		"amount_out": record.AmountOut.String(),
		"fee_amount": record.FeeAmount.String(),
		"log_hash":   record.LogHash,
		"timestamp":  record.Timestamp,
	}

	if tokenIn, err := tokenService.Resolve(ctx, chainID, record.TokenIn); err == nil {
		described["token_in_symbol"] = tokenIn.Symbol
		described["amount_in_formatted"] = utils.FormatUnits(record.AmountIn.Big(), tokenIn.Decimals)
		described["fee_amount_formatted"] = utils.FormatUnits(record.FeeAmount.Big(), tokenIn.Decimals)
	}
	if tokenOut, err := tokenService.Resolve(ctx, chainID, record.TokenOut); err == nil {
		described["token_out_symbol"] = tokenOut.Symbol
		described["amount_out_formatted"] = utils.FormatUnits(record.AmountOut.Big(), tokenOut.Decimals)
	}
	return described
}
