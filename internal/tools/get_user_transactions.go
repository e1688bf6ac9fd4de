package tools

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/swapit-router/internal/services"
	"github.com/rxtech-lab/swapit-router/internal/utils"
)

const defaultPageSize = 20

type GetUserTransactionsArguments struct {
	User  string  `json:"user" validate:"required,eth_addr"`
	Start uint64  `json:"start"`
	Count *uint64 `json:"count" validate:"omitempty,lte=100"`
}

func NewGetUserTransactionsTool(router services.FeeSwapRouter, tokenService services.TokenService, chainID uint64) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("get_user_transactions",
		mcp.WithDescription("Page through a user's swap history in execution order, with the total count and the fees paid per input token."),
		mcp.WithString("user",
			mcp.Required(),
			mcp.Description("Address of the user"),
		),
		mcp.WithNumber("start",
			mcp.Description("Index of the first record (default 0)"),
		),
		mcp.WithNumber("count",
			mcp.Description("Maximum number of records to return (default 20, max 100)"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args GetUserTransactionsArguments
		if err := request.BindArguments(&args); err != nil {
			return nil, fmt.Errorf("failed to bind arguments: %w", err)
		}

		if err := validator.New().Struct(args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		count := uint64(defaultPageSize)
		if args.Count != nil {
			count = *args.Count
		}

		user := common.HexToAddress(args.User)
		records, err := router.GetUserTransactions(ctx, user, args.Start, count)
		if err != nil {
			return errorResult("Loading transactions", err), nil
		}

		fees, err := router.TotalFeesPaid(ctx, user)
		if err != nil {
			return errorResult("Loading fees", err), nil
		}

		transactions := make([]map[string]interface{}, 0, len(records))
		for _, record := range records {
			transactions = append(transactions, describeRecord(ctx, tokenService, chainID, record))
		}

		feesPaid := make(map[string]string, len(fees))
		for token, amount := range fees {
			key := token.Hex()
			if info, err := tokenService.GetByAddress(ctx, chainID, token); err == nil {
				feesPaid[info.Symbol] = utils.FormatUnits(amount, info.Decimals)
				continue
			}
			feesPaid[key] = amount.String()
		}

		return successResult("Transactions", map[string]interface{}{
			"user":         user.Hex(),
			"total":        router.GetUserTransactionCount(ctx, user),
			"start":        args.Start,
			"transactions": transactions,
			"fees_paid":    feesPaid,
		})
	}

	return tool, handler
}
