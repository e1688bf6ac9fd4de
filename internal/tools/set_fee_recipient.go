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

type SetFeeRecipientArguments struct {
	Caller    string `json:"caller" validate:"required,eth_addr"`
	Recipient string `json:"recipient" validate:"required,eth_addr"`
}

func NewSetFeeRecipientTool(router services.FeeSwapRouter) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("set_fee_recipient",
		mcp.WithDescription("Change the address that receives swap fees. Only the router owner may do this."),
		mcp.WithString("caller",
			mcp.Required(),
			mcp.Description("Address of the router owner making the change"),
		),
		mcp.WithString("recipient",
			mcp.Required(),
			mcp.Description("New fee recipient address (must not be the zero address)"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args SetFeeRecipientArguments
		if err := request.BindArguments(&args); err != nil {
			return nil, fmt.Errorf("failed to bind arguments: %w", err)
		}

		if err := validator.New().Struct(args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		cfg, err := router.SetFeeRecipient(ctx, common.HexToAddress(args.Caller), common.HexToAddress(args.Recipient))
		if err != nil {
			return errorResult("Setting fee recipient", err), nil
		}

		return successResult("Fee recipient updated", cfg)
	}

	return tool, handler
}
