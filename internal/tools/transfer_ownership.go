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

type TransferOwnershipArguments struct {
	Caller   string `json:"caller" validate:"required,eth_addr"`
	NewOwner string `json:"new_owner" validate:"required,eth_addr"`
}

func NewTransferOwnershipTool(router services.FeeSwapRouter) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("transfer_ownership",
		mcp.WithDescription("Hand the fee router over to a new owner. Only the current owner may do this."),
		mcp.WithString("caller",
			mcp.Required(),
			mcp.Description("Address of the current router owner"),
		),
		mcp.WithString("new_owner",
			mcp.Required(),
			mcp.Description("Address of the new owner"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args TransferOwnershipArguments
		if err := request.BindArguments(&args); err != nil {
			return nil, fmt.Errorf("failed to bind arguments: %w", err)
		}

		if err := validator.New().Struct(args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		cfg, err := router.TransferOwnership(ctx, common.HexToAddress(args.Caller), common.HexToAddress(args.NewOwner))
		if err != nil {
			return errorResult("Transferring ownership", err), nil
		}

		return successResult("Ownership transferred", cfg)
	}

	return tool, handler
}
