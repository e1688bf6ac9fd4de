package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/swapit-router/internal/services"
)

func NewListTokensTool(tokenService services.TokenService, chainID uint64) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("list_tokens",
		mcp.WithDescription("List the tokens that can be quoted and swapped on the configured chain."),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tokens, err := tokenService.ListTokens(ctx, chainID)
		if err != nil {
			return errorResult("Listing tokens", err), nil
		}
		return successResult("Tokens", tokens)
	}

	return tool, handler
}
