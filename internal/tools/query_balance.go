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

type balanceEntry struct {
	Token     string `json:"token"`
	Symbol    string `json:"symbol,omitempty"`
	Amount    string `json:"amount"`
	Formatted string `json:"formatted,omitempty"`
	// Allowance is what the fee router may pull from the holder
	Allowance string `json:"router_allowance,omitempty"`
}

func NewQueryBalanceTool(ledger services.LedgerService, tokenService services.TokenService, router services.FeeSwapRouter, chainID uint64) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("query_balance",
		mcp.WithDescription("Query a wallet's custodied balances, or a single token's balance and router allowance."),
		mcp.WithString("wallet_address",
			mcp.Required(),
			mcp.Description("Wallet address to query"),
		),
		mcp.WithString("token",
			mcp.Description("Symbol or address of a single token to query (optional)"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		wallet, err := request.RequireString("wallet_address")
		if err != nil {
			return nil, fmt.Errorf("wallet_address parameter is required: %w", err)
		}
		if !utils.IsValidEthereumAddress(wallet) {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid wallet address: %s", wallet)), nil
		}
		holder := common.HexToAddress(wallet)

		if symbolOrAddress := request.GetString("token", ""); symbolOrAddress != "" {
			token, err := tokenService.Resolve(ctx, chainID, symbolOrAddress)
			if err != nil {
				return errorResult("Resolving token", err), nil
			}
			address := common.HexToAddress(token.Address)
			amount, err := ledger.BalanceOf(nil, holder, address)
			if err != nil {
				return errorResult("Querying balance", err), nil
			}
			allowance, err := ledger.Allowance(nil, holder, router.Address(), address)
			if err != nil {
				return errorResult("Querying allowance", err), nil
			}
			return successResult("Balance", balanceEntry{
				Token:     address.Hex(),
				Symbol:    token.Symbol,
				Amount:    amount.String(),
				Formatted: utils.FormatUnits(amount, token.Decimals),
				Allowance: allowance.String(),
			})
		}

		balances, err := ledger.Balances(holder)
		if err != nil {
			return errorResult("Querying balances", err), nil
		}
		entries := make([]balanceEntry, 0, len(balances))
		for _, balance := range balances {
			entry := balanceEntry{Token: balance.Token, Amount: balance.Amount.String()}
			if token, err := tokenService.GetByAddress(ctx, chainID, common.HexToAddress(balance.Token)); err == nil {
				entry.Symbol = token.Symbol
				entry.Formatted = utils.FormatUnits(balance.Amount.Big(), token.Decimals)
			}
			entries = append(entries, entry)
		}

		return successResult("Balances", map[string]interface{}{
			"wallet_address": holder.Hex(),
			"balances":       entries,
		})
	}

	return tool, handler
}
