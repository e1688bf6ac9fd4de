package mcp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/swapit-router/internal/models"
	app "github.com/rxtech-lab/swapit-router/internal/server"
	"github.com/rxtech-lab/swapit-router/internal/tools"
)

const (
	serverName    = "SwapIt Router MCP Server"
	serverVersion = "1.0.0"
)

type MCPServer struct {
	server *server.MCPServer
	svc    *app.Services
	// unsubscribeAlerts stops forwarding triggered alerts to clients
	unsubscribeAlerts func()
}

func NewMCPServer(svc *app.Services) *MCPServer {
	mcpServer := &MCPServer{
		svc: svc,
	}
	mcpServer.InitializeTools(svc)
	mcpServer.unsubscribeAlerts = svc.Alerts.Subscribe(mcpServer.notifyAlert)
	return mcpServer
}

func (s *MCPServer) InitializeTools(svc *app.Services) {
	srv := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
	)

	srv.AddPrompt(mcp.NewPrompt("swapit-router-usage",
		mcp.WithPromptDescription("Instructions and guidance for using the SwapIt router MCP tools"),
		mcp.WithArgument("tool_category",
			mcp.ArgumentDescription("Category of tools to get instructions for (quote, swap, history, fees, preferences, market, alerts, balance, or all)"),
			mcp.RequiredArgument(),
		),
	), func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		category := request.Params.Arguments["tool_category"]
		if category == "" {
			return nil, fmt.Errorf("tool_category is required")
		}

		instructions := getToolInstructions(category)

		return mcp.NewGetPromptResult(
			fmt.Sprintf("SwapIt Router MCP Tools - %s", category),
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(
					mcp.RoleUser,
					mcp.NewTextContent(instructions),
				),
			},
		), nil
	})

	chainID := svc.Config.Chain.ChainID

	// Quote and swap tools
	getSwapQuoteTool, getSwapQuoteHandler := tools.NewGetSwapQuoteTool(svc.Swaps)
	srv.AddTool(getSwapQuoteTool, getSwapQuoteHandler)

	swapTokensTool, swapTokensHandler := tools.NewSwapTokensTool(svc.Swaps, svc.Tokens, chainID)
	srv.AddTool(swapTokensTool, swapTokensHandler)

	listTokensTool, listTokensHandler := tools.NewListTokensTool(svc.Tokens, chainID)
	srv.AddTool(listTokensTool, listTokensHandler)

	// History
	getUserTransactionsTool, getUserTransactionsHandler := tools.NewGetUserTransactionsTool(svc.Router, svc.Tokens, chainID)
	srv.AddTool(getUserTransactionsTool, getUserTransactionsHandler)

	// Fee administration
	getFeeConfigTool, getFeeConfigHandler := tools.NewGetFeeConfigTool(svc.Router)
	srv.AddTool(getFeeConfigTool, getFeeConfigHandler)

	setFeeRecipientTool, setFeeRecipientHandler := tools.NewSetFeeRecipientTool(svc.Router)
	srv.AddTool(setFeeRecipientTool, setFeeRecipientHandler)

	transferOwnershipTool, transferOwnershipHandler := tools.NewTransferOwnershipTool(svc.Router)
	srv.AddTool(transferOwnershipTool, transferOwnershipHandler)

	// Preferences
	getPreferencesTool, getPreferencesHandler := tools.NewGetPreferencesTool(svc.Preferences)
	srv.AddTool(getPreferencesTool, getPreferencesHandler)

	updatePreferencesTool, updatePreferencesHandler := tools.NewUpdatePreferencesTool(svc.Preferences)
	srv.AddTool(updatePreferencesTool, updatePreferencesHandler)

	// Market data and alerts
	getMarketDataTool, getMarketDataHandler := tools.NewGetMarketDataTool(svc.MarketPrices, svc.Gas, svc.Tokens, chainID)
	srv.AddTool(getMarketDataTool, getMarketDataHandler)

	createPriceAlertTool, createPriceAlertHandler := tools.NewCreatePriceAlertTool(svc.Alerts)
	srv.AddTool(createPriceAlertTool, createPriceAlertHandler)

	listPriceAlertsTool, listPriceAlertsHandler := tools.NewListPriceAlertsTool(svc.Alerts)
	srv.AddTool(listPriceAlertsTool, listPriceAlertsHandler)

	deletePriceAlertTool, deletePriceAlertHandler := tools.NewDeletePriceAlertTool(svc.Alerts)
	srv.AddTool(deletePriceAlertTool, deletePriceAlertHandler)

	// Balance Query Tools
	queryBalanceTool, queryBalanceHandler := tools.NewQueryBalanceTool(svc.Ledger, svc.Tokens, svc.Router, chainID)
	srv.AddTool(queryBalanceTool, queryBalanceHandler)

	s.server = srv
}

// notifyAlert forwards a triggered price alert to every connected client as a log message
func (s *MCPServer) notifyAlert(alert models.PriceAlert) {
	s.server.SendNotificationToAllClients("notifications/message", map[string]any{
		"level":  "info",
		"logger": "price_alerts",
		"data": map[string]any{
			"message":      fmt.Sprintf("%s is now %s %.2f USD", alert.TokenSymbol, alert.Direction, alert.TargetPrice),
			"alert_id":     alert.ID,
			"user":         alert.User,
			"token_symbol": alert.TokenSymbol,
			"target_price": alert.TargetPrice,
			"direction":    alert.Direction,
		},
	})
}

func getToolInstructions(category string) string {
	switch category {
	case "quote":
		return `Quote Tools:

1. get_swap_quote - Quote a swap before executing it (read-only)
   Usage: Sell mode quotes the output for a given input; buy mode quotes the input needed for a given output.
   The 0.08% platform fee is taken from the input before the swap, so the quoted output is for the input minus the fee.
   min_amount_out applies the slippage tolerance (the user's preference unless slippage_bps is given).

2. list_tokens - List the tokens available on the configured chain
   Usage: Tokens can be referred to by symbol or address; 'ETH' is the native asset`

	case "swap":
		return `Swap Tools:

1. swap_tokens - Execute a swap through the fee router
   Usage: Supports ETH to token, token to ETH and token to token.
   Token inputs must be approved to the router unless the user enabled auto approval.
   Failures are reported with a reason code: Expired, ZeroAmount, InsufficientOutput,
   InsufficientAllowance, InsufficientBalance, NoLiquidity or InvalidPath.
   A failed swap changes nothing.`

	case "history":
		return `History Tools:

1. get_user_transactions - Page through a user's swaps in execution order
   Usage: start is 0-based. A start equal to the total returns an empty page; a larger start fails with OutOfRange.`

	case "fees":
		return `Fee Tools:

1. get_fee_config - Show the fee rate, recipient and owner
2. set_fee_recipient - Change the fee recipient (owner only)
3. transfer_ownership - Hand the router to a new owner (owner only)`

	case "preferences":
		return `Preference Tools:

1. get_preferences - Show a user's slippage, deadline, expert mode, auto approval and watchlist
2. update_preferences - Change some of those settings; omitted fields keep their value
   Limits: slippage_bps 0-5000, deadline_minutes 1-4320`

	case "market":
		return `Market Tools:

1. get_market_data - ETH/USD price, gas prices with a speed recommendation, and an optional pair rate
   Usage: Gas recommendation is standard below 30 gwei, fast below 50 gwei, slow otherwise`

	case "alerts":
		return `Alert Tools:

1. create_price_alert - Fire once when a token's USD price goes above or below a target
2. list_price_alerts - List a user's alerts
3. delete_price_alert - Delete one of the user's alerts
   Triggered alerts are also sent to connected clients as notifications.`

	case "balance":
		return `Balance Query Tools:

1. query_balance - Query custodied balances
   Usage: Without token, lists every non-zero balance. With token, returns that balance and the router allowance.`

	case "all":
		return `SwapIt Router MCP Tools Overview:

This MCP server swaps tokens through a fee router that takes 0.08% of every swap input
and forwards the rest to a Uniswap V2 style router.

QUOTES (2 tools): get_swap_quote, list_tokens
SWAPS (1 tool): swap_tokens
HISTORY (1 tool): get_user_transactions
FEES (3 tools): get_fee_config, set_fee_recipient, transfer_ownership
PREFERENCES (2 tools): get_preferences, update_preferences
MARKET (1 tool): get_market_data
ALERTS (3 tools): create_price_alert, list_price_alerts, delete_price_alert
BALANCE (1 tool): query_balance

Typical flow: list_tokens, get_swap_quote, then swap_tokens, then get_user_transactions.`

	default:
		return `Invalid category. Available categories: quote, swap, history, fees, preferences, market, alerts, balance, all`
	}
}

func (s *MCPServer) StartStdioServer() error {
	return server.ServeStdio(s.server)
}

// StreamableHTTPHandler serves the MCP streamable HTTP transport
func (s *MCPServer) StreamableHTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.server)
}

func (s *MCPServer) GetServer() *server.MCPServer {
	return s.server
}

// GetServices returns the services the tools run against
func (s *MCPServer) GetServices() *app.Services {
	return s.svc
}

func (s *MCPServer) Close() {
	if s.unsubscribeAlerts != nil {
		s.unsubscribeAlerts()
	}
}
