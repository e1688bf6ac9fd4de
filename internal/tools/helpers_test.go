package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rxtech-lab/swapit-router/internal/config"
	"github.com/rxtech-lab/swapit-router/internal/constants"
	app "github.com/rxtech-lab/swapit-router/internal/server"
	"github.com/rxtech-lab/swapit-router/internal/services"
	"github.com/rxtech-lab/swapit-router/internal/utils"
	"github.com/stretchr/testify/require"
)

var (
	ownerAddr    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	feeRecipient = common.HexToAddress("0x00000000000000000000000000000000000000fe")
	aliceAddr    = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	usdcAddr     = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

// setupTestServices builds the full service graph on an in-memory database with a 100 ETH / 250,000 USDC pool
// and 10 ETH in alice's custody.
func setupTestServices(t *testing.T) *app.Services {
	t.Helper()

	market := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Path, "gas") {
			fmt.Fprint(w, `{"fast":400,"average":250,"safeLow":150}`)
			return
		}
		fmt.Fprint(w, `{"ethereum":{"usd":2500}}`)
	}))
	t.Cleanup(market.Close)

	dbService, err := services.NewSqliteDBService(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbService.Close() })

	cfg := &config.Config{
		Router: config.RouterConfig{
			Address:      config.DefaultRouterAddress,
			AMMAddress:   config.DefaultAMMAddress,
			FeeRecipient: feeRecipient.Hex(),
			Owner:        ownerAddr.Hex(),
		},
		Chain:  config.ChainConfig{ChainID: 1},
		Server: config.ServerConfig{Port: config.DefaultPort},
		Market: config.MarketConfig{
			CoinGeckoURL: market.URL + "/price",
			GasAPIURL:    market.URL + "/gas",
			Disabled:     true,
		},
	}

	ctx := context.Background()
	svc, err := app.InitializeServices(ctx, dbService.GetDB(), cfg)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	eventStreamHook, pairTrackingHook := app.InitializeHooks(svc)
	app.RegisterHooks(svc.Hooks, eventStreamHook, pairTrackingHook)

	weth := svc.AMM.WETH()
	_, err = svc.AMM.AddLiquidity(ctx, weth, usdcAddr, ether(100), big.NewInt(250_000_000_000))
	require.NoError(t, err)
	require.NoError(t, svc.Ledger.Mint(nil, constants.NativeToken, aliceAddr, ether(10)))
	return svc
}

func ether(n int64) *big.Int {
	amount, _ := utils.ParseUnits(fmt.Sprint(n), 18)
	return amount
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
	result, err := handler(context.Background(), request)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return textContent.Text
}

// decodeResult parses the JSON that follows "label: " in a successful result
func decodeResult(t *testing.T, result *mcp.CallToolResult, label string, out interface{}) {
	t.Helper()
	require.False(t, result.IsError, resultText(t, result))
	text := resultText(t, result)
	prefix := label + ": "
	require.True(t, strings.HasPrefix(text, prefix), text)
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(text, prefix)), out))
}
