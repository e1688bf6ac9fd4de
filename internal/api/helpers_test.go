package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
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
	bobAddr      = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	usdcAddr     = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

// setupTestServer builds an API server over an in-memory database with a 100 ETH / 250,000 USDC pool
// and 10 ETH in alice's custody.
func setupTestServer(t *testing.T, mutate ...func(*config.Config)) *APIServer {
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
	for _, fn := range mutate {
		fn(cfg)
	}

	ctx := context.Background()
	svc, err := app.InitializeServices(ctx, dbService.GetDB(), cfg)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	eventStreamHook, pairTrackingHook := app.InitializeHooks(svc)
	app.RegisterHooks(svc.Hooks, eventStreamHook, pairTrackingHook)

	_, err = svc.AMM.AddLiquidity(ctx, svc.AMM.WETH(), usdcAddr, ether(100), big.NewInt(250_000_000_000))
	require.NoError(t, err)
	require.NoError(t, svc.Ledger.Mint(nil, constants.NativeToken, aliceAddr, ether(10)))

	server := NewAPIServer(svc)
	t.Cleanup(func() { _ = server.Shutdown() })
	return server
}

func ether(n int64) *big.Int {
	amount, _ := utils.ParseUnits(fmt.Sprint(n), 18)
	return amount
}

// doRequest sends a request through the fiber app and decodes a JSON response into out when out is not nil
func doRequest(t *testing.T, server *APIServer, method, path string, body interface{}, out interface{}, headers ...string) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := server.GetFiberApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, out), string(data))
	}
	return resp.StatusCode
}
