package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMarketDataTool(t *testing.T) {
	svc := setupTestServices(t)
	tool, handler := NewGetMarketDataTool(svc.MarketPrices, svc.Gas, svc.Tokens, 1)
	assert.Equal(t, "get_market_data", tool.Name)

	t.Run("Reference prices", func(t *testing.T) {
		var body struct {
			EthUsd string `json:"eth_usd"`
			Gas    struct {
				Recommendation string `json:"recommendation"`
			} `json:"gas"`
			Rate interface{} `json:"rate"`
		}
		decodeResult(t, callTool(t, handler, map[string]interface{}{}), "Market data", &body)
		assert.Equal(t, "2500", body.EthUsd)
		assert.NotEmpty(t, body.Gas.Recommendation)
		assert.Nil(t, body.Rate)
	})

	t.Run("Pair rate", func(t *testing.T) {
		var body struct {
			Rate struct {
				Rate string `json:"rate"`
			} `json:"rate"`
		}
		decodeResult(t, callTool(t, handler, map[string]interface{}{
			"token_in":  "ETH",
			"token_out": "USDC",
		}), "Market data", &body)
		require.NotEmpty(t, body.Rate.Rate)
		assert.NotEqual(t, "0", body.Rate.Rate)
	})

	t.Run("Half a pair", func(t *testing.T) {
		result := callTool(t, handler, map[string]interface{}{"token_in": "ETH"})
		assert.True(t, result.IsError)
	})
}

func TestListTokensTool(t *testing.T) {
	svc := setupTestServices(t)
	tool, handler := NewListTokensTool(svc.Tokens, 1)
	assert.Equal(t, "list_tokens", tool.Name)

	var tokens []struct {
		Symbol string `json:"symbol"`
	}
	decodeResult(t, callTool(t, handler, map[string]interface{}{}), "Tokens", &tokens)
	symbols := make([]string, 0, len(tokens))
	for _, token := range tokens {
		symbols = append(symbols, token.Symbol)
	}
	assert.Contains(t, symbols, "ETH")
	assert.Contains(t, symbols, "USDC")
}

func TestQueryBalanceTool(t *testing.T) {
	svc := setupTestServices(t)
	tool, handler := NewQueryBalanceTool(svc.Ledger, svc.Tokens, svc.Router, 1)
	assert.Equal(t, "query_balance", tool.Name)
	assert.Contains(t, tool.InputSchema.Properties, "wallet_address")

	t.Run("All balances", func(t *testing.T) {
		var body struct {
			Balances []balanceEntry `json:"balances"`
		}
		decodeResult(t, callTool(t, handler, map[string]interface{}{"wallet_address": aliceAddr.Hex()}), "Balances", &body)
		require.Len(t, body.Balances, 1)
		assert.Equal(t, "ETH", body.Balances[0].Symbol)
		assert.Equal(t, "10", body.Balances[0].Formatted)
	})

	t.Run("Single token", func(t *testing.T) {
		var entry balanceEntry
		decodeResult(t, callTool(t, handler, map[string]interface{}{
			"wallet_address": aliceAddr.Hex(),
			"token":          "USDC",
		}), "Balance", &entry)
		assert.Equal(t, "0", entry.Amount)
		assert.Equal(t, "0", entry.Allowance)
	})

	t.Run("Bad address", func(t *testing.T) {
		result := callTool(t, handler, map[string]interface{}{"wallet_address": "0x123"})
		assert.True(t, result.IsError)
	})
}
