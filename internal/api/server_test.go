package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
)

type APIServerTestSuite struct {
	suite.Suite
	server *APIServer
}

func (suite *APIServerTestSuite) SetupTest() {
	suite.server = setupTestServer(suite.T())
}

func (suite *APIServerTestSuite) swap(body map[string]interface{}) (int, map[string]interface{}) {
	var response map[string]interface{}
	status := doRequest(suite.T(), suite.server, http.MethodPost, "/api/swaps", body, &response)
	return status, response
}

func (suite *APIServerTestSuite) TestHealth() {
	var body map[string]string
	status := doRequest(suite.T(), suite.server, http.MethodGet, "/health", nil, &body)
	suite.Equal(http.StatusOK, status)
	suite.Equal("ok", body["status"])
}

func (suite *APIServerTestSuite) TestUnknownRoute() {
	var body errorResponse
	status := doRequest(suite.T(), suite.server, http.MethodGet, "/api/nope", nil, &body)
	suite.Equal(http.StatusNotFound, status)
	suite.Equal("NotFound", body.Error)
}

func (suite *APIServerTestSuite) TestListTokens() {
	var body struct {
		ChainID uint64 `json:"chain_id"`
		Tokens  []struct {
			Symbol string `json:"symbol"`
		} `json:"tokens"`
	}
	status := doRequest(suite.T(), suite.server, http.MethodGet, "/api/tokens", nil, &body)
	suite.Equal(http.StatusOK, status)
	suite.Equal(uint64(1), body.ChainID)

	symbols := []string{}
	for _, token := range body.Tokens {
		symbols = append(symbols, token.Symbol)
	}
	suite.Contains(symbols, "ETH")
	suite.Contains(symbols, "USDC")
}

func (suite *APIServerTestSuite) TestQuote() {
	suite.Run("Sell quote", func() {
		var body struct {
			AmountIn     string `json:"amount_in"`
			FeeAmount    string `json:"fee_amount"`
			AmountOut    string `json:"amount_out"`
			MinAmountOut string `json:"min_amount_out"`
		}
		status := doRequest(suite.T(), suite.server, http.MethodPost, "/api/quote", map[string]interface{}{
			"token_in":  "ETH",
			"token_out": "USDC",
			"amount":    "1",
		}, &body)
		suite.Equal(http.StatusOK, status)
		suite.Equal("1", body.AmountIn)
		suite.Equal("0.0008", body.FeeAmount)
		suite.NotEmpty(body.AmountOut)
		suite.NotEmpty(body.MinAmountOut)
	})

	suite.Run("Unknown token", func() {
		var body errorResponse
		status := doRequest(suite.T(), suite.server, http.MethodPost, "/api/quote", map[string]interface{}{
			"token_in":  "ETH",
			"token_out": "NOPE",
			"amount":    "1",
		}, &body)
		suite.Equal(http.StatusNotFound, status)
		suite.Equal("TokenNotFound", body.Error)
	})

	suite.Run("No pool", func() {
		var body errorResponse
		status := doRequest(suite.T(), suite.server, http.MethodPost, "/api/quote", map[string]interface{}{
			"token_in":  "ETH",
			"token_out": "DAI",
			"amount":    "1",
		}, &body)
		suite.Equal(http.StatusUnprocessableEntity, status)
		suite.Equal("NoQuoteAvailable", body.Error)
	})

	suite.Run("Missing amount", func() {
		var body errorResponse
		status := doRequest(suite.T(), suite.server, http.MethodPost, "/api/quote", map[string]interface{}{
			"token_in":  "ETH",
			"token_out": "USDC",
		}, &body)
		suite.Equal(http.StatusBadRequest, status)
		suite.Equal("InvalidRequest", body.Error)
	})
}

func (suite *APIServerTestSuite) TestSwapNativeForToken() {
	status, body := suite.swap(map[string]interface{}{
		"user":      aliceAddr.Hex(),
		"token_in":  "ETH",
		"token_out": "USDC",
		"amount_in": "1",
	})
	suite.Require().Equal(http.StatusOK, status, body)

	record := body["record"].(map[string]interface{})
	suite.Equal("native_for_token", record["kind"])
	suite.Equal(aliceAddr.Hex(), record["user"])
	suite.Equal("800000000000000", record["fee_amount"])
	suite.Equal("0.0008", body["fee_amount_formatted"])
	suite.Equal("ETH", body["token_in_symbol"])
	suite.Equal("USDC", body["token_out_symbol"])
	suite.Len(body["path"], 2)

	var count struct {
		Count uint64 `json:"count"`
	}
	suite.Equal(http.StatusOK, doRequest(suite.T(), suite.server, http.MethodGet, "/api/users/"+aliceAddr.Hex()+"/transactions/count", nil, &count))
	suite.Equal(uint64(1), count.Count)

	var history struct {
		Total        uint64                   `json:"total"`
		Transactions []map[string]interface{} `json:"transactions"`
	}
	suite.Equal(http.StatusOK, doRequest(suite.T(), suite.server, http.MethodGet, "/api/users/"+aliceAddr.Hex()+"/transactions?start=0&count=5", nil, &history))
	suite.Equal(uint64(1), history.Total)
	suite.Require().Len(history.Transactions, 1)
	suite.Equal(record["event_id"], history.Transactions[0]["event_id"])

	var fees struct {
		Fees []feeTotal `json:"fees"`
	}
	suite.Equal(http.StatusOK, doRequest(suite.T(), suite.server, http.MethodGet, "/api/users/"+aliceAddr.Hex()+"/fees", nil, &fees))
	suite.Require().Len(fees.Fees, 1)
	suite.Equal("800000000000000", fees.Fees[0].Amount)
	suite.Equal("ETH", fees.Fees[0].Symbol)

	var balances struct {
		Balances []balanceResponse `json:"balances"`
	}
	suite.Equal(http.StatusOK, doRequest(suite.T(), suite.server, http.MethodGet, "/api/users/"+aliceAddr.Hex()+"/balances", nil, &balances))
	symbols := map[string]string{}
	for _, balance := range balances.Balances {
		symbols[balance.Symbol] = balance.Formatted
	}
	suite.Equal("9", symbols["ETH"])
	suite.NotEmpty(symbols["USDC"])
}

func (suite *APIServerTestSuite) TestSwapFailures() {
	suite.Run("Insufficient balance", func() {
		status, body := suite.swap(map[string]interface{}{
			"user":      bobAddr.Hex(),
			"token_in":  "ETH",
			"token_out": "USDC",
			"amount_in": "1",
		})
		suite.Equal(http.StatusUnprocessableEntity, status)
		suite.Equal("InsufficientBalance", body["error"])
	})

	suite.Run("Minimum output not met", func() {
		status, body := suite.swap(map[string]interface{}{
			"user":           aliceAddr.Hex(),
			"token_in":       "ETH",
			"token_out":      "USDC",
			"amount_in":      "1",
			"min_amount_out": "1000000",
		})
		suite.Equal(http.StatusUnprocessableEntity, status)
		suite.Equal("InsufficientOutput", body["error"])
	})

	suite.Run("Expired deadline", func() {
		status, body := suite.swap(map[string]interface{}{
			"user":      aliceAddr.Hex(),
			"token_in":  "ETH",
			"token_out": "USDC",
			"amount_in": "1",
			"deadline":  1,
		})
		suite.Equal(http.StatusUnprocessableEntity, status)
		suite.Equal("Expired", body["error"])
	})

	suite.Run("Same token", func() {
		status, body := suite.swap(map[string]interface{}{
			"user":      aliceAddr.Hex(),
			"token_in":  "USDC",
			"token_out": "USDC",
			"amount_in": "1",
		})
		suite.Equal(http.StatusBadRequest, status)
		suite.Equal("InvalidPath", body["error"])
	})

	suite.Run("Kind route rejects another pair kind", func() {
		var body errorResponse
		status := doRequest(suite.T(), suite.server, http.MethodPost, "/api/swaps/token-for-native", map[string]interface{}{
			"user":      aliceAddr.Hex(),
			"token_in":  "ETH",
			"token_out": "USDC",
			"amount_in": "1",
		}, &body)
		suite.Equal(http.StatusBadRequest, status)
		suite.Equal("InvalidPath", body.Error)
	})

	// nothing was recorded
	var count struct {
		Count uint64 `json:"count"`
	}
	doRequest(suite.T(), suite.server, http.MethodGet, "/api/users/"+aliceAddr.Hex()+"/transactions/count", nil, &count)
	suite.Equal(uint64(0), count.Count)
}

func (suite *APIServerTestSuite) TestSwapKindRoute() {
	var body map[string]interface{}
	status := doRequest(suite.T(), suite.server, http.MethodPost, "/api/swaps/native-for-token", map[string]interface{}{
		"user":      aliceAddr.Hex(),
		"token_in":  "ETH",
		"token_out": "USDC",
		"amount_in": "0.5",
	}, &body)
	suite.Require().Equal(http.StatusOK, status, body)
	suite.Equal("native_for_token", body["record"].(map[string]interface{})["kind"])
}

func (suite *APIServerTestSuite) TestUserRoutesValidateAddress() {
	var body errorResponse
	status := doRequest(suite.T(), suite.server, http.MethodGet, "/api/users/not-an-address/transactions", nil, &body)
	suite.Equal(http.StatusBadRequest, status)
	suite.Equal("InvalidAddress", body.Error)

	status = doRequest(suite.T(), suite.server, http.MethodGet, "/api/users/"+aliceAddr.Hex()+"/transactions?count=abc", nil, &body)
	suite.Equal(http.StatusBadRequest, status)
	suite.Equal("InvalidRequest", body.Error)
}

func (suite *APIServerTestSuite) TestPreferences() {
	path := "/api/users/" + aliceAddr.Hex() + "/preferences"

	var prefs map[string]interface{}
	suite.Equal(http.StatusOK, doRequest(suite.T(), suite.server, http.MethodGet, path, nil, &prefs))
	suite.EqualValues(50, prefs["slippage_bps"])

	suite.Equal(http.StatusOK, doRequest(suite.T(), suite.server, http.MethodPut, path, map[string]interface{}{
		"slippage_bps": 100,
		"watchlist":    []string{"USDC"},
	}, &prefs))
	suite.EqualValues(100, prefs["slippage_bps"])
	suite.Equal([]interface{}{"USDC"}, prefs["watchlist"])

	// omitted fields keep their saved value
	suite.Equal(http.StatusOK, doRequest(suite.T(), suite.server, http.MethodPut, path, map[string]interface{}{
		"expert_mode": true,
	}, &prefs))
	suite.EqualValues(100, prefs["slippage_bps"])
	suite.Equal(true, prefs["expert_mode"])

	var body errorResponse
	suite.Equal(http.StatusBadRequest, doRequest(suite.T(), suite.server, http.MethodPut, path, map[string]interface{}{
		"slippage_bps": 9000,
	}, &body))
	suite.Equal("InvalidPreferences", body.Error)
}

func (suite *APIServerTestSuite) TestAlerts() {
	path := "/api/users/" + aliceAddr.Hex() + "/alerts"

	var alert struct {
		ID          string `json:"id"`
		User        string `json:"user"`
		TokenSymbol string `json:"token_symbol"`
		Direction   string `json:"direction"`
	}
	status := doRequest(suite.T(), suite.server, http.MethodPost, path, map[string]interface{}{
		"token_symbol": "ETH",
		"target_price": 3000,
		"direction":    "above",
	}, &alert)
	suite.Require().Equal(http.StatusCreated, status)
	suite.NotEmpty(alert.ID)
	suite.Equal(aliceAddr.Hex(), alert.User)
	suite.Equal("above", alert.Direction)

	var list struct {
		Alerts []map[string]interface{} `json:"alerts"`
	}
	suite.Equal(http.StatusOK, doRequest(suite.T(), suite.server, http.MethodGet, path, nil, &list))
	suite.Len(list.Alerts, 1)

	var body errorResponse
	suite.Equal(http.StatusBadRequest, doRequest(suite.T(), suite.server, http.MethodPost, path, map[string]interface{}{
		"token_symbol": "ETH",
		"target_price": 3000,
		"direction":    "sideways",
	}, &body))
	suite.Equal("InvalidRequest", body.Error)

	suite.Equal(http.StatusNoContent, doRequest(suite.T(), suite.server, http.MethodDelete, path+"/"+alert.ID, nil, nil))
	suite.Equal(http.StatusNotFound, doRequest(suite.T(), suite.server, http.MethodDelete, path+"/"+alert.ID, nil, &body))
	suite.Equal("AlertNotFound", body.Error)

	suite.Equal(http.StatusOK, doRequest(suite.T(), suite.server, http.MethodGet, path, nil, &list))
	suite.Empty(list.Alerts)
}

func (suite *APIServerTestSuite) TestFeeConfig() {
	var cfg map[string]interface{}
	suite.Equal(http.StatusOK, doRequest(suite.T(), suite.server, http.MethodGet, "/api/fee-config", nil, &cfg))
	suite.EqualValues(8, cfg["fee_basis_points"])
	suite.Equal(feeRecipient.Hex(), cfg["fee_recipient"])
	suite.Equal(ownerAddr.Hex(), cfg["owner"])

	suite.Run("Non owner cannot change the recipient", func() {
		var body errorResponse
		status := doRequest(suite.T(), suite.server, http.MethodPut, "/api/fee-config/recipient", map[string]string{
			"caller":    aliceAddr.Hex(),
			"recipient": aliceAddr.Hex(),
		}, &body)
		suite.Equal(http.StatusForbidden, status)
		suite.Equal("NotOwner", body.Error)
	})

	suite.Run("Owner changes the recipient", func() {
		var updated map[string]interface{}
		status := doRequest(suite.T(), suite.server, http.MethodPut, "/api/fee-config/recipient", map[string]string{
			"caller":    ownerAddr.Hex(),
			"recipient": bobAddr.Hex(),
		}, &updated)
		suite.Equal(http.StatusOK, status)
		suite.Equal(bobAddr.Hex(), updated["fee_recipient"])
	})

	suite.Run("Owner hands over ownership", func() {
		var updated map[string]interface{}
		status := doRequest(suite.T(), suite.server, http.MethodPut, "/api/fee-config/owner", map[string]string{
			"caller":    ownerAddr.Hex(),
			"new_owner": bobAddr.Hex(),
		}, &updated)
		suite.Equal(http.StatusOK, status)
		suite.Equal(bobAddr.Hex(), updated["owner"])

		var body errorResponse
		status = doRequest(suite.T(), suite.server, http.MethodPut, "/api/fee-config/owner", map[string]string{
			"caller":    ownerAddr.Hex(),
			"new_owner": ownerAddr.Hex(),
		}, &body)
		suite.Equal(http.StatusForbidden, status)
	})

	suite.Run("Malformed address", func() {
		var body errorResponse
		status := doRequest(suite.T(), suite.server, http.MethodPut, "/api/fee-config/recipient", map[string]string{
			"caller":    ownerAddr.Hex(),
			"recipient": "0x123",
		}, &body)
		suite.Equal(http.StatusBadRequest, status)
		suite.Equal("InvalidRequest", body.Error)
	})
}

func (suite *APIServerTestSuite) TestLedgerAndPools() {
	var balance balanceResponse
	status := doRequest(suite.T(), suite.server, http.MethodPost, "/api/ledger/deposit", map[string]string{
		"holder": bobAddr.Hex(),
		"token":  "USDC",
		"amount": "250.5",
	}, &balance)
	suite.Require().Equal(http.StatusOK, status)
	suite.Equal("USDC", balance.Symbol)
	suite.Equal("250500000", balance.Amount)
	suite.Equal("250.5", balance.Formatted)

	var approval map[string]string
	status = doRequest(suite.T(), suite.server, http.MethodPost, "/api/ledger/approve", map[string]string{
		"owner":  bobAddr.Hex(),
		"token":  "USDC",
		"amount": "max",
	}, &approval)
	suite.Require().Equal(http.StatusOK, status)
	suite.Equal(suite.server.svc.Router.Address().Hex(), approval["spender"])

	var body errorResponse
	status = doRequest(suite.T(), suite.server, http.MethodPost, "/api/ledger/approve", map[string]string{
		"owner":  bobAddr.Hex(),
		"token":  "ETH",
		"amount": "1",
	}, &body)
	suite.Equal(http.StatusBadRequest, status)

	// bob can now sell USDC for ETH
	var swap map[string]interface{}
	status = doRequest(suite.T(), suite.server, http.MethodPost, "/api/swaps", map[string]string{
		"user":      bobAddr.Hex(),
		"token_in":  "USDC",
		"token_out": "ETH",
		"amount_in": "250",
	}, &swap)
	suite.Require().Equal(http.StatusOK, status, swap)
	suite.Equal("token_for_native", swap["record"].(map[string]interface{})["kind"])

	var pools struct {
		AMM   string                   `json:"amm"`
		Pools []map[string]interface{} `json:"pools"`
	}
	suite.Equal(http.StatusOK, doRequest(suite.T(), suite.server, http.MethodGet, "/api/pools", nil, &pools))
	suite.NotEmpty(pools.AMM)
	suite.Len(pools.Pools, 1)

	var pool map[string]interface{}
	status = doRequest(suite.T(), suite.server, http.MethodPost, "/api/pools", map[string]string{
		"token_a":  "ETH",
		"token_b":  "DAI",
		"amount_a": "10",
		"amount_b": "25000",
	}, &pool)
	suite.Require().Equal(http.StatusCreated, status, pool)
	suite.NotEmpty(pool["pair_address"])

	suite.Equal(http.StatusOK, doRequest(suite.T(), suite.server, http.MethodGet, "/api/pools", nil, &pools))
	suite.Len(pools.Pools, 2)

	status = doRequest(suite.T(), suite.server, http.MethodPost, "/api/pools", map[string]string{
		"token_a":  "ETH",
		"token_b":  "DAI",
		"amount_a": "0",
		"amount_b": "1",
	}, &body)
	suite.Equal(http.StatusBadRequest, status)
	suite.Equal("ZeroAmount", body.Error)
}

func (suite *APIServerTestSuite) TestMarket() {
	var ethUsd map[string]interface{}
	suite.Equal(http.StatusOK, doRequest(suite.T(), suite.server, http.MethodGet, "/api/market/eth-usd", nil, &ethUsd))
	suite.Contains(ethUsd, "eth_usd")

	var gas map[string]interface{}
	suite.Equal(http.StatusOK, doRequest(suite.T(), suite.server, http.MethodGet, "/api/market/gas", nil, &gas))
	suite.Contains(gas, "recommendation")

	var body errorResponse
	suite.Equal(http.StatusBadRequest, doRequest(suite.T(), suite.server, http.MethodGet, "/api/market/rate?token_in=ETH", nil, &body))
	suite.Equal(http.StatusNotFound, doRequest(suite.T(), suite.server, http.MethodGet, "/api/market/rate?token_in=ETH&token_out=NOPE", nil, &body))
	suite.Equal("TokenNotFound", body.Error)
}

func (suite *APIServerTestSuite) TestProtectedResourceMetadataWithoutAuth() {
	var body errorResponse
	status := doRequest(suite.T(), suite.server, http.MethodGet, "/.well-known/oauth-protected-resource", nil, &body)
	suite.Equal(http.StatusNotFound, status)
}

func TestAPIServerTestSuite(t *testing.T) {
	suite.Run(t, new(APIServerTestSuite))
}
