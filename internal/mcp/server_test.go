package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rxtech-lab/swapit-router/internal/config"
	app "github.com/rxtech-lab/swapit-router/internal/server"
	"github.com/rxtech-lab/swapit-router/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServices(t *testing.T) *app.Services {
	t.Helper()
	dbService, err := services.NewSqliteDBService(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbService.Close() })

	cfg := &config.Config{
		Router: config.RouterConfig{
			Address:      config.DefaultRouterAddress,
			AMMAddress:   config.DefaultAMMAddress,
			FeeRecipient: "0x00000000000000000000000000000000000000fe",
			Owner:        "0x00000000000000000000000000000000000000a1",
		},
		Chain:  config.ChainConfig{ChainID: 1},
		Market: config.MarketConfig{Disabled: true},
	}
	svc, err := app.InitializeServices(context.Background(), dbService.GetDB(), cfg)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func handle(t *testing.T, s *MCPServer, message string) map[string]interface{} {
	t.Helper()
	response := s.GetServer().HandleMessage(context.Background(), json.RawMessage(message))
	require.NotNil(t, response)

	encoded, err := json.Marshal(response)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	return decoded
}

func TestMCPServerRegistersTools(t *testing.T) {
	s := NewMCPServer(newTestServices(t))
	defer s.Close()

	response := handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	result, ok := response["result"].(map[string]interface{})
	require.True(t, ok, "unexpected response: %v", response)

	var names []string
	for _, tool := range result["tools"].([]interface{}) {
		names = append(names, tool.(map[string]interface{})["name"].(string))
	}
	assert.ElementsMatch(t, []string{
		"get_swap_quote",
		"swap_tokens",
		"list_tokens",
		"get_user_transactions",
		"get_fee_config",
		"set_fee_recipient",
		"transfer_ownership",
		"get_preferences",
		"update_preferences",
		"get_market_data",
		"create_price_alert",
		"list_price_alerts",
		"delete_price_alert",
		"query_balance",
	}, names)
}

func TestMCPServerCallsTool(t *testing.T) {
	s := NewMCPServer(newTestServices(t))
	defer s.Close()

	response := handle(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_fee_config","arguments":{}}}`)
	result, ok := response["result"].(map[string]interface{})
	require.True(t, ok, "unexpected response: %v", response)
	content := result["content"].([]interface{})
	require.NotEmpty(t, content)
	assert.Contains(t, content[0].(map[string]interface{})["text"], `"fee_basis_points":8`)
}

func TestUsagePrompt(t *testing.T) {
	s := NewMCPServer(newTestServices(t))
	defer s.Close()

	response := handle(t, s, `{"jsonrpc":"2.0","id":3,"method":"prompts/get","params":{"name":"swapit-router-usage","arguments":{"tool_category":"swap"}}}`)
	result, ok := response["result"].(map[string]interface{})
	require.True(t, ok, "unexpected response: %v", response)
	assert.Contains(t, result["description"], "swap")
}

func TestGetToolInstructions(t *testing.T) {
	for _, category := range []string{"quote", "swap", "history", "fees", "preferences", "market", "alerts", "balance", "all"} {
		assert.NotContains(t, getToolInstructions(category), "Invalid category", category)
	}
	assert.Contains(t, getToolInstructions("templates"), "Invalid category")
	assert.Contains(t, getToolInstructions("all"), "0.08%")
}
