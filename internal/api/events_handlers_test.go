package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rxtech-lab/swapit-router/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readEvent reads lines until a complete event with the given name arrives and returns its data line
func readEvent(t *testing.T, reader *bufio.Reader, name string) string {
	t.Helper()
	current := ""
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			current = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: ") && current == name:
			return strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEventStreamDeliversSwaps(t *testing.T) {
	server := setupTestServer(t)
	port, err := server.Start(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://127.0.0.1:%d/api/events?user=%s", port, aliceAddr.Hex()), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	result, err := server.svc.Swaps.Swap(ctx, services.SwapArgs{
		User:     aliceAddr.Hex(),
		TokenIn:  "ETH",
		TokenOut: "USDC",
		AmountIn: "1",
	})
	require.NoError(t, err)

	var event struct {
		EventID   string `json:"event_id"`
		Kind      string `json:"kind"`
		User      string `json:"user"`
		FeeAmount string `json:"fee_amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(readEvent(t, reader, "swap_executed")), &event))
	assert.Equal(t, result.Record.EventID, event.EventID)
	assert.Equal(t, "native_for_token", event.Kind)
	assert.Equal(t, aliceAddr.Hex(), event.User)
	assert.Equal(t, "800000000000000", event.FeeAmount)
}

func TestEventStreamRejectsBadFilter(t *testing.T) {
	server := setupTestServer(t)

	var body errorResponse
	status := doRequest(t, server, http.MethodGet, "/api/events?user=nobody", nil, &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "InvalidRequest", body.Error)
}
