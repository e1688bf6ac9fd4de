package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONClientGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ethereum":{"usd":3100.5}}`))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{}`))
		case "/garbage":
			_, _ = w.Write([]byte(`not json`))
		default:
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}
	}))
	defer server.Close()

	client := NewJSONClient()

	var body struct {
		Ethereum struct {
			USD float64 `json:"usd"`
		} `json:"ethereum"`
	}
	require.NoError(t, client.GetJSON(context.Background(), server.URL+"/ok", &body))
	assert.Equal(t, 3100.5, body.Ethereum.USD)

	err := client.GetJSON(context.Background(), server.URL+"/limited", &body)
	assert.ErrorContains(t, err, "unexpected status 429")

	err = client.GetJSON(context.Background(), server.URL+"/garbage", &body)
	assert.ErrorContains(t, err, "failed to decode response")

	client.SetTimeout(50 * time.Millisecond)
	err = client.GetJSON(context.Background(), server.URL+"/slow", &body)
	assert.ErrorContains(t, err, "failed to make request")
}
