package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rxtech-lab/swapit-router/internal/services"
)

// successResult renders v as JSON after a short label
func successResult(label string, v interface{}) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: %s", label, body)), nil
}

// errorResult reports a failed operation with its reason code when it has one
func errorResult(action string, err error) *mcp.CallToolResult {
	if reason := services.Reason(err); reason != "" {
		return mcp.NewToolResultError(fmt.Sprintf("%s failed (%s): %v", action, reason, err))
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", action, err))
}
