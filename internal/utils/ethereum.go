package utils

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

func IsValidEthereumAddress(address string) bool {
	return common.IsHexAddress(address)
}

// ParseAddress parses a hex address. "ETH" and "native" select the native asset sentinel.
func ParseAddress(address string) (common.Address, error) {
	trimmed := strings.TrimSpace(address)
	switch strings.ToLower(trimmed) {
	case "eth", "native":
		return common.Address{}, nil
	}
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("invalid ethereum address: %q", address)
	}
	return common.HexToAddress(trimmed), nil
}
