package contracts

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// UniswapV2RouterABI is the subset of Router02 used for quoting
const UniswapV2RouterABI = `[
	{"inputs":[{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"address[]","name":"path","type":"address[]"}],
	 "name":"getAmountsOut","outputs":[{"internalType":"uint256[]","name":"amounts","type":"uint256[]"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"WETH","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"factory","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

// FeeSwapRouterABI describes the fee router's public surface and its SwapExecuted event
const FeeSwapRouterABI = `[
	{"anonymous":false,"inputs":[
		{"indexed":true,"internalType":"address","name":"user","type":"address"},
		{"indexed":true,"internalType":"address","name":"tokenIn","type":"address"},
		{"indexed":true,"internalType":"address","name":"tokenOut","type":"address"},
		{"indexed":false,"internalType":"uint256","name":"amountIn","type":"uint256"},
		{"indexed":false,"internalType":"uint256","name":"amountOut","type":"uint256"},
		{"indexed":false,"internalType":"uint256","name":"feeAmount","type":"uint256"}],
	 "name":"SwapExecuted","type":"event"},
	{"inputs":[{"internalType":"address","name":"tokenOut","type":"address"},{"internalType":"uint256","name":"amountOutMin","type":"uint256"},{"internalType":"uint256","name":"deadline","type":"uint256"}],
	 "name":"swapETHForTokens","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"internalType":"address","name":"tokenIn","type":"address"},{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"uint256","name":"amountOutMin","type":"uint256"},{"internalType":"uint256","name":"deadline","type":"uint256"}],
	 "name":"swapTokensForETH","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"address","name":"tokenIn","type":"address"},{"internalType":"address","name":"tokenOut","type":"address"},{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"uint256","name":"amountOutMin","type":"uint256"},{"internalType":"uint256","name":"deadline","type":"uint256"}],
	 "name":"swapTokensForTokens","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"address","name":"user","type":"address"}],
	 "name":"getUserTransactionCount","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

var (
	parsedOnce   sync.Once
	routerABI    abi.ABI
	feeRouterABI abi.ABI
	parseErr     error
)

func parseAll() {
	routerABI, parseErr = abi.JSON(strings.NewReader(UniswapV2RouterABI))
	if parseErr != nil {
		parseErr = fmt.Errorf("failed to parse router ABI: %w", parseErr)
		return
	}
	feeRouterABI, parseErr = abi.JSON(strings.NewReader(FeeSwapRouterABI))
	if parseErr != nil {
		parseErr = fmt.Errorf("failed to parse fee router ABI: %w", parseErr)
	}
}

// GetRouterABI returns the parsed Uniswap V2 router ABI
func GetRouterABI() (abi.ABI, error) {
	parsedOnce.Do(parseAll)
	return routerABI, parseErr
}

// GetFeeSwapRouterABI returns the parsed fee router ABI
func GetFeeSwapRouterABI() (abi.ABI, error) {
	parsedOnce.Do(parseAll)
	return feeRouterABI, parseErr
}
