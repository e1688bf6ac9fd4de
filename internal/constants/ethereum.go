package constants

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var MaxUint256 = func() *big.Int {
	val := new(big.Int)
	val.SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	return val
}()

// NativeToken is the sentinel used for the chain's base currency in token slots.
var NativeToken = common.Address{}

const (
	// FeeBasisPoints is the platform fee charged on every swap input (0.08%).
	FeeBasisPoints uint32 = 8
	// BasisPointsDenominator is 100% expressed in basis points.
	BasisPointsDenominator uint32 = 10000
	// MaxSlippageBps caps user slippage tolerance at 50%.
	MaxSlippageBps uint32 = 5000
	// DefaultSlippageBps is 0.5%.
	DefaultSlippageBps uint32 = 50

	DefaultDeadlineMinutes = 20
	MaxDeadlineMinutes     = 4320

	// UniswapV2FeeNumerator and UniswapV2FeeDenominator encode the 0.3% LP fee.
	UniswapV2FeeNumerator   = 997
	UniswapV2FeeDenominator = 1000
)

const (
	ChainIDEthereum uint64 = 1
	ChainIDSepolia  uint64 = 11155111
	ChainIDLocal    uint64 = 31337
	ChainIDRonin    uint64 = 2020
)

// Polling cadences of the market data feeds.
const (
	SpotRatePollInterval   = 10 * time.Second
	EthUsdCacheTTL         = 60 * time.Second
	GasPollInterval        = 60 * time.Second
	PriceAlertPollInterval = 30 * time.Second
)

// Fallback market values used before any successful fetch.
var (
	FallbackEthUsdPrice = 3000.0
	FallbackGasSlow     = 20.0
	FallbackGasStandard = 30.0
	FallbackGasFast     = 40.0
)

// Rough network cost shown next to quotes, in wei.
var (
	EstimatedNativeLegGasCost = big.NewInt(2_000_000_000_000_000)
	EstimatedTokenLegGasCost  = big.NewInt(3_000_000_000_000_000)
)

// WrappedNativeTokens maps chain id to the WETH contract used for native legs.
var WrappedNativeTokens = map[uint64]common.Address{
	ChainIDEthereum: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
	ChainIDSepolia:  common.HexToAddress("0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14"),
	ChainIDLocal:    common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
}

// UniswapV2Routers maps chain id to the Router02 deployment.
var UniswapV2Routers = map[uint64]common.Address{
	ChainIDEthereum: common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
	ChainIDSepolia:  common.HexToAddress("0xeE567Fe1712Faf6149d80dA1E6934E354124CfE3"),
	ChainIDLocal:    common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
}

// UnsupportedUniswapChains lists chains where Uniswap V2 is not deployed.
var UnsupportedUniswapChains = map[uint64]string{
	ChainIDRonin: "Ronin",
}

// IsNative reports whether addr is the native asset sentinel.
func IsNative(addr common.Address) bool {
	return addr == NativeToken
}

// WrappedNative returns the WETH address for the chain.
func WrappedNative(chainID uint64) (common.Address, bool) {
	addr, ok := WrappedNativeTokens[chainID]
	return addr, ok
}
