package constants

import "github.com/ethereum/go-ethereum/common"

// TokenInfo is a static registry entry.
type TokenInfo struct {
	Symbol   string
	Name     string
	Address  common.Address
	Decimals uint8
}

var NativeEther = TokenInfo{Symbol: "ETH", Name: "Ether", Address: NativeToken, Decimals: 18}

// DefaultTokens holds the token list shipped for each supported chain.
var DefaultTokens = map[uint64][]TokenInfo{
	ChainIDEthereum: {
		NativeEther,
		{Symbol: "WETH", Name: "Wrapped Ether", Address: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), Decimals: 18},
		{Symbol: "USDC", Name: "USD Coin", Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Decimals: 6},
		{Symbol: "USDT", Name: "Tether USD", Address: common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"), Decimals: 6},
		{Symbol: "DAI", Name: "Dai Stablecoin", Address: common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), Decimals: 18},
		{Symbol: "WBTC", Name: "Wrapped BTC", Address: common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"), Decimals: 8},
		{Symbol: "UNI", Name: "Uniswap", Address: common.HexToAddress("0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984"), Decimals: 18},
		{Symbol: "LINK", Name: "ChainLink Token", Address: common.HexToAddress("0x514910771AF9Ca656af840dff83E8264EcF986CA"), Decimals: 18},
	},
}

// StableSymbols are priced at one USD by the market feeds.
var StableSymbols = map[string]bool{
	"USDC": true,
	"USDT": true,
	"DAI":  true,
}
