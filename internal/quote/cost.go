package quote

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rxtech-lab/swapit-router/internal/constants"
	"github.com/shopspring/decimal"
)

// EstimateNetworkCost returns the rough gas cost (wei) displayed next to a quote.
// Swaps with a native leg are cheaper than token-to-token routes.
func EstimateNetworkCost(tokenIn, tokenOut common.Address) *big.Int {
	if constants.IsNative(tokenIn) || constants.IsNative(tokenOut) {
		return new(big.Int).Set(constants.EstimatedNativeLegGasCost)
	}
	return new(big.Int).Set(constants.EstimatedTokenLegGasCost)
}

// Price impact levels above which a quote is flagged.
var (
	HighPriceImpact     = decimal.NewFromInt(3)
	VeryHighPriceImpact = decimal.NewFromInt(5)
)

type ImpactLevel string

const (
	ImpactLow      ImpactLevel = "low"
	ImpactHigh     ImpactLevel = "high"
	ImpactVeryHigh ImpactLevel = "very_high"
)

// PriceImpact estimates the share of the input-side reserve an order consumes, in percent,
// as amountIn / (reserveIn + amountIn) * 100. Without a reserve the impact is 100.
func PriceImpact(amountIn, reserveIn *big.Int) decimal.Decimal {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return decimal.Zero
	}
	if reserveIn == nil || reserveIn.Sign() <= 0 {
		return decimal.NewFromInt(100)
	}
	in := decimal.NewFromBigInt(amountIn, 0)
	total := in.Add(decimal.NewFromBigInt(reserveIn, 0))
	impact := in.Mul(decimal.NewFromInt(100)).DivRound(total, 4)
	if impact.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.NewFromInt(100)
	}
	return impact
}

// ClassifyImpact maps an impact percentage to the warning level shown to users
func ClassifyImpact(impact decimal.Decimal) ImpactLevel {
	switch {
	case impact.GreaterThan(VeryHighPriceImpact):
		return ImpactVeryHigh
	case impact.GreaterThan(HighPriceImpact):
		return ImpactHigh
	}
	return ImpactLow
}
