package quote

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rxtech-lab/swapit-router/internal/constants"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bigInt(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, "bad integer %s", s)
	return v
}

var sampleAmounts = []string{
	"1", "7", "999", "1000", "1249", "1250", "1251", "12500", "100000",
	"123456789", "1000000000000000007", "340282366920938463463374607431768211455",
}

func TestFee(t *testing.T) {
	t.Run("small amount truncates to zero", func(t *testing.T) {
		assert.Equal(t, "0", Fee(big.NewInt(1000), 8).String())
	})

	t.Run("fee and swap amount for 100000", func(t *testing.T) {
		q, err := QuoteFromSellAmount(big.NewInt(100000), decimal.NewFromInt(1), 8)
		require.NoError(t, err)
		assert.Equal(t, "80", q.Fee.String())
		assert.Equal(t, "99920", q.AmountForSwap.String())
	})

	t.Run("fee plus swap amount equals input", func(t *testing.T) {
		for _, s := range sampleAmounts {
			amountIn := bigInt(t, s)
			q, err := QuoteFromSellAmount(amountIn, decimal.NewFromInt(1), constants.FeeBasisPoints)
			require.NoError(t, err)

			sum := new(big.Int).Add(q.Fee, q.AmountForSwap)
			assert.Equal(t, 0, sum.Cmp(amountIn), "amount %s", s)

			expected := new(big.Int).Mul(amountIn, big.NewInt(8))
			expected.Quo(expected, big.NewInt(10000))
			assert.Equal(t, 0, q.Fee.Cmp(expected), "amount %s", s)
		}
	})
}

func TestQuoteFromSellAmount(t *testing.T) {
	q, err := QuoteFromSellAmount(big.NewInt(100000), decimal.NewFromInt(2), 8)
	require.NoError(t, err)
	assert.Equal(t, "199840", q.AmountOut.String())

	q, err = QuoteFromSellAmount(big.NewInt(3), decimal.RequireFromString("1.5"), 8)
	require.NoError(t, err)
	assert.Equal(t, "4", q.AmountOut.String())

	_, err = QuoteFromSellAmount(big.NewInt(100), decimal.Zero, 8)
	assert.ErrorIs(t, err, ErrNoQuoteAvailable)

	_, err = QuoteFromSellAmount(big.NewInt(100), decimal.NewFromInt(-1), 8)
	assert.ErrorIs(t, err, ErrNoQuoteAvailable)

	_, err = QuoteFromSellAmount(big.NewInt(100), decimal.NewFromInt(1), 10000)
	assert.ErrorIs(t, err, ErrInvalidFee)

	_, err = QuoteFromSellAmount(big.NewInt(-1), decimal.NewFromInt(1), 8)
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestQuoteFromBuyAmount(t *testing.T) {
	t.Run("worked example", func(t *testing.T) {
		buy, err := QuoteFromBuyAmount(big.NewInt(500), decimal.RequireFromString("2.0"), 8)
		require.NoError(t, err)
		assert.Equal(t, "250", buy.AmountForSwap.String())
		assert.Equal(t, "250", buy.AmountIn.String())
		assert.Equal(t, "0", buy.Fee.String())
		assert.True(t, buy.ExactAmountIn.Round(1).Equal(decimal.RequireFromString("250.2")), buy.ExactAmountIn.String())

		forward, err := QuoteFromSellAmount(buy.AmountIn, decimal.RequireFromString("2.0"), 8)
		require.NoError(t, err)
		assert.Equal(t, "500", forward.AmountOut.String())
	})

	t.Run("smallest input across the fee step", func(t *testing.T) {
		buy, err := QuoteFromBuyAmount(big.NewInt(99920), decimal.NewFromInt(1), 8)
		require.NoError(t, err)
		// 99999 pays a fee of 79 and still leaves 99920 for the swap
		assert.Equal(t, "99999", buy.AmountIn.String())
		assert.Equal(t, "79", buy.Fee.String())
	})

	t.Run("zero rate has no quote", func(t *testing.T) {
		_, err := QuoteFromBuyAmount(big.NewInt(500), decimal.Zero, 8)
		assert.ErrorIs(t, err, ErrNoQuoteAvailable)
	})
}

func TestRoundTrip(t *testing.T) {
	rates := []string{"1", "2", "1.5", "1.0001", "3000.123", "1844.55"}

	for _, r := range rates {
		rate := decimal.RequireFromString(r)
		for _, s := range sampleAmounts {
			x := bigInt(t, s)
			sell, err := QuoteFromSellAmount(x, rate, 8)
			require.NoError(t, err)

			buy, err := QuoteFromBuyAmount(sell.AmountOut, rate, 8)
			require.NoError(t, err)

			low := new(big.Int).Sub(x, big.NewInt(1))
			assert.True(t, buy.AmountIn.Cmp(x) <= 0 && buy.AmountIn.Cmp(low) >= 0,
				"rate %s amount %s got %s", r, s, buy.AmountIn)
		}
	}
}

func TestBuyAmountCoversTarget(t *testing.T) {
	rates := []string{"0.37", "0.0005", "1", "2", "1844.55"}
	targets := []string{"1", "3", "500", "99920", "1000000000000000000"}

	for _, r := range rates {
		rate := decimal.RequireFromString(r)
		for _, s := range targets {
			target := bigInt(t, s)
			buy, err := QuoteFromBuyAmount(target, rate, 8)
			require.NoError(t, err)

			forward, err := QuoteFromSellAmount(buy.AmountIn, rate, 8)
			require.NoError(t, err)
			assert.True(t, forward.AmountOut.Cmp(target) >= 0, "rate %s target %s", r, s)

			// one unit less must fall short
			smaller, err := QuoteFromSellAmount(new(big.Int).Sub(buy.AmountIn, big.NewInt(1)), rate, 8)
			require.NoError(t, err)
			assert.True(t, smaller.AmountOut.Cmp(target) < 0, "rate %s target %s", r, s)
		}
	}
}

func TestMinAmountOut(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		slippage uint32
		expected string
	}{
		{"no slippage", 1000, 0, "1000"},
		{"default half percent", 1000, 50, "995"},
		{"rounds down", 199840, 50, "198840"},
		{"maximum", 1000, 5000, "500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := MinAmountOut(big.NewInt(tt.amount), tt.slippage)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out.String())
		})
	}

	t.Run("above maximum is rejected", func(t *testing.T) {
		_, err := MinAmountOut(big.NewInt(1000), 5001)
		assert.ErrorIs(t, err, ErrInvalidSlippage)
	})

	t.Run("non increasing in slippage", func(t *testing.T) {
		amount := big.NewInt(987654321)
		prev, err := MinAmountOut(amount, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, prev.Cmp(amount))

		for s := uint32(1); s <= constants.MaxSlippageBps; s += 7 {
			cur, err := MinAmountOut(amount, s)
			require.NoError(t, err)
			assert.True(t, cur.Cmp(prev) <= 0, "slippage %d", s)
			prev = cur
		}
	})
}

func TestBuild(t *testing.T) {
	t.Run("sell mode", func(t *testing.T) {
		q, err := Build(Request{Mode: ModeSell, Amount: big.NewInt(100000), Rate: decimal.NewFromInt(2), FeeBps: 8, SlippageBps: 50})
		require.NoError(t, err)
		assert.Equal(t, "100000", q.AmountIn.String())
		assert.Equal(t, "199840", q.AmountOut.String())
		assert.Equal(t, "80", q.FeeAmount.String())
		assert.Equal(t, "198840", q.MinAmountOut.String())
		assert.True(t, q.Submittable)
	})

	t.Run("buy mode", func(t *testing.T) {
		q, err := Build(Request{Mode: ModeBuy, Amount: big.NewInt(500), Rate: decimal.NewFromInt(2), FeeBps: 8})
		require.NoError(t, err)
		assert.Equal(t, "250", q.AmountIn.String())
		assert.Equal(t, "500", q.AmountOut.String())
		assert.Equal(t, "500", q.MinAmountOut.String())
		assert.True(t, q.Submittable)
	})

	t.Run("zero amount is not submittable", func(t *testing.T) {
		q, err := Build(Request{Mode: ModeSell, Amount: big.NewInt(0), Rate: decimal.Zero, FeeBps: 8})
		require.NoError(t, err)
		assert.False(t, q.Submittable)
		assert.Equal(t, "0", q.AmountOut.String())
		assert.Equal(t, "0", q.MinAmountOut.String())
	})

	t.Run("output rounding to zero is not submittable", func(t *testing.T) {
		q, err := Build(Request{Mode: ModeSell, Amount: big.NewInt(1), Rate: decimal.RequireFromString("0.1"), FeeBps: 8})
		require.NoError(t, err)
		assert.False(t, q.Submittable)
	})

	t.Run("missing rate", func(t *testing.T) {
		_, err := Build(Request{Mode: ModeSell, Amount: big.NewInt(10), Rate: decimal.Zero, FeeBps: 8})
		assert.ErrorIs(t, err, ErrNoQuoteAvailable)
	})

	t.Run("bad slippage", func(t *testing.T) {
		_, err := Build(Request{Mode: ModeSell, Amount: big.NewInt(10), Rate: decimal.NewFromInt(1), SlippageBps: 6000})
		assert.ErrorIs(t, err, ErrInvalidSlippage)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := Build(Request{Mode: "swap", Amount: big.NewInt(10), Rate: decimal.NewFromInt(1)})
		assert.Error(t, err)
	})
}

func TestEstimateNetworkCost(t *testing.T) {
	token := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	other := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")

	assert.Equal(t, constants.EstimatedNativeLegGasCost.String(), EstimateNetworkCost(constants.NativeToken, token).String())
	assert.Equal(t, constants.EstimatedNativeLegGasCost.String(), EstimateNetworkCost(token, constants.NativeToken).String())
	assert.Equal(t, constants.EstimatedTokenLegGasCost.String(), EstimateNetworkCost(token, other).String())
}

func TestPriceImpact(t *testing.T) {
	assert.True(t, PriceImpact(big.NewInt(0), big.NewInt(100)).IsZero())
	assert.Equal(t, "100", PriceImpact(big.NewInt(5), big.NewInt(0)).String())
	assert.Equal(t, "50", PriceImpact(big.NewInt(100), big.NewInt(100)).String())
	assert.Equal(t, "0.0999", PriceImpact(big.NewInt(1), big.NewInt(1000)).String())

	assert.Equal(t, ImpactLow, ClassifyImpact(decimal.NewFromInt(3)))
	assert.Equal(t, ImpactHigh, ClassifyImpact(decimal.RequireFromString("3.5")))
	assert.Equal(t, ImpactVeryHigh, ClassifyImpact(decimal.RequireFromString("5.01")))
}
