package quote

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/rxtech-lab/swapit-router/internal/constants"
	"github.com/shopspring/decimal"
)

var (
	// ErrNoQuoteAvailable means the rate is missing or not positive (no liquidity).
	ErrNoQuoteAvailable = errors.New("no quote available")
	ErrInvalidSlippage  = errors.New("slippage must be between 0 and 5000 basis points")
	ErrInvalidFee       = errors.New("fee basis points must be below 10000")
	ErrNegativeAmount   = errors.New("amount must not be negative")
)

type Mode string

const (
	ModeSell Mode = "sell"
	ModeBuy  Mode = "buy"
)

var bpsDenominator = big.NewInt(int64(constants.BasisPointsDenominator))

// SellQuote is the forward computation for a known input amount
type SellQuote struct {
	Fee           *big.Int
	AmountForSwap *big.Int
	AmountOut     *big.Int
}

// BuyQuote is the inverse computation for a desired output amount
type BuyQuote struct {
	AmountIn      *big.Int
	Fee           *big.Int
	AmountForSwap *big.Int
	// ExactAmountIn is the unrounded input, for display only
	ExactAmountIn decimal.Decimal
}

// Quote is a displayable and submittable swap quote
type Quote struct {
	Mode          Mode            `json:"mode"`
	AmountIn      *big.Int        `json:"amount_in"`
	AmountOut     *big.Int        `json:"amount_out"`
	FeeAmount     *big.Int        `json:"fee_amount"`
	AmountForSwap *big.Int        `json:"amount_for_swap"`
	ExchangeRate  decimal.Decimal `json:"exchange_rate"`
	SlippageBps   uint32          `json:"slippage_bps"`
	MinAmountOut  *big.Int        `json:"min_amount_out"`
	Submittable   bool            `json:"submittable"`
}

// Request describes a quote to build
type Request struct {
	Mode        Mode
	Amount      *big.Int
	Rate        decimal.Decimal
	FeeBps      uint32
	SlippageBps uint32
}

// Fee returns floor(amountIn * feeBps / 10000).
func Fee(amountIn *big.Int, feeBps uint32) *big.Int {
	fee := new(big.Int).Mul(amountIn, big.NewInt(int64(feeBps)))
	return fee.Quo(fee, bpsDenominator)
}

// QuoteFromSellAmount splits amountIn into fee and swap amount and applies rate.
func QuoteFromSellAmount(amountIn *big.Int, rate decimal.Decimal, feeBps uint32) (*SellQuote, error) {
	if err := checkInputs(amountIn, rate, feeBps); err != nil {
		return nil, err
	}

	fee := Fee(amountIn, feeBps)
	amountForSwap := new(big.Int).Sub(amountIn, fee)

	return &SellQuote{
		Fee:           fee,
		AmountForSwap: amountForSwap,
		AmountOut:     mulFloor(amountForSwap, rate),
	}, nil
}

// QuoteFromBuyAmount returns the smallest input whose forward quote covers amountOut.
func QuoteFromBuyAmount(amountOut *big.Int, rate decimal.Decimal, feeBps uint32) (*BuyQuote, error) {
	if err := checkInputs(amountOut, rate, feeBps); err != nil {
		return nil, err
	}

	amountForSwap := divCeil(amountOut, rate)
	amountIn := grossUp(amountForSwap, feeBps)

	feeFraction := decimal.NewFromInt(int64(feeBps)).Div(decimal.NewFromInt(int64(constants.BasisPointsDenominator)))
	exact := decimal.NewFromBigInt(amountOut, 0).
		DivRound(rate, 18).
		DivRound(decimal.NewFromInt(1).Sub(feeFraction), 18)

	return &BuyQuote{
		AmountIn:      amountIn,
		Fee:           Fee(amountIn, feeBps),
		AmountForSwap: amountForSwap,
		ExactAmountIn: exact,
	}, nil
}

// MinAmountOut returns floor(amountOut * (10000 - slippageBps) / 10000).
func MinAmountOut(amountOut *big.Int, slippageBps uint32) (*big.Int, error) {
	if slippageBps > constants.MaxSlippageBps {
		return nil, ErrInvalidSlippage
	}
	if amountOut.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	keep := big.NewInt(int64(constants.BasisPointsDenominator - slippageBps))
	out := new(big.Int).Mul(amountOut, keep)
	return out.Quo(out, bpsDenominator), nil
}

// Build computes a full quote for either mode.
func Build(req Request) (*Quote, error) {
	if req.Amount == nil {
		return nil, fmt.Errorf("amount is required")
	}
	if req.SlippageBps > constants.MaxSlippageBps {
		return nil, ErrInvalidSlippage
	}

	q := &Quote{
		Mode:         req.Mode,
		ExchangeRate: req.Rate,
		SlippageBps:  req.SlippageBps,
	}

	if req.Amount.Sign() == 0 {
		q.AmountIn = new(big.Int)
		q.AmountOut = new(big.Int)
		q.FeeAmount = new(big.Int)
		q.AmountForSwap = new(big.Int)
		q.MinAmountOut = new(big.Int)
		return q, nil
	}

	switch req.Mode {
	case ModeSell, "":
		q.Mode = ModeSell
		sell, err := QuoteFromSellAmount(req.Amount, req.Rate, req.FeeBps)
		if err != nil {
			return nil, err
		}
		q.AmountIn = new(big.Int).Set(req.Amount)
		q.AmountOut = sell.AmountOut
		q.FeeAmount = sell.Fee
		q.AmountForSwap = sell.AmountForSwap
	case ModeBuy:
		buy, err := QuoteFromBuyAmount(req.Amount, req.Rate, req.FeeBps)
		if err != nil {
			return nil, err
		}
		q.AmountIn = buy.AmountIn
		q.AmountOut = new(big.Int).Set(req.Amount)
		q.FeeAmount = buy.Fee
		q.AmountForSwap = buy.AmountForSwap
	default:
		return nil, fmt.Errorf("unknown quote mode %q", req.Mode)
	}

	minOut, err := MinAmountOut(q.AmountOut, req.SlippageBps)
	if err != nil {
		return nil, err
	}
	q.MinAmountOut = minOut
	q.Submittable = q.AmountIn.Sign() > 0 && q.AmountOut.Sign() > 0
	return q, nil
}

func checkInputs(amount *big.Int, rate decimal.Decimal, feeBps uint32) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if feeBps >= constants.BasisPointsDenominator {
		return ErrInvalidFee
	}
	if !rate.IsPositive() {
		return ErrNoQuoteAvailable
	}
	return nil
}

// grossUp finds the smallest x with x - floor(x*feeBps/10000) >= net.
func grossUp(net *big.Int, feeBps uint32) *big.Int {
	if net.Sign() == 0 {
		return new(big.Int)
	}
	keep := big.NewInt(int64(constants.BasisPointsDenominator - feeBps))
	x := new(big.Int).Mul(net, bpsDenominator)
	x = ceilQuo(x, keep)

	one := big.NewInt(1)
	for x.Cmp(one) > 0 {
		prev := new(big.Int).Sub(x, one)
		if netOf(prev, feeBps).Cmp(net) < 0 {
			break
		}
		x = prev
	}
	return x
}

func netOf(amountIn *big.Int, feeBps uint32) *big.Int {
	return new(big.Int).Sub(amountIn, Fee(amountIn, feeBps))
}

// mulFloor returns floor(v * rate) without rounding the rate.
func mulFloor(v *big.Int, rate decimal.Decimal) *big.Int {
	return decimal.NewFromBigInt(v, 0).Mul(rate).Floor().BigInt()
}

// divCeil returns ceil(v / rate) using the rate's exact coefficient and exponent.
func divCeil(v *big.Int, rate decimal.Decimal) *big.Int {
	num := new(big.Int).Set(v)
	den := rate.Coefficient()
	exp := rate.Exponent()
	if exp < 0 {
		num.Mul(num, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-exp)), nil))
	} else if exp > 0 {
		den.Mul(den, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil))
	}
	return ceilQuo(num, den)
}

func ceilQuo(num, den *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(num, den, new(big.Int))
	if r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
