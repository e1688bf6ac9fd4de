package services

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/swapit-router/internal/constants"
	"github.com/rxtech-lab/swapit-router/internal/models"
	"github.com/rxtech-lab/swapit-router/internal/quote"
	"github.com/rxtech-lab/swapit-router/internal/utils"
	"github.com/shopspring/decimal"
)

// QuoteArgs asks for a quote in human units. Amount is tokenIn units in sell mode and tokenOut units in buy mode.
type QuoteArgs struct {
	User        string     `json:"user" validate:"omitempty,eth_addr"`
	TokenIn     string     `json:"token_in" validate:"required"`
	TokenOut    string     `json:"token_out" validate:"required"`
	Amount      string     `json:"amount" validate:"required"`
	Mode        quote.Mode `json:"mode" validate:"omitempty,oneof=sell buy"`
	SlippageBps *uint32    `json:"slippage_bps,omitempty" validate:"omitempty,lte=5000"`
}

type QuoteResult struct {
	TokenIn      models.Token      `json:"token_in"`
	TokenOut     models.Token      `json:"token_out"`
	Quote        *quote.Quote      `json:"quote"`
	AmountIn     string            `json:"amount_in"`
	AmountOut    string            `json:"amount_out"`
	FeeAmount    string            `json:"fee_amount"`
	MinAmountOut string            `json:"min_amount_out"`
	PriceImpact  decimal.Decimal   `json:"price_impact"`
	ImpactLevel  quote.ImpactLevel `json:"impact_level"`
	NetworkCost  string            `json:"network_cost_eth"`
	Deadline     time.Time         `json:"deadline"`
}

// SwapArgs submits a swap in human units. Empty MinAmountOut and zero Deadline come from the user's preferences,
// except on signed swaps, which must carry the values the signature covers.
type SwapArgs struct {
	User         string `json:"user" validate:"required,eth_addr"`
	TokenIn      string `json:"token_in" validate:"required"`
	TokenOut     string `json:"token_out" validate:"required"`
	AmountIn     string `json:"amount_in" validate:"required"`
	MinAmountOut string `json:"min_amount_out"`
	Deadline     int64  `json:"deadline"`
	Signature    string `json:"signature"`
	// Kind, when set, must match the kind implied by the token pair
	Kind models.SwapKind `json:"kind,omitempty"`
}

// SwapService is the user facing swap flow shared by the HTTP API and the MCP tools
type SwapService interface {
	Quote(ctx context.Context, args QuoteArgs) (*QuoteResult, error)
	Swap(ctx context.Context, args SwapArgs) (*SwapResult, error)
}

type SwapServiceOptions struct {
	ChainID uint64
	// RequireSignature rejects swaps that carry no signed swap intent
	RequireSignature bool
	Clock            Clock
}

type swapService struct {
	router      FeeSwapRouter
	amm         AMMRouter
	ledger      LedgerService
	tokens      TokenService
	prices      PriceService
	preferences PreferencesService
	validator   *validator.Validate
	opts        SwapServiceOptions
}

// NewSwapService creates the swap flow. Rates come from prices, which must quote against the same AMM the router trades on.
func NewSwapService(router FeeSwapRouter, amm AMMRouter, ledger LedgerService, tokens TokenService, prices PriceService, preferences PreferencesService, opts SwapServiceOptions) SwapService {
	return &swapService{
		router:      router,
		amm:         amm,
		ledger:      ledger,
		tokens:      tokens,
		prices:      prices,
		preferences: preferences,
		validator:   validator.New(),
		opts:        opts,
	}
}

func (s *swapService) Quote(ctx context.Context, args QuoteArgs) (*QuoteResult, error) {
	if err := s.validator.Struct(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	tokenIn, tokenOut, err := s.resolvePair(ctx, args.TokenIn, args.TokenOut)
	if err != nil {
		return nil, err
	}

	prefs := DefaultPreferences(common.Address{})
	if args.User != "" {
		if prefs, err = s.preferences.Load(ctx, common.HexToAddress(args.User)); err != nil {
			return nil, err
		}
	}
	slippage := prefs.SlippageBps
	if args.SlippageBps != nil {
		slippage = *args.SlippageBps
	}

	mode := args.Mode
	if mode == "" {
		mode = quote.ModeSell
	}
	decimals := tokenIn.Decimals
	if mode == quote.ModeBuy {
		decimals = tokenOut.Decimals
	}
	amount, err := utils.ParseUnits(args.Amount, decimals)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	rate, err := s.prices.FetchRate(ctx, *tokenIn, *tokenOut)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", quote.ErrNoQuoteAvailable, err)
	}
	q, err := quote.Build(quote.Request{
		Mode:        mode,
		Amount:      amount,
		Rate:        rate.RawRate,
		FeeBps:      constants.FeeBasisPoints,
		SlippageBps: slippage,
	})
	if err != nil {
		return nil, err
	}

	result := &QuoteResult{
		TokenIn:      *tokenIn,
		TokenOut:     *tokenOut,
		Quote:        q,
		AmountIn:     utils.FormatUnits(q.AmountIn, tokenIn.Decimals),
		AmountOut:    utils.FormatUnits(q.AmountOut, tokenOut.Decimals),
		FeeAmount:    utils.FormatUnits(q.FeeAmount, tokenIn.Decimals),
		MinAmountOut: utils.FormatUnits(q.MinAmountOut, tokenOut.Decimals),
		NetworkCost:  utils.FormatUnits(quote.EstimateNetworkCost(tokenAddress(tokenIn), tokenAddress(tokenOut)), 18),
		Deadline:     prefs.Deadline(s.opts.Clock.now()),
	}
	result.PriceImpact = s.priceImpact(ctx, tokenAddress(tokenIn), tokenAddress(tokenOut), q.AmountForSwap)
	result.ImpactLevel = quote.ClassifyImpact(result.PriceImpact)
	return result, nil
}

// priceImpact estimates the impact on the first hop of the route
func (s *swapService) priceImpact(ctx context.Context, tokenIn, tokenOut common.Address, amountForSwap *big.Int) decimal.Decimal {
	if amountForSwap == nil || amountForSwap.Sign() == 0 {
		return decimal.Zero
	}
	weth := s.amm.WETH()
	first, next := tokenIn, tokenOut
	if constants.IsNative(first) {
		first = weth
	}
	if constants.IsNative(next) {
		next = weth
	}
	if first != weth && next != weth {
		next = weth
	}
	reserveIn, _, err := s.amm.GetReserves(ctx, first, next)
	if err != nil {
		return quote.PriceImpact(amountForSwap, new(big.Int))
	}
	return quote.PriceImpact(amountForSwap, reserveIn)
}

func (s *swapService) Swap(ctx context.Context, args SwapArgs) (*SwapResult, error) {
	if err := s.validator.Struct(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	signed := s.opts.RequireSignature || args.Signature != ""
	if signed && (args.Deadline == 0 || args.MinAmountOut == "") {
		return nil, fmt.Errorf("%w: signed swaps need an explicit deadline and min_amount_out", ErrInvalidRequest)
	}
	user := common.HexToAddress(args.User)
	tokenIn, tokenOut, err := s.resolvePair(ctx, args.TokenIn, args.TokenOut)
	if err != nil {
		return nil, err
	}
	in, out := tokenAddress(tokenIn), tokenAddress(tokenOut)
	if constants.IsNative(in) && constants.IsNative(out) {
		return nil, fmt.Errorf("%w: cannot swap native for native", ErrInvalidPath)
	}

	amountIn, err := utils.ParseUnits(args.AmountIn, tokenIn.Decimals)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	prefs, err := s.preferences.Load(ctx, user)
	if err != nil {
		return nil, err
	}

	var minAmountOut *big.Int
	if args.MinAmountOut != "" {
		if minAmountOut, err = utils.ParseUnits(args.MinAmountOut, tokenOut.Decimals); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	} else {
		q, err := s.Quote(ctx, QuoteArgs{User: user.Hex(), TokenIn: in.Hex(), TokenOut: out.Hex(), Amount: args.AmountIn, Mode: quote.ModeSell})
		if err != nil {
			return nil, err
		}
		minAmountOut = q.Quote.MinAmountOut
	}

	deadline := prefs.Deadline(s.opts.Clock.now())
	if args.Deadline != 0 {
		deadline = time.Unix(args.Deadline, 0)
	}

	kind := models.SwapKindTokenForToken
	switch {
	case constants.IsNative(in):
		kind = models.SwapKindNativeForToken
	case constants.IsNative(out):
		kind = models.SwapKindTokenForNative
	}

	if args.Kind != "" && args.Kind != kind {
		return nil, fmt.Errorf("%w: %s to %s is a %s swap", ErrInvalidPath, tokenIn.Symbol, tokenOut.Symbol, kind)
	}

	if signed {
		intent := utils.SwapIntent{
			User:         user,
			Kind:         string(kind),
			TokenIn:      in,
			TokenOut:     out,
			AmountIn:     amountIn,
			MinAmountOut: minAmountOut,
			Deadline:     deadline.Unix(),
		}
		if err := utils.VerifySwapIntent(intent, args.Signature); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
	}

	if !constants.IsNative(in) && prefs.AutoApproveTokens {
		if err := s.autoApprove(user, in, amountIn); err != nil {
			return nil, err
		}
	}

	switch kind {
	case models.SwapKindNativeForToken:
		return s.router.SwapNativeForToken(ctx, user, amountIn, out, minAmountOut, deadline)
	case models.SwapKindTokenForNative:
		return s.router.SwapTokenForNative(ctx, user, in, amountIn, minAmountOut, deadline)
	default:
		return s.router.SwapTokenForToken(ctx, user, in, out, amountIn, minAmountOut, deadline)
	}
}

// autoApprove raises the router allowance to amount for users who opted in
func (s *swapService) autoApprove(user, token common.Address, amount *big.Int) error {
	allowance, err := s.ledger.Allowance(nil, user, s.router.Address(), token)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) >= 0 {
		return nil
	}
	return s.ledger.Approve(nil, user, s.router.Address(), token, amount)
}

func (s *swapService) resolvePair(ctx context.Context, tokenIn, tokenOut string) (*models.Token, *models.Token, error) {
	in, err := s.tokens.Resolve(ctx, s.opts.ChainID, tokenIn)
	if err != nil {
		return nil, nil, err
	}
	out, err := s.tokens.Resolve(ctx, s.opts.ChainID, tokenOut)
	if err != nil {
		return nil, nil, err
	}
	if in.Address == out.Address {
		return nil, nil, fmt.Errorf("%w: tokenIn and tokenOut are the same", ErrInvalidPath)
	}
	return in, out, nil
}

func tokenAddress(token *models.Token) common.Address {
	return common.HexToAddress(token.Address)
}
