package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rxtech-lab/swapit-router/internal/constants"
	"github.com/rxtech-lab/swapit-router/internal/models"
	"github.com/rxtech-lab/swapit-router/internal/utils"
	"github.com/shopspring/decimal"
)

const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3/simple/price?ids=ethereum&vs_currencies=usd"

// RateSnapshot is the latest spot rate of a pair
type RateSnapshot struct {
	TokenIn  string `json:"token_in"`
	TokenOut string `json:"token_out"`
	// Rate is whole tokenOut per whole tokenIn
	Rate decimal.Decimal `json:"rate"`
	// RawRate is smallest-unit tokenOut per smallest-unit tokenIn, the rate quotes are built from
	RawRate   decimal.Decimal `json:"raw_rate"`
	UpdatedAt time.Time       `json:"updated_at"`
	LastError string          `json:"last_error,omitempty"`
}

// PriceService provides spot rates from the AMM and the ETH/USD reference price
type PriceService interface {
	FetchRate(ctx context.Context, tokenIn, tokenOut models.Token) (RateSnapshot, error)
	TrackPair(tokenIn, tokenOut models.Token)
	SpotRate(tokenIn, tokenOut common.Address) (RateSnapshot, bool)
	RefreshRates(ctx context.Context)
	EthUsd(ctx context.Context) decimal.Decimal
	TokenUSD(ctx context.Context, token models.Token) (decimal.Decimal, error)
	// Run polls tracked pairs until ctx is cancelled
	Run(ctx context.Context)
}

type PriceServiceOptions struct {
	CoinGeckoURL string
	Client       *utils.JSONClient
	Clock        Clock
}

type pairKey struct {
	tokenIn, tokenOut common.Address
}

type trackedPair struct {
	tokenIn, tokenOut models.Token
	snapshot          RateSnapshot
}

type priceService struct {
	quoter       Quoter
	weth         common.Address
	coinGeckoURL string
	client       *utils.JSONClient
	clock        Clock

	mu    sync.RWMutex
	pairs map[pairKey]*trackedPair

	ethMu        sync.Mutex
	ethUsd       decimal.Decimal
	ethFetchedAt time.Time
}

func NewPriceService(quoter Quoter, weth common.Address, opts PriceServiceOptions) PriceService {
	if opts.CoinGeckoURL == "" {
		opts.CoinGeckoURL = DefaultCoinGeckoURL
	}
	if opts.Client == nil {
		opts.Client = utils.NewJSONClient()
	}
	return &priceService{
		quoter:       quoter,
		weth:         weth,
		coinGeckoURL: opts.CoinGeckoURL,
		client:       opts.Client,
		clock:        opts.Clock,
		pairs:        make(map[pairKey]*trackedPair),
	}
}

// FetchRate quotes one whole tokenIn through the AMM. An empty pool yields a zero rate and ErrNoLiquidity.
func (s *priceService) FetchRate(ctx context.Context, tokenIn, tokenOut models.Token) (RateSnapshot, error) {
	snapshot := RateSnapshot{
		TokenIn:   tokenIn.Address,
		TokenOut:  tokenOut.Address,
		Rate:      decimal.Zero,
		RawRate:   decimal.Zero,
		UpdatedAt: s.clock.now(),
	}

	in := s.routable(common.HexToAddress(tokenIn.Address))
	out := s.routable(common.HexToAddress(tokenOut.Address))
	if in == out {
		scale := decimal.New(1, int32(tokenOut.Decimals)-int32(tokenIn.Decimals))
		snapshot.Rate = decimal.NewFromInt(1)
		snapshot.RawRate = scale
		return snapshot, nil
	}

	path := []common.Address{in, out}
	if in != s.weth && out != s.weth {
		path = []common.Address{in, s.weth, out}
	}

	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(tokenIn.Decimals)), nil)
	amounts, err := s.quoter.GetAmountsOut(ctx, unit, path)
	if err != nil {
		snapshot.LastError = err.Error()
		return snapshot, err
	}
	amountOut := amounts[len(amounts)-1]
	if amountOut.Sign() == 0 {
		snapshot.LastError = ErrNoLiquidity.Error()
		return snapshot, ErrNoLiquidity
	}

	snapshot.Rate = decimal.NewFromBigInt(amountOut, -int32(tokenOut.Decimals))
	snapshot.RawRate = decimal.NewFromBigInt(amountOut, -int32(tokenIn.Decimals))
	return snapshot, nil
}

func (s *priceService) routable(token common.Address) common.Address {
	if constants.IsNative(token) {
		return s.weth
	}
	return token
}

func (s *priceService) TrackPair(tokenIn, tokenOut models.Token) {
	key := pairKey{common.HexToAddress(tokenIn.Address), common.HexToAddress(tokenOut.Address)}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pairs[key]; !ok {
		s.pairs[key] = &trackedPair{tokenIn: tokenIn, tokenOut: tokenOut}
	}
}

func (s *priceService) SpotRate(tokenIn, tokenOut common.Address) (RateSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pair, ok := s.pairs[pairKey{tokenIn, tokenOut}]
	if !ok || pair.snapshot.UpdatedAt.IsZero() {
		return RateSnapshot{}, false
	}
	return pair.snapshot, true
}

// RefreshRates re-quotes every tracked pair. A failed fetch keeps the last good rate and records the error;
// an empty pool resets the rate to zero.
func (s *priceService) RefreshRates(ctx context.Context) {
	s.mu.RLock()
	pairs := make([]*trackedPair, 0, len(s.pairs))
	for _, pair := range s.pairs {
		pairs = append(pairs, pair)
	}
	s.mu.RUnlock()

	for _, pair := range pairs {
		fresh, err := s.FetchRate(ctx, pair.tokenIn, pair.tokenOut)

		s.mu.Lock()
		switch {
		case err == nil, errors.Is(err, ErrNoLiquidity):
			pair.snapshot = fresh
		default:
			log.Printf("failed to refresh %s/%s rate: %v", pair.tokenIn.Symbol, pair.tokenOut.Symbol, err)
			pair.snapshot.LastError = err.Error()
			if pair.snapshot.UpdatedAt.IsZero() {
				pair.snapshot = fresh
			}
		}
		s.mu.Unlock()
	}
}

// EthUsd returns the cached ETH price, refreshing it once the cache is older than a minute.
// A failed refresh keeps the last value; before any success the fallback price is used.
func (s *priceService) EthUsd(ctx context.Context) decimal.Decimal {
	s.ethMu.Lock()
	defer s.ethMu.Unlock()

	now := s.clock.now()
	if !s.ethFetchedAt.IsZero() && now.Sub(s.ethFetchedAt) < constants.EthUsdCacheTTL {
		return s.ethUsd
	}

	var body struct {
		Ethereum struct {
			USD decimal.Decimal `json:"usd"`
		} `json:"ethereum"`
	}
	err := s.client.GetJSON(ctx, s.coinGeckoURL, &body)
	if err == nil && !body.Ethereum.USD.IsPositive() {
		err = fmt.Errorf("no ethereum price in response")
	}
	if err != nil {
		log.Printf("failed to fetch ETH price: %v", err)
		if s.ethFetchedAt.IsZero() {
			return decimal.NewFromFloat(constants.FallbackEthUsdPrice)
		}
		return s.ethUsd
	}

	s.ethUsd = body.Ethereum.USD
	s.ethFetchedAt = now
	return s.ethUsd
}

// TokenUSD prices ETH and WETH at the ETH reference, stablecoins at one dollar, and anything else
// through its AMM rate against ETH.
func (s *priceService) TokenUSD(ctx context.Context, token models.Token) (decimal.Decimal, error) {
	address := s.routable(common.HexToAddress(token.Address))
	switch {
	case address == s.weth:
		return s.EthUsd(ctx), nil
	case constants.StableSymbols[token.Symbol]:
		return decimal.NewFromInt(1), nil
	}

	rate, err := s.FetchRate(ctx, token, models.Token{Address: constants.NativeToken.Hex(), Symbol: "ETH", Decimals: 18})
	if err != nil {
		return decimal.Zero, err
	}
	return rate.Rate.Mul(s.EthUsd(ctx)), nil
}

func (s *priceService) Run(ctx context.Context) {
	runEvery(ctx, constants.SpotRatePollInterval, s.RefreshRates)
}
