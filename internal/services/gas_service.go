package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/rxtech-lab/swapit-router/internal/constants"
	"github.com/rxtech-lab/swapit-router/internal/utils"
	"github.com/shopspring/decimal"
)

const DefaultGasAPIURL = "https://ethgasstation.info/api/ethgasAPI.json"

type GasRecommendation string

const (
	GasRecommendationStandard GasRecommendation = "standard"
	GasRecommendationFast     GasRecommendation = "fast"
	GasRecommendationSlow     GasRecommendation = "slow"
)

// GasPrices are network gas prices in gwei
type GasPrices struct {
	Slow           decimal.Decimal   `json:"slow"`
	Standard       decimal.Decimal   `json:"standard"`
	Fast           decimal.Decimal   `json:"fast"`
	Recommendation GasRecommendation `json:"recommendation"`
	UpdatedAt      time.Time         `json:"updated_at"`
	LastError      string            `json:"last_error,omitempty"`
}

// GasService tracks gas prices from an ethgasstation style feed
type GasService interface {
	Current() GasPrices
	Refresh(ctx context.Context)
	Run(ctx context.Context)
}

type gasService struct {
	url    string
	client *utils.JSONClient
	clock  Clock

	mu      sync.RWMutex
	current GasPrices
}

func NewGasService(url string, client *utils.JSONClient, clock Clock) GasService {
	if url == "" {
		url = DefaultGasAPIURL
	}
	if client == nil {
		client = utils.NewJSONClient()
	}
	return &gasService{
		url:     url,
		client:  client,
		clock:   clock,
		current: fallbackGasPrices(),
	}
}

func fallbackGasPrices() GasPrices {
	prices := GasPrices{
		Slow:     decimal.NewFromFloat(constants.FallbackGasSlow),
		Standard: decimal.NewFromFloat(constants.FallbackGasStandard),
		Fast:     decimal.NewFromFloat(constants.FallbackGasFast),
	}
	prices.Recommendation = RecommendGas(prices.Standard)
	return prices
}

// RecommendGas picks a speed from the standard price in gwei
func RecommendGas(standard decimal.Decimal) GasRecommendation {
	switch {
	case standard.LessThan(decimal.NewFromInt(30)):
		return GasRecommendationStandard
	case standard.LessThan(decimal.NewFromInt(50)):
		return GasRecommendationFast
	default:
		return GasRecommendationSlow
	}
}

func (s *gasService) Current() GasPrices {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Refresh fetches the feed. Values are reported in tenths of a gwei; a failed fetch keeps the previous prices.
func (s *gasService) Refresh(ctx context.Context) {
	var body struct {
		SafeLow decimal.Decimal `json:"safeLow"`
		Average decimal.Decimal `json:"average"`
		Fast    decimal.Decimal `json:"fast"`
	}
	err := s.client.GetJSON(ctx, s.url, &body)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		log.Printf("failed to fetch gas prices: %v", err)
		s.current.LastError = err.Error()
		return
	}

	ten := decimal.NewFromInt(10)
	standard := body.Average.Div(ten)
	s.current = GasPrices{
		Slow:           body.SafeLow.Div(ten),
		Standard:       standard,
		Fast:           body.Fast.Div(ten),
		Recommendation: RecommendGas(standard),
		UpdatedAt:      s.clock.now(),
	}
}

func (s *gasService) Run(ctx context.Context) {
	runEvery(ctx, constants.GasPollInterval, s.Refresh)
}
