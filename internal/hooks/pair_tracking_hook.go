package hooks

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rxtech-lab/swapit-router/internal/models"
	"github.com/rxtech-lab/swapit-router/internal/services"
)

// PairTrackingHook starts polling the spot rate of every pair users actually trade
type PairTrackingHook struct {
	tokenService services.TokenService
	priceService services.PriceService
	chainID      uint64
}

// CanHandle implements Hook.
func (p *PairTrackingHook) CanHandle(kind models.SwapKind) bool {
	switch kind {
	case models.SwapKindNativeForToken, models.SwapKindTokenForNative, models.SwapKindTokenForToken:
		return true
	default:
		return false
	}
}

// OnSwapExecuted implements Hook.
func (p *PairTrackingHook) OnSwapExecuted(event models.SwapExecuted) error {
	ctx := context.Background()

	tokenIn, err := p.tokenService.GetByAddress(ctx, p.chainID, common.HexToAddress(event.TokenIn))
	if err != nil {
		return fmt.Errorf("failed to resolve input token: %w", err)
	}
	tokenOut, err := p.tokenService.GetByAddress(ctx, p.chainID, common.HexToAddress(event.TokenOut))
	if err != nil {
		return fmt.Errorf("failed to resolve output token: %w", err)
	}

	p.priceService.TrackPair(*tokenIn, *tokenOut)
	return nil
}

func NewPairTrackingHook(tokenService services.TokenService, priceService services.PriceService, chainID uint64) services.Hook {
	return &PairTrackingHook{
		tokenService: tokenService,
		priceService: priceService,
		chainID:      chainID,
	}
}
