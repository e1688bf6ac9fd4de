package server

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rxtech-lab/swapit-router/internal/config"
	"github.com/rxtech-lab/swapit-router/internal/constants"
	"github.com/rxtech-lab/swapit-router/internal/hooks"
	"github.com/rxtech-lab/swapit-router/internal/services"
	"github.com/rxtech-lab/swapit-router/internal/utils"
	"gorm.io/gorm"
)

// Services holds every service the transports share
type Services struct {
	Config *config.Config
	DB     *gorm.DB

	Ledger      services.LedgerService
	AMM         services.AMMRouter
	Router      services.FeeSwapRouter
	Hooks       services.HookService
	Tokens      services.TokenService
	Preferences services.PreferencesService
	// Prices quote against the AMM the router trades on
	Prices services.PriceService
	// MarketPrices are the reference feed, backed by the on-chain router when an RPC URL is configured
	MarketPrices services.PriceService
	Gas          services.GasService
	Alerts       services.AlertService
	Swaps        services.SwapService

	EventStream *hooks.EventStreamHook

	ethQuoter *services.EthQuoter
}

func InitializeServices(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Services, error) {
	chainID := cfg.Chain.ChainID
	weth, ok := constants.WrappedNative(chainID)
	if !ok {
		return nil, fmt.Errorf("%w: no WETH for chain %d", services.ErrUnsupportedChain, chainID)
	}

	ledgerService := services.NewLedgerService(db)
	ammService := services.NewAMMService(db, ledgerService, common.HexToAddress(cfg.Router.AMMAddress), weth, nil)
	hookService := services.NewHookService()

	router, err := services.NewFeeSwapRouter(db, ledgerService, ammService, hookService, services.FeeSwapRouterOptions{
		Address:      common.HexToAddress(cfg.Router.Address),
		FeeRecipient: common.HexToAddress(cfg.Router.FeeRecipient),
		Owner:        common.HexToAddress(cfg.Router.Owner),
	})
	if err != nil {
		return nil, err
	}

	tokenService := services.NewTokenService(db)
	if err := tokenService.SeedDefaults(ctx, chainID); err != nil {
		return nil, fmt.Errorf("failed to seed tokens: %w", err)
	}
	preferencesService := services.NewPreferencesService(db)

	client := utils.NewJSONClient()
	priceOptions := services.PriceServiceOptions{CoinGeckoURL: cfg.Market.CoinGeckoURL, Client: client}
	priceService := services.NewPriceService(ammService, weth, priceOptions)

	svc := &Services{
		Config:      cfg,
		DB:          db,
		Ledger:      ledgerService,
		AMM:         ammService,
		Router:      router,
		Hooks:       hookService,
		Tokens:      tokenService,
		Preferences: preferencesService,
		Prices:      priceService,
		EventStream: hooks.NewEventStreamHook(),
	}

	svc.MarketPrices = priceService
	if cfg.Chain.RPCURL != "" {
		quoter, err := services.DialEthQuoter(ctx, cfg.Chain.RPCURL)
		if err != nil {
			return nil, err
		}
		if quoter.ChainID() != chainID {
			quoter.Close()
			return nil, fmt.Errorf("%w: rpc serves chain %d, configured chain is %d", services.ErrUnsupportedChain, quoter.ChainID(), chainID)
		}
		svc.ethQuoter = quoter
		svc.MarketPrices = services.NewPriceService(quoter, weth, priceOptions)
	}

	svc.Gas = services.NewGasService(cfg.Market.GasAPIURL, client, nil)
	svc.Alerts = services.NewAlertService(db, tokenService, svc.MarketPrices, chainID, nil)
	svc.Swaps = services.NewSwapService(router, ammService, ledgerService, tokenService, priceService, preferencesService, services.SwapServiceOptions{
		ChainID:          chainID,
		RequireSignature: cfg.Router.RequireSignature,
	})
	return svc, nil
}

func InitializeHooks(svc *Services) (services.Hook, services.Hook) {
	eventStreamHook := svc.EventStream
	pairTrackingHook := hooks.NewPairTrackingHook(svc.Tokens, svc.MarketPrices, svc.Config.Chain.ChainID)

	return eventStreamHook, pairTrackingHook
}

func RegisterHooks(hookService services.HookService, eventStreamHook services.Hook, pairTrackingHook services.Hook) {
	if err := hookService.AddHook(eventStreamHook); err != nil {
		log.Fatal("Failed to register event stream hook:", err)
	}
	if err := hookService.AddHook(pairTrackingHook); err != nil {
		log.Fatal("Failed to register pair tracking hook:", err)
	}
}

// SeedPools adds the configured liquidity to pairs that have no pool yet
func SeedPools(ctx context.Context, svc *Services) error {
	chainID := svc.Config.Chain.ChainID
	for i, pool := range svc.Config.Pools {
		tokenA, err := svc.Tokens.Resolve(ctx, chainID, pool.TokenA)
		if err != nil {
			return fmt.Errorf("pools[%d]: %w", i, err)
		}
		tokenB, err := svc.Tokens.Resolve(ctx, chainID, pool.TokenB)
		if err != nil {
			return fmt.Errorf("pools[%d]: %w", i, err)
		}
		a, b := svc.PoolToken(common.HexToAddress(tokenA.Address)), svc.PoolToken(common.HexToAddress(tokenB.Address))

		_, _, err = svc.AMM.GetReserves(ctx, a, b)
		if err == nil {
			continue
		}
		if !errors.Is(err, services.ErrNoLiquidity) {
			return err
		}

		amountA, amountB, err := pool.Amounts()
		if err != nil {
			return fmt.Errorf("pools[%d]: %w", i, err)
		}
		if _, err := svc.AMM.AddLiquidity(ctx, a, b, amountA, amountB); err != nil {
			return fmt.Errorf("pools[%d]: %w", i, err)
		}
		log.Printf("Seeded %s/%s pool", tokenA.Symbol, tokenB.Symbol)
	}
	return nil
}

// PoolToken maps the native asset to the WETH it is pooled as
func (s *Services) PoolToken(token common.Address) common.Address {
	if constants.IsNative(token) {
		return s.AMM.WETH()
	}
	return token
}

// StartBackground runs the market data pollers until ctx is cancelled
func (s *Services) StartBackground(ctx context.Context) {
	if s.Config.Market.Disabled {
		return
	}
	go s.MarketPrices.Run(ctx)
	go s.Gas.Run(ctx)
	go s.Alerts.Run(ctx)
}

func (s *Services) Close() {
	if s.ethQuoter != nil {
		s.ethQuoter.Close()
	}
}
