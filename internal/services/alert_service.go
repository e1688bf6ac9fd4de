package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rxtech-lab/swapit-router/internal/constants"
	"github.com/rxtech-lab/swapit-router/internal/models"
	"gorm.io/gorm"
)

// AlertService manages price alerts and checks them against USD prices
type AlertService interface {
	CreateAlert(ctx context.Context, args CreateAlertArgs) (*models.PriceAlert, error)
	ListAlerts(ctx context.Context, user common.Address) ([]models.PriceAlert, error)
	DeleteAlert(ctx context.Context, user common.Address, id string) error
	// CheckAlerts triggers every pending alert whose condition holds and returns them
	CheckAlerts(ctx context.Context) ([]models.PriceAlert, error)
	Subscribe(fn func(models.PriceAlert)) (unsubscribe func())
	Run(ctx context.Context)
}

type CreateAlertArgs struct {
	User        string  `json:"user" validate:"required,eth_addr"`
	TokenSymbol string  `json:"token_symbol" validate:"required"`
	TargetPrice float64 `json:"target_price" validate:"gt=0"`
	Direction   string  `json:"direction" validate:"required,oneof=above below"`
}

type alertService struct {
	db        *gorm.DB
	tokens    TokenService
	prices    PriceService
	chainID   uint64
	clock     Clock
	validator *validator.Validate

	mu          sync.RWMutex
	nextID      int
	subscribers map[int]func(models.PriceAlert)
}

func NewAlertService(db *gorm.DB, tokens TokenService, prices PriceService, chainID uint64, clock Clock) AlertService {
	return &alertService{
		db:          db,
		tokens:      tokens,
		prices:      prices,
		chainID:     chainID,
		clock:       clock,
		validator:   validator.New(),
		subscribers: make(map[int]func(models.PriceAlert)),
	}
}

func (s *alertService) CreateAlert(ctx context.Context, args CreateAlertArgs) (*models.PriceAlert, error) {
	if err := s.validator.Struct(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	token, err := s.tokens.GetBySymbol(ctx, s.chainID, args.TokenSymbol)
	if err != nil {
		return nil, err
	}

	alert := &models.PriceAlert{
		ID:          uuid.New().String(),
		User:        common.HexToAddress(args.User).Hex(),
		TokenSymbol: token.Symbol,
		TargetPrice: args.TargetPrice,
		Direction:   models.AlertDirection(strings.ToLower(args.Direction)),
	}
	if err := s.db.WithContext(ctx).Create(alert).Error; err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	return alert, nil
}

func (s *alertService) ListAlerts(ctx context.Context, user common.Address) ([]models.PriceAlert, error) {
	var alerts []models.PriceAlert
	err := s.db.WithContext(ctx).Where("user_address = ?", user.Hex()).Order("created_at").Find(&alerts).Error
	return alerts, err
}

func (s *alertService) DeleteAlert(ctx context.Context, user common.Address, id string) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_address = ?", id, user.Hex()).Delete(&models.PriceAlert{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete alert: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrAlertNotFound, id)
	}
	return nil
}

func (s *alertService) CheckAlerts(ctx context.Context) ([]models.PriceAlert, error) {
	var pending []models.PriceAlert
	if err := s.db.WithContext(ctx).Where("triggered = ?", false).Order("created_at").Find(&pending).Error; err != nil {
		return nil, fmt.Errorf("failed to load alerts: %w", err)
	}

	prices := make(map[string]float64)
	var triggered []models.PriceAlert
	for _, alert := range pending {
		price, ok := prices[alert.TokenSymbol]
		if !ok {
			var err error
			price, err = s.usdPrice(ctx, alert.TokenSymbol)
			if err != nil {
				log.Printf("skipping alerts for %s: %v", alert.TokenSymbol, err)
				continue
			}
			prices[alert.TokenSymbol] = price
		}
		if !alert.Crossed(price) {
			continue
		}

		now := s.clock.now()
		result := s.db.WithContext(ctx).Model(&models.PriceAlert{}).
			Where("id = ? AND triggered = ?", alert.ID, false).
			Updates(map[string]interface{}{"triggered": true, "triggered_at": now})
		if result.Error != nil {
			return triggered, fmt.Errorf("failed to mark alert %s: %w", alert.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			continue
		}
		alert.Triggered = true
		alert.TriggeredAt = &now
		triggered = append(triggered, alert)
	}

	for _, alert := range triggered {
		s.notify(alert)
	}
	return triggered, nil
}

func (s *alertService) usdPrice(ctx context.Context, symbol string) (float64, error) {
	if constants.StableSymbols[symbol] {
		return 1, nil
	}
	token, err := s.tokens.GetBySymbol(ctx, s.chainID, symbol)
	if err != nil {
		return 0, err
	}
	usd, err := s.prices.TokenUSD(ctx, *token)
	if err != nil {
		return 0, err
	}
	if usd.IsZero() {
		return 0, errors.New("no price")
	}
	return usd.InexactFloat64(), nil
}

func (s *alertService) Subscribe(fn func(models.PriceAlert)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *alertService) notify(alert models.PriceAlert) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fn := range s.subscribers {
		fn(alert)
	}
}

func (s *alertService) Run(ctx context.Context) {
	runEvery(ctx, constants.PriceAlertPollInterval, func(ctx context.Context) {
		if _, err := s.CheckAlerts(ctx); err != nil {
			log.Printf("price alert check failed: %v", err)
		}
	})
}
