package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/swapit-router/internal/constants"
	"github.com/rxtech-lab/swapit-router/internal/models"
	"gorm.io/gorm"
)

// PreferencesService loads and saves per-user trading settings and notifies subscribers of saves
type PreferencesService interface {
	Load(ctx context.Context, user common.Address) (models.UserPreferences, error)
	Save(ctx context.Context, prefs models.UserPreferences) (models.UserPreferences, error)
	Subscribe(fn func(models.UserPreferences)) (unsubscribe func())
}

type preferencesService struct {
	db        *gorm.DB
	validator *validator.Validate

	mu          sync.RWMutex
	nextID      int
	subscribers map[int]func(models.UserPreferences)
}

func NewPreferencesService(db *gorm.DB) PreferencesService {
	return &preferencesService{
		db:          db,
		validator:   validator.New(),
		subscribers: make(map[int]func(models.UserPreferences)),
	}
}

// DefaultPreferences are used for users that never saved anything
func DefaultPreferences(user common.Address) models.UserPreferences {
	return models.UserPreferences{
		User:                   user.Hex(),
		SlippageBps:            constants.DefaultSlippageBps,
		DeadlineMinutes:        constants.DefaultDeadlineMinutes,
		ShowPriceImpactWarning: true,
		Watchlist:              []string{},
	}
}

func (s *preferencesService) Load(ctx context.Context, user common.Address) (models.UserPreferences, error) {
	var prefs models.UserPreferences
	err := s.db.WithContext(ctx).Where("user_address = ?", user.Hex()).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DefaultPreferences(user), nil
	}
	if err != nil {
		return models.UserPreferences{}, fmt.Errorf("failed to load preferences: %w", err)
	}
	if prefs.Watchlist == nil {
		prefs.Watchlist = []string{}
	}
	return prefs, nil
}

func (s *preferencesService) Save(ctx context.Context, prefs models.UserPreferences) (models.UserPreferences, error) {
	if err := s.validator.Struct(prefs); err != nil {
		return models.UserPreferences{}, fmt.Errorf("%w: %v", ErrInvalidPreferences, err)
	}
	prefs.User = common.HexToAddress(prefs.User).Hex()
	if prefs.Watchlist == nil {
		prefs.Watchlist = []string{}
	}

	if err := s.db.WithContext(ctx).Save(&prefs).Error; err != nil {
		return models.UserPreferences{}, fmt.Errorf("failed to save preferences: %w", err)
	}

	s.mu.RLock()
	subscribers := make([]func(models.UserPreferences), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.RUnlock()
	for _, fn := range subscribers {
		fn(prefs)
	}
	return prefs, nil
}

func (s *preferencesService) Subscribe(fn func(models.UserPreferences)) func() {
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

// PreferencesUpdate is a partial preferences change; nil fields keep their saved value
type PreferencesUpdate struct {
	SlippageBps            *uint32  `json:"slippage_bps"`
	DeadlineMinutes        *uint32  `json:"deadline_minutes"`
	ExpertMode             *bool    `json:"expert_mode"`
	AutoApproveTokens      *bool    `json:"auto_approve_tokens"`
	ShowPriceImpactWarning *bool    `json:"show_price_impact_warning"`
	Watchlist              []string `json:"watchlist"`
}

// Apply returns prefs with the set fields of u applied
func (u PreferencesUpdate) Apply(prefs models.UserPreferences) models.UserPreferences {
	if u.SlippageBps != nil {
		prefs.SlippageBps = *u.SlippageBps
	}
	if u.DeadlineMinutes != nil {
		prefs.DeadlineMinutes = *u.DeadlineMinutes
	}
	if u.ExpertMode != nil {
		prefs.ExpertMode = *u.ExpertMode
	}
	if u.AutoApproveTokens != nil {
		prefs.AutoApproveTokens = *u.AutoApproveTokens
	}
	if u.ShowPriceImpactWarning != nil {
		prefs.ShowPriceImpactWarning = *u.ShowPriceImpactWarning
	}
	if u.Watchlist != nil {
		prefs.Watchlist = u.Watchlist
	}
	return prefs
}
