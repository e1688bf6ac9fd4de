package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/swapit-router/internal/constants"
	"github.com/rxtech-lab/swapit-router/internal/models"
	"github.com/rxtech-lab/swapit-router/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenService handles the per-chain token registry
type TokenService interface {
	SeedDefaults(ctx context.Context, chainID uint64) error
	RegisterToken(ctx context.Context, token RegisterTokenArgs) (*models.Token, error)
	ListTokens(ctx context.Context, chainID uint64) ([]models.Token, error)
	GetBySymbol(ctx context.Context, chainID uint64, symbol string) (*models.Token, error)
	GetByAddress(ctx context.Context, chainID uint64, address common.Address) (*models.Token, error)
	// Resolve accepts either a symbol or a hex address
	Resolve(ctx context.Context, chainID uint64, symbolOrAddress string) (*models.Token, error)
}

type RegisterTokenArgs struct {
	ChainID  uint64 `json:"chain_id" validate:"required"`
	Address  string `json:"address" validate:"required,eth_addr"`
	Symbol   string `json:"symbol" validate:"required,max=16"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals" validate:"lte=36"`
}

type tokenService struct {
	db        *gorm.DB
	validator *validator.Validate
}

// NewTokenService creates a new TokenService
func NewTokenService(db *gorm.DB) TokenService {
	return &tokenService{db: db, validator: validator.New()}
}

// SeedDefaults inserts the shipped token list for chainID, leaving existing rows untouched
func (s *tokenService) SeedDefaults(ctx context.Context, chainID uint64) error {
	defaults, ok := constants.DefaultTokens[chainID]
	if !ok {
		return nil
	}

	tokens := make([]models.Token, 0, len(defaults))
	for _, info := range defaults {
		tokens = append(tokens, models.Token{
			ChainID:  chainID,
			Address:  info.Address.Hex(),
			Symbol:   info.Symbol,
			Name:     info.Name,
			Decimals: info.Decimals,
		})
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&tokens).Error
}

func (s *tokenService) RegisterToken(ctx context.Context, args RegisterTokenArgs) (*models.Token, error) {
	if err := s.validator.Struct(args); err != nil {
		return nil, err
	}
	token := &models.Token{
		ChainID:  args.ChainID,
		Address:  common.HexToAddress(args.Address).Hex(),
		Symbol:   strings.ToUpper(args.Symbol),
		Name:     args.Name,
		Decimals: args.Decimals,
	}
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return nil, fmt.Errorf("failed to register token: %w", err)
	}
	return token, nil
}

func (s *tokenService) ListTokens(ctx context.Context, chainID uint64) ([]models.Token, error) {
	var tokens []models.Token
	err := s.db.WithContext(ctx).Where("chain_id = ?", chainID).Order("id").Find(&tokens).Error
	return tokens, err
}

func (s *tokenService) GetBySymbol(ctx context.Context, chainID uint64, symbol string) (*models.Token, error) {
	return s.first(ctx, "chain_id = ? AND symbol = ?", chainID, strings.ToUpper(strings.TrimSpace(symbol)))
}

func (s *tokenService) GetByAddress(ctx context.Context, chainID uint64, address common.Address) (*models.Token, error) {
	return s.first(ctx, "chain_id = ? AND address = ?", chainID, address.Hex())
}

func (s *tokenService) Resolve(ctx context.Context, chainID uint64, symbolOrAddress string) (*models.Token, error) {
	if utils.IsValidEthereumAddress(strings.TrimSpace(symbolOrAddress)) {
		return s.GetByAddress(ctx, chainID, common.HexToAddress(strings.TrimSpace(symbolOrAddress)))
	}
	return s.GetBySymbol(ctx, chainID, symbolOrAddress)
}

func (s *tokenService) first(ctx context.Context, query string, args ...interface{}) (*models.Token, error) {
	var token models.Token
	err := s.db.WithContext(ctx).Where(query, args...).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrTokenNotFound, args[len(args)-1])
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}
