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
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/rxtech-lab/swapit-router/internal/constants"
	"github.com/rxtech-lab/swapit-router/internal/models"
	"github.com/rxtech-lab/swapit-router/internal/quote"
	"github.com/rxtech-lab/swapit-router/internal/utils"
	"gorm.io/gorm"
)

// SwapResult describes a committed swap
type SwapResult struct {
	Record        models.SwapRecord `json:"record"`
	AmountForSwap *big.Int          `json:"amount_for_swap"`
	Path          []common.Address  `json:"path"`
	Log           *types.Log        `json:"log"`
}

// FeeSwapRouter charges the platform fee on swap inputs, forwards the rest to the AMM router and
// keeps the per-user swap log.
type FeeSwapRouter interface {
	Address() common.Address
	SwapNativeForToken(ctx context.Context, caller common.Address, value *big.Int, tokenOut common.Address, minAmountOut *big.Int, deadline time.Time) (*SwapResult, error)
	SwapTokenForNative(ctx context.Context, caller, tokenIn common.Address, amountIn, minAmountOut *big.Int, deadline time.Time) (*SwapResult, error)
	SwapTokenForToken(ctx context.Context, caller, tokenIn, tokenOut common.Address, amountIn, minAmountOut *big.Int, deadline time.Time) (*SwapResult, error)

	GetUserTransactionCount(ctx context.Context, user common.Address) uint64
	GetUserTransactions(ctx context.Context, user common.Address, start, count uint64) ([]models.SwapRecord, error)
	TotalFeesPaid(ctx context.Context, user common.Address) (map[common.Address]*big.Int, error)

	GetFeeConfig(ctx context.Context) (*models.FeeConfig, error)
	SetFeeRecipient(ctx context.Context, caller, recipient common.Address) (*models.FeeConfig, error)
	TransferOwnership(ctx context.Context, caller, newOwner common.Address) (*models.FeeConfig, error)
}

// FeeSwapRouterOptions configures a router instance
type FeeSwapRouterOptions struct {
	// Address is the router's own ledger account
	Address common.Address
	// FeeRecipient and Owner seed the fee configuration on first start
	FeeRecipient common.Address
	Owner        common.Address
	Clock        Clock
}

type routerGuardKey struct {
	router *feeSwapRouter
}

type feeSwapRouter struct {
	db      *gorm.DB
	ledger  LedgerService
	amm     AMMRouter
	hooks   HookService
	address common.Address
	clock   Clock

	// mu is the reentrancy guard; ledger writes are serialized by the ledger itself
	mu sync.Mutex
}

// NewFeeSwapRouter creates the router and seeds the fee configuration when none is stored yet
func NewFeeSwapRouter(db *gorm.DB, ledger LedgerService, amm AMMRouter, hooks HookService, opts FeeSwapRouterOptions) (FeeSwapRouter, error) {
	if opts.Address == (common.Address{}) {
		return nil, fmt.Errorf("%w: router address is required", ErrInvalidAddress)
	}
	if opts.FeeRecipient == (common.Address{}) || opts.Owner == (common.Address{}) {
		return nil, fmt.Errorf("%w: fee recipient and owner are required", ErrInvalidAddress)
	}
	if hooks == nil {
		hooks = NewHookService()
	}

	seed := models.FeeConfig{
		FeeBasisPoints: constants.FeeBasisPoints,
		FeeRecipient:   opts.FeeRecipient.Hex(),
		Owner:          opts.Owner.Hex(),
	}
	var existing models.FeeConfig
	if err := db.Attrs(seed).FirstOrCreate(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to seed fee config: %w", err)
	}

	return &feeSwapRouter{
		db:      db,
		ledger:  ledger,
		amm:     amm,
		hooks:   hooks,
		address: opts.Address,
		clock:   opts.Clock,
	}, nil
}

func (r *feeSwapRouter) Address() common.Address { return r.address }

// enter acquires the guard. A context that already carries this router's marker is a nested call.
func (r *feeSwapRouter) enter(ctx context.Context) (context.Context, func(), error) {
	if ctx.Value(routerGuardKey{r}) != nil {
		return nil, nil, ErrReentrantCall
	}
	r.mu.Lock()
	return context.WithValue(ctx, routerGuardKey{r}, true), r.mu.Unlock, nil
}

// swapLeg is the kind-specific part of a swap: pulling the input and calling the AMM
type swapLeg struct {
	kind     models.SwapKind
	tokenIn  common.Address
	tokenOut common.Address
	path     []common.Address
	pull     func(tx *gorm.DB) error
	forward  func(ctx context.Context, tx *gorm.DB, amountForSwap *big.Int) ([]*big.Int, error)
}

func (r *feeSwapRouter) SwapNativeForToken(ctx context.Context, caller common.Address, value *big.Int, tokenOut common.Address, minAmountOut *big.Int, deadline time.Time) (*SwapResult, error) {
	if constants.IsNative(tokenOut) || tokenOut == r.amm.WETH() {
		return nil, fmt.Errorf("%w: tokenOut must be an ERC20 other than WETH", ErrInvalidPath)
	}
	path := []common.Address{r.amm.WETH(), tokenOut}

	return r.execute(ctx, caller, value, minAmountOut, deadline, swapLeg{
		kind:     models.SwapKindNativeForToken,
		tokenIn:  constants.NativeToken,
		tokenOut: tokenOut,
		path:     path,
		pull: func(tx *gorm.DB) error {
			return r.ledger.Transfer(tx, constants.NativeToken, caller, r.address, value)
		},
		forward: func(ctx context.Context, tx *gorm.DB, amountForSwap *big.Int) ([]*big.Int, error) {
			return r.amm.SwapExactETHForTokens(ctx, tx, r.address, amountForSwap, minAmountOut, path, r.address, deadline)
		},
	})
}

func (r *feeSwapRouter) SwapTokenForNative(ctx context.Context, caller, tokenIn common.Address, amountIn, minAmountOut *big.Int, deadline time.Time) (*SwapResult, error) {
	if constants.IsNative(tokenIn) || tokenIn == r.amm.WETH() {
		return nil, fmt.Errorf("%w: tokenIn must be an ERC20 other than WETH", ErrInvalidPath)
	}
	path := []common.Address{tokenIn, r.amm.WETH()}

	return r.execute(ctx, caller, amountIn, minAmountOut, deadline, swapLeg{
		kind:     models.SwapKindTokenForNative,
		tokenIn:  tokenIn,
		tokenOut: constants.NativeToken,
		path:     path,
		pull: func(tx *gorm.DB) error {
			return r.ledger.TransferFrom(tx, tokenIn, r.address, caller, r.address, amountIn)
		},
		forward: func(ctx context.Context, tx *gorm.DB, amountForSwap *big.Int) ([]*big.Int, error) {
			if err := r.ensureAMMAllowance(tx, tokenIn, amountForSwap); err != nil {
				return nil, err
			}
			return r.amm.SwapExactTokensForETH(ctx, tx, r.address, amountForSwap, minAmountOut, path, r.address, deadline)
		},
	})
}

func (r *feeSwapRouter) SwapTokenForToken(ctx context.Context, caller, tokenIn, tokenOut common.Address, amountIn, minAmountOut *big.Int, deadline time.Time) (*SwapResult, error) {
	if constants.IsNative(tokenIn) || constants.IsNative(tokenOut) {
		return nil, fmt.Errorf("%w: use the native swap entry points for ETH", ErrInvalidPath)
	}
	if tokenIn == tokenOut {
		return nil, fmt.Errorf("%w: tokenIn and tokenOut are identical", ErrInvalidPath)
	}
	path := r.tokenPath(tokenIn, tokenOut)

	return r.execute(ctx, caller, amountIn, minAmountOut, deadline, swapLeg{
		kind:     models.SwapKindTokenForToken,
		tokenIn:  tokenIn,
		tokenOut: tokenOut,
		path:     path,
		pull: func(tx *gorm.DB) error {
			return r.ledger.TransferFrom(tx, tokenIn, r.address, caller, r.address, amountIn)
		},
		forward: func(ctx context.Context, tx *gorm.DB, amountForSwap *big.Int) ([]*big.Int, error) {
			if err := r.ensureAMMAllowance(tx, tokenIn, amountForSwap); err != nil {
				return nil, err
			}
			return r.amm.SwapExactTokensForTokens(ctx, tx, r.address, amountForSwap, minAmountOut, path, r.address, deadline)
		},
	})
}

// tokenPath routes through WETH unless one side already is WETH
func (r *feeSwapRouter) tokenPath(tokenIn, tokenOut common.Address) []common.Address {
	weth := r.amm.WETH()
	if tokenIn == weth || tokenOut == weth {
		return []common.Address{tokenIn, tokenOut}
	}
	return []common.Address{tokenIn, weth, tokenOut}
}

func (r *feeSwapRouter) execute(ctx context.Context, caller common.Address, amountIn, minAmountOut *big.Int, deadline time.Time, leg swapLeg) (*SwapResult, error) {
	ctx, release, err := r.enter(ctx)
	if err != nil {
		return nil, err
	}

	result, err := r.executeLocked(ctx, caller, amountIn, minAmountOut, deadline, leg)
	release()
	if err != nil {
		return nil, err
	}

	if err := r.hooks.OnSwapExecuted(result.Record.Event()); err != nil {
		log.Printf("swap %s committed but a subscriber failed: %v", result.Record.EventID, err)
	}
	return result, nil
}

func (r *feeSwapRouter) executeLocked(ctx context.Context, caller common.Address, amountIn, minAmountOut *big.Int, deadline time.Time, leg swapLeg) (*SwapResult, error) {
	now := r.clock.now()
	if now.After(deadline) {
		return nil, ErrExpired
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	if caller == (common.Address{}) {
		return nil, fmt.Errorf("%w: caller is the zero address", ErrInvalidAddress)
	}
	if minAmountOut == nil {
		minAmountOut = new(big.Int)
	}

	var result *SwapResult
	err := r.ledger.Update(ctx, func(tx *gorm.DB) error {
		cfg, err := r.loadFeeConfig(tx)
		if err != nil {
			return err
		}

		if err := leg.pull(tx); err != nil {
			return err
		}

		fee := quote.Fee(amountIn, cfg.FeeBasisPoints)
		amountForSwap := new(big.Int).Sub(amountIn, fee)
		if err := r.ledger.Transfer(tx, leg.tokenIn, r.address, common.HexToAddress(cfg.FeeRecipient), fee); err != nil {
			return fmt.Errorf("failed to pay fee: %w", err)
		}

		amounts, err := leg.forward(ctx, tx, amountForSwap)
		if err != nil {
			return err
		}
		amountOut := amounts[len(amounts)-1]
		if amountOut.Cmp(minAmountOut) < 0 {
			return fmt.Errorf("%w: received %s, minimum is %s", ErrInsufficientOutput, amountOut, minAmountOut)
		}

		if err := r.ledger.Transfer(tx, leg.tokenOut, r.address, caller, amountOut); err != nil {
			return fmt.Errorf("failed to pay out swap: %w", err)
		}

		record, eventLog, err := r.appendRecord(tx, caller, leg, amountIn, amountOut, fee, now)
		if err != nil {
			return err
		}

		result = &SwapResult{
			Record:        *record,
			AmountForSwap: amountForSwap,
			Path:          leg.path,
			Log:           eventLog,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ensureAMMAllowance approves the AMM router for the maximum amount when the current allowance is short
func (r *feeSwapRouter) ensureAMMAllowance(tx *gorm.DB, token common.Address, amount *big.Int) error {
	allowance, err := r.ledger.Allowance(tx, r.address, r.amm.Address(), token)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) >= 0 {
		return nil
	}
	return r.ledger.Approve(tx, r.address, r.amm.Address(), token, constants.MaxUint256)
}

func (r *feeSwapRouter) appendRecord(tx *gorm.DB, user common.Address, leg swapLeg, amountIn, amountOut, fee *big.Int, now time.Time) (*models.SwapRecord, *types.Log, error) {
	var index int64
	if err := tx.Model(&models.SwapRecord{}).Where("user_address = ?", user.Hex()).Count(&index).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count user transactions: %w", err)
	}

	eventLog, err := utils.EncodeSwapExecutedLog(r.address, utils.SwapExecutedLog{
		User:      user,
		TokenIn:   leg.tokenIn,
		TokenOut:  leg.tokenOut,
		AmountIn:  amountIn,
		AmountOut: amountOut,
		FeeAmount: fee,
	})
	if err != nil {
		return nil, nil, err
	}

	record := &models.SwapRecord{
		EventID:   uuid.New().String(),
		User:      user.Hex(),
		UserIndex: uint64(index),
		Kind:      leg.kind,
		TokenIn:   leg.tokenIn.Hex(),
		TokenOut:  leg.tokenOut.Hex(),
		AmountIn:  models.NewBigInt(amountIn),
		AmountOut: models.NewBigInt(amountOut),
		FeeAmount: models.NewBigInt(fee),
		LogHash:   utils.LogHash(eventLog).Hex(),
		Timestamp: now,
	}
	if err := tx.Create(record).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to append swap record: %w", err)
	}
	return record, eventLog, nil
}

// GetUserTransactionCount never fails; store errors are logged and read as an empty log
func (r *feeSwapRouter) GetUserTransactionCount(ctx context.Context, user common.Address) uint64 {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SwapRecord{}).Where("user_address = ?", user.Hex()).Count(&count).Error; err != nil {
		log.Printf("failed to count transactions of %s: %v", user.Hex(), err)
		return 0
	}
	return uint64(count)
}

// GetUserTransactions returns up to count records starting at start, in execution order.
// start beyond the end of the log is ErrOutOfRange; start equal to the log length yields an empty page.
func (r *feeSwapRouter) GetUserTransactions(ctx context.Context, user common.Address, start, count uint64) ([]models.SwapRecord, error) {
	total := r.GetUserTransactionCount(ctx, user)
	if start > total {
		return nil, fmt.Errorf("%w: start %d exceeds %d transactions", ErrOutOfRange, start, total)
	}

	size := count
	if remaining := total - start; size > remaining {
		size = remaining
	}
	records := make([]models.SwapRecord, 0, size)
	if size == 0 {
		return records, nil
	}

	err := r.db.WithContext(ctx).
		Where("user_address = ? AND user_index >= ? AND user_index < ?", user.Hex(), start, start+size).
		Order("user_index").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return records, nil
}

// TotalFeesPaid sums the fees a user has paid, per input token
func (r *feeSwapRouter) TotalFeesPaid(ctx context.Context, user common.Address) (map[common.Address]*big.Int, error) {
	var records []models.SwapRecord
	if err := r.db.WithContext(ctx).Select("token_in", "fee_amount").Where("user_address = ?", user.Hex()).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	totals := make(map[common.Address]*big.Int)
	for _, record := range records {
		token := common.HexToAddress(record.TokenIn)
		if _, ok := totals[token]; !ok {
			totals[token] = new(big.Int)
		}
		totals[token].Add(totals[token], record.FeeAmount.Big())
	}
	return totals, nil
}

func (r *feeSwapRouter) GetFeeConfig(ctx context.Context) (*models.FeeConfig, error) {
	return r.loadFeeConfig(r.db.WithContext(ctx))
}

func (r *feeSwapRouter) SetFeeRecipient(ctx context.Context, caller, recipient common.Address) (*models.FeeConfig, error) {
	if recipient == (common.Address{}) {
		return nil, fmt.Errorf("%w: fee recipient cannot be the zero address", ErrInvalidAddress)
	}
	return r.updateFeeConfig(ctx, caller, func(cfg *models.FeeConfig) {
		cfg.FeeRecipient = recipient.Hex()
	})
}

func (r *feeSwapRouter) TransferOwnership(ctx context.Context, caller, newOwner common.Address) (*models.FeeConfig, error) {
	if newOwner == (common.Address{}) {
		return nil, fmt.Errorf("%w: new owner cannot be the zero address", ErrInvalidAddress)
	}
	return r.updateFeeConfig(ctx, caller, func(cfg *models.FeeConfig) {
		cfg.Owner = newOwner.Hex()
	})
}

func (r *feeSwapRouter) updateFeeConfig(ctx context.Context, caller common.Address, apply func(cfg *models.FeeConfig)) (*models.FeeConfig, error) {
	ctx, release, err := r.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var updated *models.FeeConfig
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cfg, err := r.loadFeeConfig(tx)
		if err != nil {
			return err
		}
		if common.HexToAddress(cfg.Owner) != caller {
			return fmt.Errorf("%w: %s is not the owner", ErrNotOwner, caller.Hex())
		}
		apply(cfg)
		if err := tx.Save(cfg).Error; err != nil {
			return fmt.Errorf("failed to save fee config: %w", err)
		}
		updated = cfg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *feeSwapRouter) loadFeeConfig(db *gorm.DB) (*models.FeeConfig, error) {
	var cfg models.FeeConfig
	err := db.Order("id").First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFeeConfigNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load fee config: %w", err)
	}
	return &cfg, nil
}
