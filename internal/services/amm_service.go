package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rxtech-lab/swapit-router/internal/models"
	"github.com/rxtech-lab/swapit-router/internal/utils"
	"gorm.io/gorm"
)

// Clock returns the current time. Services take one so tests can pin deadlines.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// Quoter is the read-only quoting side of an AMM router
type Quoter interface {
	GetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error)
}

// AMMRouter is the external Uniswap V2 style router the fee router forwards to.
// Swap calls run inside the caller's transaction and fail without side effects on the caller's
// behalf; the caller rolls back.
type AMMRouter interface {
	Quoter
	Address() common.Address
	WETH() common.Address
	SwapExactETHForTokens(ctx context.Context, tx *gorm.DB, from common.Address, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline time.Time) ([]*big.Int, error)
	SwapExactTokensForETH(ctx context.Context, tx *gorm.DB, from common.Address, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline time.Time) ([]*big.Int, error)
	SwapExactTokensForTokens(ctx context.Context, tx *gorm.DB, from common.Address, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline time.Time) ([]*big.Int, error)
	AddLiquidity(ctx context.Context, tokenA, tokenB common.Address, amountA, amountB *big.Int) (*models.LiquidityPool, error)
	GetReserves(ctx context.Context, tokenA, tokenB common.Address) (*big.Int, *big.Int, error)
	ListPools(ctx context.Context) ([]models.LiquidityPool, error)
}

type ammService struct {
	db      *gorm.DB
	ledger  LedgerService
	address common.Address
	weth    common.Address
	clock   Clock
}

// NewAMMService creates the local constant product router at address, wrapping native through weth
func NewAMMService(db *gorm.DB, ledger LedgerService, address, weth common.Address, clock Clock) AMMRouter {
	return &ammService{
		db:      db,
		ledger:  ledger,
		address: address,
		weth:    weth,
		clock:   clock,
	}
}

func (s *ammService) Address() common.Address { return s.address }

func (s *ammService) WETH() common.Address { return s.weth }

func (s *ammService) GetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	return s.getAmountsOut(s.db.WithContext(ctx), amountIn, path)
}

func (s *ammService) getAmountsOut(db *gorm.DB, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("%w: path needs at least two tokens", ErrInvalidPath)
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrZeroAmount
	}

	amounts := make([]*big.Int, len(path))
	amounts[0] = new(big.Int).Set(amountIn)
	for i := 0; i < len(path)-1; i++ {
		reserveIn, reserveOut, err := s.reserves(db, path[i], path[i+1])
		if err != nil {
			return nil, err
		}
		out, err := utils.GetAmountOut(amounts[i], reserveIn, reserveOut)
		if err != nil {
			if errors.Is(err, utils.ErrInsufficientLiquidity) {
				return nil, fmt.Errorf("%w: %s/%s", ErrNoLiquidity, path[i].Hex(), path[i+1].Hex())
			}
			return nil, err
		}
		amounts[i+1] = out
	}
	return amounts, nil
}

func (s *ammService) SwapExactETHForTokens(ctx context.Context, tx *gorm.DB, from common.Address, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline time.Time) ([]*big.Int, error) {
	if err := s.ensure(deadline); err != nil {
		return nil, err
	}
	if len(path) < 2 || path[0] != s.weth {
		return nil, fmt.Errorf("%w: path must start with WETH", ErrInvalidPath)
	}

	amounts, err := s.checkedAmounts(tx, amountIn, amountOutMin, path)
	if err != nil {
		return nil, err
	}

	// wrap: native backs WETH held by the WETH contract
	if err := s.ledger.Transfer(tx, common.Address{}, from, s.weth, amountIn); err != nil {
		return nil, err
	}
	firstPair, err := utils.PairFor(path[0], path[1])
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Mint(tx, s.weth, firstPair, amountIn); err != nil {
		return nil, err
	}

	if err := s.swap(tx, amounts, path, to); err != nil {
		return nil, err
	}
	return amounts, nil
}

func (s *ammService) SwapExactTokensForETH(ctx context.Context, tx *gorm.DB, from common.Address, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline time.Time) ([]*big.Int, error) {
	if err := s.ensure(deadline); err != nil {
		return nil, err
	}
	if len(path) < 2 || path[len(path)-1] != s.weth {
		return nil, fmt.Errorf("%w: path must end with WETH", ErrInvalidPath)
	}

	amounts, err := s.checkedAmounts(tx, amountIn, amountOutMin, path)
	if err != nil {
		return nil, err
	}

	if err := s.pullInput(tx, from, amountIn, path); err != nil {
		return nil, err
	}
	if err := s.swap(tx, amounts, path, s.address); err != nil {
		return nil, err
	}

	// unwrap and pay native to the recipient
	out := amounts[len(amounts)-1]
	if err := s.ledger.Burn(tx, s.weth, s.address, out); err != nil {
		return nil, err
	}
	if err := s.ledger.Transfer(tx, common.Address{}, s.weth, to, out); err != nil {
		return nil, err
	}
	return amounts, nil
}

func (s *ammService) SwapExactTokensForTokens(ctx context.Context, tx *gorm.DB, from common.Address, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline time.Time) ([]*big.Int, error) {
	if err := s.ensure(deadline); err != nil {
		return nil, err
	}

	amounts, err := s.checkedAmounts(tx, amountIn, amountOutMin, path)
	if err != nil {
		return nil, err
	}

	if err := s.pullInput(tx, from, amountIn, path); err != nil {
		return nil, err
	}
	if err := s.swap(tx, amounts, path, to); err != nil {
		return nil, err
	}
	return amounts, nil
}

// AddLiquidity registers the pair if needed and deposits both amounts into its reserves
func (s *ammService) AddLiquidity(ctx context.Context, tokenA, tokenB common.Address, amountA, amountB *big.Int) (*models.LiquidityPool, error) {
	if amountA == nil || amountB == nil || amountA.Sign() <= 0 || amountB.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	token0, token1, err := utils.SortTokens(tokenA, tokenB)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	pair, err := utils.PairFor(tokenA, tokenB)
	if err != nil {
		return nil, err
	}

	pool := models.LiquidityPool{PairAddress: pair.Hex(), Token0: token0.Hex(), Token1: token1.Hex()}
	err = s.ledger.Update(ctx, func(tx *gorm.DB) error {
		if err := tx.Where(models.LiquidityPool{PairAddress: pair.Hex()}).FirstOrCreate(&pool).Error; err != nil {
			return fmt.Errorf("failed to register pool: %w", err)
		}
		for _, leg := range []struct {
			token  common.Address
			amount *big.Int
		}{{tokenA, amountA}, {tokenB, amountB}} {
			if err := s.ledger.Mint(tx, leg.token, pair, leg.amount); err != nil {
				return err
			}
			if leg.token == s.weth {
				if err := s.ledger.Mint(tx, common.Address{}, s.weth, leg.amount); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

func (s *ammService) GetReserves(ctx context.Context, tokenA, tokenB common.Address) (*big.Int, *big.Int, error) {
	return s.reserves(s.db.WithContext(ctx), tokenA, tokenB)
}

func (s *ammService) ListPools(ctx context.Context) ([]models.LiquidityPool, error) {
	var pools []models.LiquidityPool
	err := s.db.WithContext(ctx).Order("id").Find(&pools).Error
	return pools, err
}

func (s *ammService) reserves(db *gorm.DB, tokenA, tokenB common.Address) (*big.Int, *big.Int, error) {
	pair, err := utils.PairFor(tokenA, tokenB)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}

	var count int64
	if err := db.Model(&models.LiquidityPool{}).Where("pair_address = ?", pair.Hex()).Count(&count).Error; err != nil {
		return nil, nil, err
	}
	if count == 0 {
		return nil, nil, fmt.Errorf("%w: no pool for %s/%s", ErrNoLiquidity, tokenA.Hex(), tokenB.Hex())
	}

	reserveA, err := s.ledger.BalanceOf(db, pair, tokenA)
	if err != nil {
		return nil, nil, err
	}
	reserveB, err := s.ledger.BalanceOf(db, pair, tokenB)
	if err != nil {
		return nil, nil, err
	}
	return reserveA, reserveB, nil
}

func (s *ammService) ensure(deadline time.Time) error {
	if s.clock.now().After(deadline) {
		return ErrExpired
	}
	return nil
}

func (s *ammService) checkedAmounts(tx *gorm.DB, amountIn, amountOutMin *big.Int, path []common.Address) ([]*big.Int, error) {
	amounts, err := s.getAmountsOut(tx, amountIn, path)
	if err != nil {
		return nil, err
	}
	out := amounts[len(amounts)-1]
	if out.Sign() == 0 {
		return nil, fmt.Errorf("%w: router would return nothing", ErrInsufficientOutput)
	}
	if amountOutMin != nil && out.Cmp(amountOutMin) < 0 {
		return nil, fmt.Errorf("%w: router would return %s, minimum is %s", ErrInsufficientOutput, out, amountOutMin)
	}
	return amounts, nil
}

// pullInput moves the input token from the sender into the first pair using the router's allowance
func (s *ammService) pullInput(tx *gorm.DB, from common.Address, amountIn *big.Int, path []common.Address) error {
	firstPair, err := utils.PairFor(path[0], path[1])
	if err != nil {
		return err
	}
	return s.ledger.TransferFrom(tx, path[0], s.address, from, firstPair, amountIn)
}

// swap pays each hop's output from its pair to the next pair, and the last one to `to`
func (s *ammService) swap(tx *gorm.DB, amounts []*big.Int, path []common.Address, to common.Address) error {
	for i := 0; i < len(path)-1; i++ {
		pair, err := utils.PairFor(path[i], path[i+1])
		if err != nil {
			return err
		}
		recipient := to
		if i < len(path)-2 {
			recipient, err = utils.PairFor(path[i+1], path[i+2])
			if err != nil {
				return err
			}
		}
		if err := s.ledger.Transfer(tx, path[i+1], pair, recipient, amounts[i+1]); err != nil {
			return err
		}
	}
	return nil
}
