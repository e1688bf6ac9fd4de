package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rxtech-lab/swapit-router/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerService is the off-chain custody of token balances and allowances.
// Mutating calls take the gorm handle of a transaction opened by Update; nil runs the call in its own Update.
type LedgerService interface {
	Update(ctx context.Context, fn func(tx *gorm.DB) error) error
	BalanceOf(tx *gorm.DB, holder, token common.Address) (*big.Int, error)
	Balances(holder common.Address) ([]models.TokenBalance, error)
	Allowance(tx *gorm.DB, owner, spender, token common.Address) (*big.Int, error)
	Approve(tx *gorm.DB, owner, spender, token common.Address, amount *big.Int) error
	Transfer(tx *gorm.DB, token, from, to common.Address, amount *big.Int) error
	TransferFrom(tx *gorm.DB, token, spender, from, to common.Address, amount *big.Int) error
	Mint(tx *gorm.DB, token, to common.Address, amount *big.Int) error
	Burn(tx *gorm.DB, token, from common.Address, amount *big.Int) error
}

type ledgerService struct {
	db *gorm.DB

	// mu is the single writer lock of this process; row locks cover writers in other processes
	mu sync.Mutex
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(db *gorm.DB) LedgerService {
	return &ledgerService{db: db}
}

func (s *ledgerService) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// Update runs fn in one transaction while holding the writer lock.
// fn must pass tx to every ledger call; a nil handle inside fn would wait on the lock it already holds.
func (s *ledgerService) Update(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.WithContext(ctx).Transaction(fn)
}

// write runs fn on tx, or in a fresh Update when the caller holds no transaction
func (s *ledgerService) write(tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return s.Update(context.Background(), fn)
}

// forUpdate locks the selected rows until the transaction ends. SQLite ignores the clause and
// serializes writers through immediate transactions instead.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (s *ledgerService) BalanceOf(tx *gorm.DB, holder, token common.Address) (*big.Int, error) {
	row, err := s.loadBalance(s.conn(tx), holder, token)
	if err != nil {
		return nil, err
	}
	return row.Amount.Big(), nil
}

// Balances lists every non-empty balance of holder
func (s *ledgerService) Balances(holder common.Address) ([]models.TokenBalance, error) {
	var rows []models.TokenBalance
	if err := s.db.Where("holder = ?", holder.Hex()).Order("token").Find(&rows).Error; err != nil {
		return nil, err
	}

	balances := make([]models.TokenBalance, 0, len(rows))
	for _, row := range rows {
		if row.Amount.Big().Sign() > 0 {
			balances = append(balances, row)
		}
	}
	return balances, nil
}

func (s *ledgerService) Allowance(tx *gorm.DB, owner, spender, token common.Address) (*big.Int, error) {
	row, err := s.loadAllowance(s.conn(tx), owner, spender, token)
	if err != nil {
		return nil, err
	}
	return row.Amount.Big(), nil
}

func (s *ledgerService) Approve(tx *gorm.DB, owner, spender, token common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("approve: invalid amount")
	}
	return s.write(tx, func(db *gorm.DB) error {
		row, err := s.loadAllowance(forUpdate(db), owner, spender, token)
		if err != nil {
			return err
		}
		row.Amount = models.NewBigInt(amount)
		return db.Save(row).Error
	})
}

func (s *ledgerService) Transfer(tx *gorm.DB, token, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("transfer: invalid amount")
	}
	if amount.Sign() == 0 {
		return nil
	}
	return s.write(tx, func(db *gorm.DB) error {
		if err := s.debit(db, from, token, amount); err != nil {
			return err
		}
		return s.credit(db, to, token, amount)
	})
}

// TransferFrom moves amount from `from` to `to` on behalf of spender, consuming allowance
func (s *ledgerService) TransferFrom(tx *gorm.DB, token, spender, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("transferFrom: invalid amount")
	}
	return s.write(tx, func(db *gorm.DB) error {
		allowance, err := s.loadAllowance(forUpdate(db), from, spender, token)
		if err != nil {
			return err
		}
		current := allowance.Amount.Big()
		if current.Cmp(amount) < 0 {
			return fmt.Errorf("%w: %s allowed, %s requested", ErrInsufficientAllowance, current, amount)
		}
		allowance.Amount = models.NewBigInt(current.Sub(current, amount))
		if err := db.Save(allowance).Error; err != nil {
			return err
		}
		return s.Transfer(db, token, from, to, amount)
	})
}

// Mint credits amount out of thin air (deposits, faucets, wrapping)
func (s *ledgerService) Mint(tx *gorm.DB, token, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("mint: invalid amount")
	}
	return s.write(tx, func(db *gorm.DB) error {
		return s.credit(db, to, token, amount)
	})
}

func (s *ledgerService) Burn(tx *gorm.DB, token, from common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("burn: invalid amount")
	}
	return s.write(tx, func(db *gorm.DB) error {
		return s.debit(db, from, token, amount)
	})
}

func (s *ledgerService) debit(db *gorm.DB, holder, token common.Address, amount *big.Int) error {
	row, err := s.loadBalance(forUpdate(db), holder, token)
	if err != nil {
		return err
	}
	current := row.Amount.Big()
	if current.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s of %s, needs %s", ErrInsufficientBalance, holder.Hex(), current, token.Hex(), amount)
	}
	row.Amount = models.NewBigInt(current.Sub(current, amount))
	return db.Save(row).Error
}

func (s *ledgerService) credit(db *gorm.DB, holder, token common.Address, amount *big.Int) error {
	row, err := s.loadBalance(forUpdate(db), holder, token)
	if err != nil {
		return err
	}
	current := row.Amount.Big()
	row.Amount = models.NewBigInt(current.Add(current, amount))
	return db.Save(row).Error
}

func (s *ledgerService) loadBalance(db *gorm.DB, holder, token common.Address) (*models.TokenBalance, error) {
	var row models.TokenBalance
	err := db.Where("holder = ? AND token = ?", holder.Hex(), token.Hex()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.TokenBalance{Holder: holder.Hex(), Token: token.Hex(), Amount: models.NewBigInt(nil)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load balance: %w", err)
	}
	return &row, nil
}

func (s *ledgerService) loadAllowance(db *gorm.DB, owner, spender, token common.Address) (*models.TokenAllowance, error) {
	var row models.TokenAllowance
	err := db.Where("owner = ? AND spender = ? AND token = ?", owner.Hex(), spender.Hex(), token.Hex()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.TokenAllowance{Owner: owner.Hex(), Spender: spender.Hex(), Token: token.Hex(), Amount: models.NewBigInt(nil)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load allowance: %w", err)
	}
	return &row, nil
}
