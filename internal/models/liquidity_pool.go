package models

import "time"

// LiquidityPool registers a constant-product pair of the local AMM.
// Reserves are the pair address's ledger balances.
type LiquidityPool struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PairAddress string    `gorm:"not null;uniqueIndex;type:varchar(42)" json:"pair_address"`
	Token0      string    `gorm:"not null;type:varchar(42)" json:"token0"`
	Token1      string    `gorm:"not null;type:varchar(42)" json:"token1"`
	CreatedAt   time.Time `json:"created_at"`
}
