package models

import "time"

// TokenBalance is a holder's balance of one token. The zero address denotes the native asset.
type TokenBalance struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Holder    string    `gorm:"not null;uniqueIndex:idx_balance_holder_token;type:varchar(42)" json:"holder"`
	Token     string    `gorm:"not null;uniqueIndex:idx_balance_holder_token;type:varchar(42)" json:"token"`
	Amount    BigInt    `gorm:"type:text;not null" json:"amount"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TokenAllowance is the amount spender may pull from owner
type TokenAllowance struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Owner     string    `gorm:"not null;uniqueIndex:idx_allowance;type:varchar(42)" json:"owner"`
	Spender   string    `gorm:"not null;uniqueIndex:idx_allowance;type:varchar(42)" json:"spender"`
	Token     string    `gorm:"not null;uniqueIndex:idx_allowance;type:varchar(42)" json:"token"`
	Amount    BigInt    `gorm:"type:text;not null" json:"amount"`
	UpdatedAt time.Time `json:"updated_at"`
}
