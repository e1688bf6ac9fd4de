package models

import "time"

// Token is a token registry entry for one chain
type Token struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	ChainID   uint64    `gorm:"not null;uniqueIndex:idx_token_chain_address;uniqueIndex:idx_token_chain_symbol" json:"chain_id"`
	Address   string    `gorm:"not null;uniqueIndex:idx_token_chain_address;type:varchar(42)" json:"address"`
	Symbol    string    `gorm:"not null;uniqueIndex:idx_token_chain_symbol" json:"symbol"`
	Name      string    `json:"name"`
	Decimals  uint8     `gorm:"not null" json:"decimals"`
	CreatedAt time.Time `json:"created_at"`
}
