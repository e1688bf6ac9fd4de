package models

import "time"

type SwapKind string

const (
	SwapKindNativeForToken SwapKind = "native_for_token"
	SwapKindTokenForNative SwapKind = "token_for_native"
	SwapKindTokenForToken  SwapKind = "token_for_token"
)

// SwapRecord is one executed swap in a user's append-only transaction log
type SwapRecord struct {
	ID uint `gorm:"primaryKey" json:"-"`
	// EventID identifies the SwapExecuted event emitted for this record
	EventID string `gorm:"uniqueIndex;type:varchar(36)" json:"event_id"`
	// User and UserIndex locate the record inside the user's log (UserIndex is 0-based)
	User      string   `gorm:"column:user_address;not null;uniqueIndex:idx_swap_user_seq;type:varchar(42)" json:"user"`
	UserIndex uint64   `gorm:"not null;uniqueIndex:idx_swap_user_seq" json:"user_index"`
	Kind      SwapKind `gorm:"not null" json:"kind"`
	TokenIn   string   `gorm:"not null;type:varchar(42)" json:"token_in"`
	TokenOut  string   `gorm:"not null;type:varchar(42)" json:"token_out"`
	AmountIn  BigInt   `gorm:"type:text;not null" json:"amount_in"`
	AmountOut BigInt   `gorm:"type:text;not null" json:"amount_out"`
	// FeeAmount is denominated in TokenIn units
	FeeAmount BigInt `gorm:"type:text;not null" json:"fee_amount"`
	// LogHash is the keccak hash of the encoded SwapExecuted log
	LogHash   string    `gorm:"type:varchar(66)" json:"log_hash"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
}

// FeeConfig is the router-wide fee configuration. Only the owner may change it.
type FeeConfig struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	FeeBasisPoints uint32    `gorm:"not null" json:"fee_basis_points"`
	FeeRecipient   string    `gorm:"not null;type:varchar(42)" json:"fee_recipient"`
	Owner          string    `gorm:"not null;type:varchar(42)" json:"owner"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SwapExecuted is the event announced for every successful swap
type SwapExecuted struct {
	EventID   string    `json:"event_id"`
	Kind      SwapKind  `json:"kind"`
	User      string    `json:"user"`
	TokenIn   string    `json:"token_in"`
	TokenOut  string    `json:"token_out"`
	AmountIn  BigInt    `json:"amount_in"`
	AmountOut BigInt    `json:"amount_out"`
	FeeAmount BigInt    `json:"fee_amount"`
	LogHash   string    `json:"log_hash"`
	Timestamp time.Time `json:"timestamp"`
}

// Event returns the SwapExecuted event carried by the record
func (r SwapRecord) Event() SwapExecuted {
	return SwapExecuted{
		EventID:   r.EventID,
		Kind:      r.Kind,
		User:      r.User,
		TokenIn:   r.TokenIn,
		TokenOut:  r.TokenOut,
		AmountIn:  NewBigInt(r.AmountIn.Int),
		AmountOut: NewBigInt(r.AmountOut.Int),
		FeeAmount: NewBigInt(r.FeeAmount.Int),
		LogHash:   r.LogHash,
		Timestamp: r.Timestamp,
	}
}
