package models

import "time"

type AlertDirection string

const (
	AlertDirectionAbove AlertDirection = "above"
	AlertDirectionBelow AlertDirection = "below"
)

// PriceAlert fires once when a token's USD price crosses TargetPrice
type PriceAlert struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	User        string         `gorm:"column:user_address;not null;index;type:varchar(42)" json:"user"`
	TokenSymbol string         `gorm:"not null" json:"token_symbol"`
	TargetPrice float64        `gorm:"not null" json:"target_price"`
	Direction   AlertDirection `gorm:"not null" json:"direction"`
	Triggered   bool           `gorm:"default:false" json:"triggered"`
	TriggeredAt *time.Time     `json:"triggered_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Crossed reports whether price satisfies the alert condition
func (a PriceAlert) Crossed(price float64) bool {
	switch a.Direction {
	case AlertDirectionAbove:
		return price >= a.TargetPrice
	case AlertDirectionBelow:
		return price <= a.TargetPrice
	default:
		return false
	}
}
