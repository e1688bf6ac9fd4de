package models

import "time"

// UserPreferences holds per-user trading settings
type UserPreferences struct {
	User                   string    `gorm:"column:user_address;primaryKey;type:varchar(42)" json:"user" validate:"required,eth_addr"`
	SlippageBps            uint32    `gorm:"not null" json:"slippage_bps" validate:"lte=5000"`
	DeadlineMinutes        uint32    `gorm:"not null" json:"deadline_minutes" validate:"gte=1,lte=4320"`
	ExpertMode             bool      `json:"expert_mode"`
	AutoApproveTokens      bool      `json:"auto_approve_tokens"`
	ShowPriceImpactWarning bool      `json:"show_price_impact_warning"`
	Watchlist              []string  `gorm:"serializer:json" json:"watchlist" validate:"dive,required"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// Deadline returns the swap deadline for a request submitted at now
func (p UserPreferences) Deadline(now time.Time) time.Time {
	return now.Add(time.Duration(p.DeadlineMinutes) * time.Minute)
}
