package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Slot string

const (
	SlotOpen  Slot = "open"
	SlotClose Slot = "close"
)

func (s Slot) Valid() bool {
	return s == SlotOpen || s == SlotClose
}

type BetCategory string

const (
	CategorySingleDigit      BetCategory = "single_digit"
	CategoryJodi             BetCategory = "jodi"
	CategorySinglePanna      BetCategory = "single_panna"
	CategoryDoublePanna      BetCategory = "double_panna"
	CategoryTriplePanna      BetCategory = "triple_panna"
	CategoryHalfSangam       BetCategory = "half_sangam"
	CategoryFullSangam       BetCategory = "full_sangam"
	CategoryContinuousSingle BetCategory = "continuous_single"
)

// BetCategories lists every category a bet can be placed in.
func BetCategories() []BetCategory {
	return []BetCategory{
		CategorySingleDigit,
		CategoryJodi,
		CategorySinglePanna,
		CategoryDoublePanna,
		CategoryTriplePanna,
		CategoryHalfSangam,
		CategoryFullSangam,
		CategoryContinuousSingle,
	}
}

type BetStatus string

const (
	BetPlaced BetStatus = "placed"
	BetWon    BetStatus = "won"
	BetLost   BetStatus = "lost"
)

// Bet is created at placement with status placed and moved exactly once to
// won or lost by settlement.
type Bet struct {
	gorm.Model

	UserID    uint             `gorm:"index" json:"user_id"`
	AgentID   *uint            `gorm:"index" json:"agent_id"`
	Market    string           `gorm:"size:64;index:idx_bet_market_day_status" json:"market"`
	DrawDate  string           `gorm:"size:10;index:idx_bet_market_day_status" json:"draw_date"`
	Category  BetCategory      `gorm:"size:32" json:"category"`
	Slot      Slot             `gorm:"size:8" json:"slot"`
	Digits    string           `gorm:"size:16" json:"digits"`
	Stake     decimal.Decimal  `gorm:"type:numeric(18,2)" json:"stake"`
	Status    BetStatus        `gorm:"size:8;index:idx_bet_market_day_status;default:placed" json:"status"`
	Payout    *decimal.Decimal `gorm:"type:numeric(18,2)" json:"payout"`
	SettledAt *time.Time       `json:"settled_at"`
}
