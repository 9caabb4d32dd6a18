package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const SettingCommissionFraction = "agent_commission_fraction"

type GameRate struct {
	gorm.Model

	Category   BetCategory     `gorm:"uniqueIndex;size:32" json:"category"`
	Multiplier decimal.Decimal `gorm:"type:numeric(10,2)" json:"multiplier"`
}

type Setting struct {
	gorm.Model

	Key   string `gorm:"uniqueIndex;size:64" json:"key"`
	Value string `gorm:"size:255" json:"value"`
}
