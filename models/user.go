package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model

	UserCode string          `gorm:"uniqueIndex;size:32" json:"user_code"`
	AgentID  *uint           `gorm:"index" json:"agent_id"`
	Balance  decimal.Decimal `gorm:"type:numeric(18,2);default:0" json:"balance"`
	IsActive bool            `gorm:"default:true" json:"is_active"`
}
