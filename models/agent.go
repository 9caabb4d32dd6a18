package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Agent struct {
	gorm.Model

	Username  string          `gorm:"uniqueIndex;size:32" json:"username"`
	AgentCode string          `gorm:"uniqueIndex;size:32" json:"agent_code"`
	Balance   decimal.Decimal `gorm:"type:numeric(18,2);default:0" json:"balance"`
	IsActive  bool            `gorm:"default:true" json:"is_active"`

	Users []User `gorm:"foreignKey:AgentID"`
}
