package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AccountKind string

const (
	AccountUser  AccountKind = "user"
	AccountAgent AccountKind = "agent"
)

type EntryType string

const (
	EntryWin        EntryType = "WIN"
	EntryCommission EntryType = "COMMISSION"
)

// LedgerEntry is an immutable wallet movement produced by settlement.
// WIN entries reference the winning bet; COMMISSION entries carry the
// referred volume in Meta.
type LedgerEntry struct {
	gorm.Model

	EntryType     EntryType       `gorm:"size:16;index" json:"entry_type"`
	AccountKind   AccountKind     `gorm:"size:8;index:idx_ledger_account" json:"account_kind"`
	AccountID     uint            `gorm:"index:idx_ledger_account" json:"account_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(18,2)" json:"amount"`
	BalanceBefore decimal.Decimal `gorm:"type:numeric(18,2)" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(18,2)" json:"balance_after"`
	Market        string          `gorm:"size:64;index:idx_ledger_market_day" json:"market"`
	DrawDate      string          `gorm:"size:10;index:idx_ledger_market_day" json:"draw_date"`
	Slot          Slot            `gorm:"size:8" json:"slot"`
	BetID         *uint           `gorm:"index" json:"bet_id"`
	RefID         string          `gorm:"size:64;uniqueIndex" json:"ref_id"`
	Meta          datatypes.JSON  `gorm:"type:jsonb" json:"meta"`
}
