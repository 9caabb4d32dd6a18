package models

import (
	"time"

	"gorm.io/gorm"
)

type ResultStatus string

const (
	ResultPending ResultStatus = "pending"
	ResultOpen    ResultStatus = "open"
	ResultClosed  ResultStatus = "closed"
)

type Provenance string

const (
	ProvenanceManual    Provenance = "manual"
	ProvenanceAutomatic Provenance = "automatic"
)

// ResultFields is shared by the current result and its historical twin.
type ResultFields struct {
	DrawDate   string       `gorm:"size:10" json:"draw_date"`
	DrawDay    string       `gorm:"size:10" json:"draw_day"`
	OpenPanna  string       `gorm:"size:3" json:"open_panna"`
	OpenAnk    string       `gorm:"size:1" json:"open_ank"`
	ClosePanna string       `gorm:"size:3" json:"close_panna"`
	CloseAnk   string       `gorm:"size:1" json:"close_ank"`
	Jodi       string       `gorm:"size:2" json:"jodi"`
	FullResult string       `gorm:"size:12" json:"full_result"`
	Status     ResultStatus `gorm:"size:8;default:pending" json:"status"`
	Provenance Provenance   `gorm:"size:10" json:"provenance"`
}

// ResetPending clears every declared field and starts a fresh day.
func (f *ResultFields) ResetPending(day time.Time) {
	*f = ResultFields{
		DrawDate: day.Format(time.DateOnly),
		DrawDay:  day.Weekday().String(),
		Status:   ResultPending,
	}
}

// Result is the current result of a market, overwritten day after day.
type Result struct {
	gorm.Model
	ResultFields

	Market string `gorm:"uniqueIndex;size:64" json:"market"`
}

// ResultHistory keeps one row per market per draw date.
type ResultHistory struct {
	gorm.Model
	ResultFields

	DeclarationID string `gorm:"uniqueIndex;size:64" json:"declaration_id"`
	Market        string `gorm:"size:64;uniqueIndex:uk_history_market_day" json:"market"`
	Day           string `gorm:"size:10;uniqueIndex:uk_history_market_day" json:"day"`
}
