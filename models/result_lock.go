package models

import "gorm.io/gorm"

// ResultLock records which slots of a market were settled on a calendar day.
type ResultLock struct {
	gorm.Model

	Market          string     `gorm:"size:64;uniqueIndex:uk_lock_market_day" json:"market"`
	Day             string     `gorm:"size:10;uniqueIndex:uk_lock_market_day" json:"day"`
	OpenDeclared    bool       `gorm:"default:false" json:"open_declared"`
	CloseDeclared   bool       `gorm:"default:false" json:"close_declared"`
	OpenProvenance  Provenance `gorm:"size:10" json:"open_provenance"`
	CloseProvenance Provenance `gorm:"size:10" json:"close_provenance"`
	ManualOverride  bool       `gorm:"default:false" json:"manual_override"`
	CommissionPaid  bool       `gorm:"default:false" json:"commission_paid"`
}

func (l *ResultLock) Declared(slot Slot) (bool, Provenance) {
	if slot == SlotOpen {
		return l.OpenDeclared, l.OpenProvenance
	}
	return l.CloseDeclared, l.CloseProvenance
}

func (l *ResultLock) MarkDeclared(slot Slot, p Provenance) {
	if slot == SlotOpen {
		l.OpenDeclared = true
		l.OpenProvenance = p
	} else {
		l.CloseDeclared = true
		l.CloseProvenance = p
	}
	if p == ProvenanceManual {
		l.ManualOverride = true
	}
}
