package models

import "gorm.io/gorm"

// Market is a game in the catalog. Markets without open and close times are
// continuously open and are never declared by the scheduler.
type Market struct {
	gorm.Model

	Name      string  `gorm:"uniqueIndex;size:64" json:"name"`
	OpenTime  *string `gorm:"size:5" json:"open_time"`
	CloseTime *string `gorm:"size:5" json:"close_time"`
	IsActive  bool    `gorm:"default:true" json:"is_active"`
}

func (m Market) IsContinuous() bool {
	return m.OpenTime == nil && m.CloseTime == nil
}

// SlotsAt returns the slots scheduled at the given HH:MM clock reading.
func (m Market) SlotsAt(clock string) []Slot {
	var slots []Slot
	if m.OpenTime != nil && *m.OpenTime == clock {
		slots = append(slots, SlotOpen)
	}
	if m.CloseTime != nil && *m.CloseTime == clock {
		slots = append(slots, SlotClose)
	}
	return slots
}
