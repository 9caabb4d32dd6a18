package settlement

import (
	"fmt"

	"matka/models"
)

// resolveScope says at which declaration a bet category is evaluated.
type resolveScope int

const (
	// scopeBetSlot resolves at the slot recorded on the bet itself.
	scopeBetSlot resolveScope = iota + 1
	scopeOpenOnly
	scopeCloseOnly
)

// drawReference holds what a declaration makes known about the day.
type drawReference struct {
	Slot       models.Slot
	Panna      Panna
	Ank        string
	OpenPanna  string
	ClosePanna string
	CloseAnk   string
	Jodi       string
}

type rule struct {
	scope     resolveScope
	reference func(ref drawReference) string
}

// ruleFor is the single dispatch point for bet categories. Adding a category to
// models.BetCategories without a case here fails TestEveryCategoryHasRule and
// aborts any declaration that meets such a bet.
func ruleFor(c models.BetCategory) (rule, error) {
	switch c {
	case models.CategorySingleDigit:
		return rule{scope: scopeBetSlot, reference: slotAnk}, nil
	case models.CategorySinglePanna, models.CategoryDoublePanna, models.CategoryTriplePanna:
		return rule{scope: scopeBetSlot, reference: slotPanna}, nil
	case models.CategoryContinuousSingle:
		return rule{scope: scopeOpenOnly, reference: slotAnk}, nil
	case models.CategoryJodi:
		return rule{scope: scopeCloseOnly, reference: func(ref drawReference) string { return ref.Jodi }}, nil
	case models.CategoryHalfSangam:
		return rule{scope: scopeCloseOnly, reference: func(ref drawReference) string {
			return ref.OpenPanna + "-" + ref.CloseAnk
		}}, nil
	case models.CategoryFullSangam:
		return rule{scope: scopeCloseOnly, reference: func(ref drawReference) string {
			return ref.OpenPanna + "-" + ref.ClosePanna
		}}, nil
	}
	return rule{}, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
}

func slotAnk(ref drawReference) string   { return ref.Ank }
func slotPanna(ref drawReference) string { return ref.Panna.String() }

// appliesTo reports whether a bet is evaluated by the declaration of slot.
func (r rule) appliesTo(bet *models.Bet, slot models.Slot) bool {
	switch r.scope {
	case scopeBetSlot:
		return bet.Slot == slot
	case scopeOpenOnly:
		return slot == models.SlotOpen
	case scopeCloseOnly:
		return slot == models.SlotClose
	}
	return false
}

func (r rule) wins(bet *models.Bet, ref drawReference) bool {
	return bet.Digits == r.reference(ref)
}
