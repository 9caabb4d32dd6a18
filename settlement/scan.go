package settlement

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"matka/models"
)

// scanWinners pays every placed bet that the declared slot resolves as a win.
// Bets that do not match stay placed; only the close sweep marks them lost.
func (e *Engine) scanWinners(ctx context.Context, tx Tx, market, day string, ref drawReference, out *Outcome) error {
	bets, err := tx.PlacedBets(ctx, market, day)
	if err != nil {
		return fmt.Errorf("load placed bets: %w", err)
	}
	for i := range bets {
		bet := bets[i]
		r, err := ruleFor(bet.Category)
		if err != nil {
			return fmt.Errorf("bet %d: %w", bet.ID, err)
		}
		if !r.appliesTo(&bet, ref.Slot) || !r.wins(&bet, ref) {
			continue
		}

		rate, err := e.rates.RateFor(ctx, bet.Category)
		if err != nil {
			return fmt.Errorf("rate for %s: %w", bet.Category, err)
		}
		payout := bet.Stake.Mul(rate).Round(2)

		won, err := tx.MarkBetWon(ctx, bet.ID, payout)
		if err != nil {
			return fmt.Errorf("mark bet %d won: %w", bet.ID, err)
		}
		if !won {
			continue
		}

		bal, err := tx.Credit(ctx, Account{Kind: models.AccountUser, ID: bet.UserID}, payout)
		if err != nil {
			return fmt.Errorf("credit user %d: %w", bet.UserID, err)
		}
		betID := bet.ID
		meta, _ := json.Marshal(map[string]any{
			"category": bet.Category,
			"digits":   bet.Digits,
			"stake":    bet.Stake.String(),
			"rate":     rate.String(),
		})
		if err := tx.AppendLedgerEntry(ctx, &models.LedgerEntry{
			EntryType:     models.EntryWin,
			AccountKind:   models.AccountUser,
			AccountID:     bet.UserID,
			Amount:        payout,
			BalanceBefore: bal.Before,
			BalanceAfter:  bal.After,
			Market:        market,
			DrawDate:      day,
			Slot:          ref.Slot,
			BetID:         &betID,
			RefID:         uuid.NewString(),
			Meta:          datatypes.JSON(meta),
		}); err != nil {
			return fmt.Errorf("ledger win for bet %d: %w", bet.ID, err)
		}

		out.Winners++
		out.PayoutTotal = out.PayoutTotal.Add(payout)
	}
	return nil
}
