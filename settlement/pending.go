package settlement

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"matka/models"
)

// EnsurePending makes sure every market has a result row for today. Rows left
// over from a previous day are reset to pending; rows already dated today are
// left alone. It returns how many rows were created or reset.
func (e *Engine) EnsurePending(ctx context.Context) (int, error) {
	markets, err := e.store.Markets(ctx)
	if err != nil {
		return 0, fmt.Errorf("list markets: %w", err)
	}
	now := e.Now()
	day := now.Format(time.DateOnly)

	reset := 0
	for _, m := range markets {
		changed := false
		err := e.store.WithinTx(ctx, func(tx Tx) error {
			r, err := tx.LoadResult(ctx, m.Name)
			if err != nil {
				return err
			}
			if r != nil && r.DrawDate == day {
				return nil
			}
			if r == nil {
				r = &models.Result{Market: m.Name}
			}
			r.ResetPending(now)
			changed = true
			return tx.SaveResult(ctx, r)
		})
		if err != nil {
			return reset, fmt.Errorf("reset %s: %w", m.Name, err)
		}
		if changed {
			reset++
			e.log.Debug("result reset to pending", zap.String("market", m.Name), zap.String("day", day))
		}
	}
	return reset, nil
}
