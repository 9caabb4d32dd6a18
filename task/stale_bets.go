package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"matka/models"
)

type StaleBets struct {
	Market   string
	DrawDate string
	Count    int64
}

// ReportStaleBets finds bets from earlier days that are still placed, which
// means the market's close was never declared for that day. Nothing is
// modified; each group is logged for an operator to settle by hand.
func ReportStaleBets(ctx context.Context, db *gorm.DB, log *zap.Logger, now time.Time) ([]StaleBets, error) {
	today := now.Format(time.DateOnly)

	var rows []StaleBets
	result := db.WithContext(ctx).Model(&models.Bet{}).
		Select("market, draw_date, count(*) as count").
		Where("status = ? AND draw_date < ?", models.BetPlaced, today).
		Group("market, draw_date").
		Order("draw_date, market").
		Scan(&rows)
	if result.Error != nil {
		log.Error("failed to count stale bets", zap.Error(result.Error))
		return nil, result.Error
	}

	for _, r := range rows {
		log.Warn("bets still placed after their draw day",
			zap.String("market", r.Market),
			zap.String("draw_date", r.DrawDate),
			zap.Int64("count", r.Count),
		)
	}
	log.Info("stale bet check completed", zap.String("before", today), zap.Int("groups", len(rows)))
	return rows, nil
}
