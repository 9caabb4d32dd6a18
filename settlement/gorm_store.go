package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"matka/models"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

func (s *GormStore) Markets(ctx context.Context) ([]models.Market, error) {
	var list []models.Market
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *GormStore) Market(ctx context.Context, name string) (*models.Market, error) {
	var m models.Market
	if err := s.db.WithContext(ctx).Where("name = ? AND is_active = ?", name, true).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMarket, name)
		}
		return nil, err
	}
	return &m, nil
}

func (s *GormStore) CurrentResults(ctx context.Context) ([]models.Result, error) {
	var list []models.Result
	if err := s.db.WithContext(ctx).Order("market").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *GormStore) CurrentResult(ctx context.Context, market string) (*models.Result, error) {
	var r models.Result
	if err := s.db.WithContext(ctx).Where("market = ?", market).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMarket, market)
		}
		return nil, err
	}
	return &r, nil
}

func (s *GormStore) ResultHistory(ctx context.Context, market string, limit int) ([]models.ResultHistory, error) {
	if limit <= 0 || limit > 365 {
		limit = 30
	}
	var list []models.ResultHistory
	if err := s.db.WithContext(ctx).
		Where("market = ?", market).
		Order("day DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *GormStore) ResultLock(ctx context.Context, market, day string) (*models.ResultLock, error) {
	var l models.ResultLock
	err := s.db.WithContext(ctx).Where("market = ? AND day = ?", market, day).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) LockResult(ctx context.Context, market, day string) (*models.ResultLock, error) {
	seed := models.ResultLock{Market: market, Day: day}
	if err := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "market"}, {Name: "day"}},
			DoNothing: true,
		}).
		Create(&seed).Error; err != nil {
		return nil, err
	}

	var lock models.ResultLock
	if err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("market = ? AND day = ?", market, day).
		First(&lock).Error; err != nil {
		return nil, err
	}
	return &lock, nil
}

func (t *gormTx) SaveResultLock(ctx context.Context, lock *models.ResultLock) error {
	return t.db.WithContext(ctx).Save(lock).Error
}

func (t *gormTx) LoadResult(ctx context.Context, market string) (*models.Result, error) {
	var r models.Result
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("market = ?", market).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (t *gormTx) SaveResult(ctx context.Context, r *models.Result) error {
	return t.db.WithContext(ctx).Save(r).Error
}

func (t *gormTx) UpsertHistory(ctx context.Context, h *models.ResultHistory) error {
	var existing models.ResultHistory
	err := t.db.WithContext(ctx).Where("market = ? AND day = ?", h.Market, h.Day).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return t.db.WithContext(ctx).Create(h).Error
	case err != nil:
		return err
	}
	h.ID = existing.ID
	h.CreatedAt = existing.CreatedAt
	h.DeclarationID = existing.DeclarationID
	return t.db.WithContext(ctx).Save(h).Error
}

func (t *gormTx) PlacedBets(ctx context.Context, market, day string) ([]models.Bet, error) {
	var bets []models.Bet
	if err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("market = ? AND draw_date = ? AND status = ?", market, day, models.BetPlaced).
		Order("id").
		Find(&bets).Error; err != nil {
		return nil, err
	}
	return bets, nil
}

func (t *gormTx) MarkBetWon(ctx context.Context, betID uint, payout decimal.Decimal) (bool, error) {
	now := time.Now()
	res := t.db.WithContext(ctx).Model(&models.Bet{}).
		Where("id = ? AND status = ?", betID, models.BetPlaced).
		Updates(map[string]any{
			"status":     models.BetWon,
			"payout":     payout,
			"settled_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (t *gormTx) MarkPlacedLost(ctx context.Context, market, day string) (int64, error) {
	res := t.db.WithContext(ctx).Model(&models.Bet{}).
		Where("market = ? AND draw_date = ? AND status = ?", market, day, models.BetPlaced).
		Updates(map[string]any{
			"status":     models.BetLost,
			"payout":     decimal.Zero,
			"settled_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

func (t *gormTx) BetsForDay(ctx context.Context, market, day string) ([]models.Bet, error) {
	var bets []models.Bet
	if err := t.db.WithContext(ctx).
		Where("market = ? AND draw_date = ?", market, day).
		Order("id").
		Find(&bets).Error; err != nil {
		return nil, err
	}
	return bets, nil
}

func (t *gormTx) Credit(ctx context.Context, acct Account, amount decimal.Decimal) (Balance, error) {
	switch acct.Kind {
	case models.AccountUser:
		var user models.User
		if err := t.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, acct.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return Balance{}, fmt.Errorf("user %d not found", acct.ID)
			}
			return Balance{}, err
		}
		bal := Balance{Before: user.Balance, After: user.Balance.Add(amount)}
		if err := t.db.WithContext(ctx).Model(&user).Update("balance", bal.After).Error; err != nil {
			return Balance{}, err
		}
		return bal, nil
	case models.AccountAgent:
		var agent models.Agent
		if err := t.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND is_active = ?", acct.ID, true).First(&agent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return Balance{}, fmt.Errorf("%w: %d", ErrAgentNotFound, acct.ID)
			}
			return Balance{}, err
		}
		bal := Balance{Before: agent.Balance, After: agent.Balance.Add(amount)}
		if err := t.db.WithContext(ctx).Model(&agent).Update("balance", bal.After).Error; err != nil {
			return Balance{}, err
		}
		return bal, nil
	}
	return Balance{}, fmt.Errorf("unknown account kind %q", acct.Kind)
}

func (t *gormTx) AppendLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return t.db.WithContext(ctx).Create(entry).Error
}
