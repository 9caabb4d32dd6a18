package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"matka/models"
)

// RateTable is read at settlement time; it is never written by the engine.
type RateTable interface {
	RateFor(ctx context.Context, c models.BetCategory) (decimal.Decimal, error)
	CommissionFraction(ctx context.Context) (decimal.Decimal, error)
}

// StaticRates is a fixed in-process rate table.
type StaticRates struct {
	Multipliers map[models.BetCategory]decimal.Decimal
	Commission  decimal.Decimal
}

func (r StaticRates) RateFor(ctx context.Context, c models.BetCategory) (decimal.Decimal, error) {
	m, ok := r.Multipliers[c]
	if !ok {
		return decimal.Zero, fmt.Errorf("no rate configured for %q", c)
	}
	return m, nil
}

func (r StaticRates) CommissionFraction(ctx context.Context) (decimal.Decimal, error) {
	return r.Commission, nil
}

// DBRates reads the game_rates and settings tables.
type DBRates struct {
	db *gorm.DB
}

func NewDBRates(db *gorm.DB) *DBRates {
	return &DBRates{db: db}
}

func (r *DBRates) RateFor(ctx context.Context, c models.BetCategory) (decimal.Decimal, error) {
	var rate models.GameRate
	if err := r.db.WithContext(ctx).Where("category = ?", c).First(&rate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, fmt.Errorf("no rate configured for %q", c)
		}
		return decimal.Zero, err
	}
	return rate.Multiplier, nil
}

func (r *DBRates) CommissionFraction(ctx context.Context) (decimal.Decimal, error) {
	var s models.Setting
	err := r.db.WithContext(ctx).Where("key = ?", models.SettingCommissionFraction).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	f, err := decimal.NewFromString(s.Value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("setting %s: %w", models.SettingCommissionFraction, err)
	}
	return f, nil
}
