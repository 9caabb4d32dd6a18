package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"matka/models"
)

// Catalog is the YAML seed for markets, payout multipliers and the agent
// commission fraction.
type Catalog struct {
	CommissionFraction string            `yaml:"commission_fraction"`
	Rates              map[string]string `yaml:"rates"`
	Markets            []CatalogMarket   `yaml:"markets"`
}

type CatalogMarket struct {
	Name      string `yaml:"name"`
	OpenTime  string `yaml:"open_time"`
	CloseTime string `yaml:"close_time"`
	Active    *bool  `yaml:"active"`
}

func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := cat.validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Catalog) validate() error {
	seen := make(map[string]bool, len(c.Markets))
	for _, m := range c.Markets {
		if m.Name == "" {
			return fmt.Errorf("catalog: market without name")
		}
		if seen[m.Name] {
			return fmt.Errorf("catalog: duplicate market %q", m.Name)
		}
		seen[m.Name] = true
		if (m.OpenTime == "") != (m.CloseTime == "") {
			return fmt.Errorf("catalog: market %q needs both open_time and close_time or neither", m.Name)
		}
		for _, clock := range []string{m.OpenTime, m.CloseTime} {
			if clock == "" {
				continue
			}
			if _, err := time.Parse("15:04", clock); err != nil {
				return fmt.Errorf("catalog: market %q time %q is not HH:MM", m.Name, clock)
			}
		}
	}

	known := make(map[string]bool)
	for _, cat := range models.BetCategories() {
		known[string(cat)] = true
	}
	for name, v := range c.Rates {
		if !known[name] {
			return fmt.Errorf("catalog: unknown bet category %q", name)
		}
		d, err := decimal.NewFromString(v)
		if err != nil || !d.IsPositive() {
			return fmt.Errorf("catalog: rate for %q must be a positive number", name)
		}
	}

	if c.CommissionFraction != "" {
		d, err := decimal.NewFromString(c.CommissionFraction)
		if err != nil || d.IsNegative() || d.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return fmt.Errorf("catalog: commission_fraction must be in [0, 1)")
		}
	}
	return nil
}

// Seed upserts the catalog. Running it twice leaves the database unchanged.
func Seed(ctx context.Context, db *gorm.DB, cat *Catalog, log *zap.Logger) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, cm := range cat.Markets {
			m := models.Market{Name: cm.Name, IsActive: true}
			if cm.OpenTime != "" {
				m.OpenTime = &cm.OpenTime
				m.CloseTime = &cm.CloseTime
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"open_time", "close_time", "updated_at"}),
			}).Create(&m).Error; err != nil {
				return fmt.Errorf("seed market %s: %w", cm.Name, err)
			}
			active := cm.Active == nil || *cm.Active
			if err := tx.Model(&models.Market{}).Where("name = ?", cm.Name).Update("is_active", active).Error; err != nil {
				return fmt.Errorf("seed market %s: %w", cm.Name, err)
			}
		}

		for name, v := range cat.Rates {
			rate := models.GameRate{Category: models.BetCategory(name), Multiplier: decimal.RequireFromString(v)}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "category"}},
				DoUpdates: clause.AssignmentColumns([]string{"multiplier", "updated_at"}),
			}).Create(&rate).Error; err != nil {
				return fmt.Errorf("seed rate %s: %w", name, err)
			}
		}

		if cat.CommissionFraction != "" {
			s := models.Setting{Key: models.SettingCommissionFraction, Value: cat.CommissionFraction}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&s).Error; err != nil {
				return fmt.Errorf("seed commission: %w", err)
			}
		}

		log.Info("catalog seeded",
			zap.Int("markets", len(cat.Markets)),
			zap.Int("rates", len(cat.Rates)),
		)
		return nil
	})
}
