package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestParseCatalog(t *testing.T) {
	cat, err := ParseCatalog([]byte(`
commission_fraction: "0.05"
rates:
  single_digit: "9.5"
  jodi: "95"
markets:
  - name: Kalyan
    open_time: "16:10"
    close_time: "18:10"
  - name: Starline
    active: false
`))
	require.NoError(t, err)
	require.Len(t, cat.Markets, 2)
	assert.Equal(t, "16:10", cat.Markets[0].OpenTime)
	assert.Nil(t, cat.Markets[0].Active)
	require.NotNil(t, cat.Markets[1].Active)
	assert.False(t, *cat.Markets[1].Active)
	assert.Equal(t, "9.5", cat.Rates["single_digit"])
}

func TestParseCatalogRejects(t *testing.T) {
	tests := map[string]string{
		"duplicate market": `
markets:
  - name: Kalyan
  - name: Kalyan
`,
		"half scheduled": `
markets:
  - name: Kalyan
    open_time: "16:10"
`,
		"bad clock": `
markets:
  - name: Kalyan
    open_time: "4pm"
    close_time: "18:10"
`,
		"unknown category": `
rates:
  lucky_seven: "7"
`,
		"negative rate": `
rates:
  jodi: "-95"
`,
		"commission too large": `commission_fraction: "1.5"`,
		"not yaml":             `markets: [`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func seedCatalog() *Catalog {
	inactive := false
	return &Catalog{
		CommissionFraction: "0.05",
		Rates:              map[string]string{"jodi": "95"},
		Markets: []CatalogMarket{
			{Name: "Starline", Active: &inactive},
		},
	}
}

func TestSeedUpserts(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "markets" .+ ON CONFLICT \("name"\) DO UPDATE SET "open_time"="excluded"."open_time","close_time"="excluded"."close_time"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`UPDATE "markets" SET "is_active"=.+ WHERE name = `).
		WithArgs(false, sqlmock.AnyArg(), "Starline").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "game_rates" .+ ON CONFLICT \("category"\) DO UPDATE SET "multiplier"="excluded"."multiplier"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO "settings" .+ ON CONFLICT \("key"\) DO UPDATE SET "value"="excluded"."value"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	require.NoError(t, Seed(context.Background(), db, seedCatalog(), zap.NewNop()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedRollsBackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "markets"`).WillReturnError(errors.New("relation does not exist"))
	mock.ExpectRollback()

	err := Seed(context.Background(), db, seedCatalog(), zap.NewNop())
	assert.ErrorContains(t, err, "seed market Starline")
	assert.NoError(t, mock.ExpectationsWereMet())
}
