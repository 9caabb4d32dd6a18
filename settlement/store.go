package settlement

import (
	"context"

	"github.com/shopspring/decimal"

	"matka/models"
)

// Store owns results, locks, bets and wallets. Everything a declaration writes
// goes through a single WithinTx call so it commits or aborts as one unit.
type Store interface {
	Catalog
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	CurrentResults(ctx context.Context) ([]models.Result, error)
	CurrentResult(ctx context.Context, market string) (*models.Result, error)
	ResultHistory(ctx context.Context, market string, limit int) ([]models.ResultHistory, error)
	ResultLock(ctx context.Context, market, day string) (*models.ResultLock, error)
}

// Catalog lists the markets known to the platform.
type Catalog interface {
	Markets(ctx context.Context) ([]models.Market, error)
	Market(ctx context.Context, name string) (*models.Market, error)
}

// Tx is the transactional view used inside WithinTx.
type Tx interface {
	Wallet

	// LockResult returns the lock row for (market, day), creating it when
	// missing, and holds it until the transaction ends.
	LockResult(ctx context.Context, market, day string) (*models.ResultLock, error)
	SaveResultLock(ctx context.Context, lock *models.ResultLock) error

	// LoadResult returns nil when the market has never had a result row.
	LoadResult(ctx context.Context, market string) (*models.Result, error)
	SaveResult(ctx context.Context, r *models.Result) error
	UpsertHistory(ctx context.Context, h *models.ResultHistory) error

	PlacedBets(ctx context.Context, market, day string) ([]models.Bet, error)
	// MarkBetWon reports false when the bet was no longer placed.
	MarkBetWon(ctx context.Context, betID uint, payout decimal.Decimal) (bool, error)
	MarkPlacedLost(ctx context.Context, market, day string) (int64, error)
	BetsForDay(ctx context.Context, market, day string) ([]models.Bet, error)
}

type Account struct {
	Kind models.AccountKind
	ID   uint
}

type Balance struct {
	Before decimal.Decimal
	After  decimal.Decimal
}

// Wallet credits balances and records ledger entries. Credit returns
// ErrAgentNotFound for a missing agent account.
type Wallet interface {
	Credit(ctx context.Context, acct Account, amount decimal.Decimal) (Balance, error)
	AppendLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error
}
