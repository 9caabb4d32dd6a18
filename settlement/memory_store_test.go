package settlement

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"matka/models"
)

// memoryStore is a transactional in-memory Store. WithinTx works on a copy of
// the state and swaps it in only when fn succeeds, and holds a single mutex
// for the whole transaction, so concurrent declarations are serialized.
type memoryStore struct {
	mu        sync.Mutex
	state     *memState
	appendErr error
}

type memState struct {
	nextID  uint
	markets map[string]models.Market
	results map[string]models.Result
	history map[string]models.ResultHistory
	locks   map[string]models.ResultLock
	bets    map[uint]models.Bet
	users   map[uint]models.User
	agents  map[uint]models.Agent
	ledger  []models.LedgerEntry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{state: &memState{
		markets: make(map[string]models.Market),
		results: make(map[string]models.Result),
		history: make(map[string]models.ResultHistory),
		locks:   make(map[string]models.ResultLock),
		bets:    make(map[uint]models.Bet),
		users:   make(map[uint]models.User),
		agents:  make(map[uint]models.Agent),
	}}
}

func (s *memState) clone() *memState {
	c := &memState{
		nextID:  s.nextID,
		markets: make(map[string]models.Market, len(s.markets)),
		results: make(map[string]models.Result, len(s.results)),
		history: make(map[string]models.ResultHistory, len(s.history)),
		locks:   make(map[string]models.ResultLock, len(s.locks)),
		bets:    make(map[uint]models.Bet, len(s.bets)),
		users:   make(map[uint]models.User, len(s.users)),
		agents:  make(map[uint]models.Agent, len(s.agents)),
		ledger:  append([]models.LedgerEntry(nil), s.ledger...),
	}
	for k, v := range s.markets {
		c.markets[k] = v
	}
	for k, v := range s.results {
		c.results[k] = v
	}
	for k, v := range s.history {
		c.history[k] = v
	}
	for k, v := range s.locks {
		c.locks[k] = v
	}
	for k, v := range s.bets {
		c.bets[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.agents {
		c.agents[k] = v
	}
	return c
}

func (s *memState) id() uint {
	s.nextID++
	return s.nextID
}

func dayKey(market, day string) string { return market + "|" + day }

// fixtures

func (s *memoryStore) addMarket(name string, openAt, closeAt *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.markets[name] = models.Market{Name: name, OpenTime: openAt, CloseTime: closeAt, IsActive: true}
}

func (s *memoryStore) addUser(id uint, agentID *uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := models.User{UserCode: fmt.Sprintf("u%d", id), AgentID: agentID, Balance: decimal.Zero, IsActive: true}
	u.ID = id
	s.state.users[id] = u
}

func (s *memoryStore) addAgent(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := models.Agent{AgentCode: fmt.Sprintf("a%d", id), Balance: decimal.Zero, IsActive: true}
	a.ID = id
	s.state.agents[id] = a
}

func (s *memoryStore) addBet(b models.Bet) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.state.id()
	if b.Status == "" {
		b.Status = models.BetPlaced
	}
	s.state.bets[b.ID] = b
	return b.ID
}

func (s *memoryStore) bet(id uint) models.Bet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.bets[id]
}

func (s *memoryStore) userBalance(id uint) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.users[id].Balance
}

func (s *memoryStore) agentBalance(id uint) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.agents[id].Balance
}

func (s *memoryStore) ledgerEntries(t models.EntryType) []models.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LedgerEntry
	for _, e := range s.state.ledger {
		if e.EntryType == t {
			out = append(out, e)
		}
	}
	return out
}

func (s *memoryStore) putResult(r models.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.results[r.Market] = r
}

func (s *memoryStore) putHistory(h models.ResultHistory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.history[dayKey(h.Market, h.Day)] = h
}

// Store

func (s *memoryStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged := s.state.clone()
	if err := fn(&memTx{st: staged, appendErr: s.appendErr}); err != nil {
		return err
	}
	s.state = staged
	return nil
}

func (s *memoryStore) Markets(ctx context.Context) ([]models.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.Market
	for _, m := range s.state.markets {
		if m.IsActive {
			list = append(list, m)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (s *memoryStore) Market(ctx context.Context, name string) (*models.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.state.markets[name]
	if !ok || !m.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMarket, name)
	}
	return &m, nil
}

func (s *memoryStore) CurrentResults(ctx context.Context) ([]models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.Result
	for _, r := range s.state.results {
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Market < list[j].Market })
	return list, nil
}

func (s *memoryStore) CurrentResult(ctx context.Context, market string) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.state.results[market]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMarket, market)
	}
	return &r, nil
}

func (s *memoryStore) ResultHistory(ctx context.Context, market string, limit int) ([]models.ResultHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.ResultHistory
	for _, h := range s.state.history {
		if h.Market == market {
			list = append(list, h)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Day > list[j].Day })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *memoryStore) ResultLock(ctx context.Context, market, day string) (*models.ResultLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.state.locks[dayKey(market, day)]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

type memTx struct {
	st        *memState
	appendErr error
}

func (t *memTx) LockResult(ctx context.Context, market, day string) (*models.ResultLock, error) {
	k := dayKey(market, day)
	l, ok := t.st.locks[k]
	if !ok {
		l = models.ResultLock{Market: market, Day: day}
		l.ID = t.st.id()
		t.st.locks[k] = l
	}
	return &l, nil
}

func (t *memTx) SaveResultLock(ctx context.Context, lock *models.ResultLock) error {
	t.st.locks[dayKey(lock.Market, lock.Day)] = *lock
	return nil
}

func (t *memTx) LoadResult(ctx context.Context, market string) (*models.Result, error) {
	r, ok := t.st.results[market]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (t *memTx) SaveResult(ctx context.Context, r *models.Result) error {
	if r.ID == 0 {
		r.ID = t.st.id()
	}
	r.UpdatedAt = time.Now()
	t.st.results[r.Market] = *r
	return nil
}

func (t *memTx) UpsertHistory(ctx context.Context, h *models.ResultHistory) error {
	k := dayKey(h.Market, h.Day)
	if existing, ok := t.st.history[k]; ok {
		h.ID = existing.ID
		h.DeclarationID = existing.DeclarationID
	} else {
		h.ID = t.st.id()
	}
	t.st.history[k] = *h
	return nil
}

func (t *memTx) PlacedBets(ctx context.Context, market, day string) ([]models.Bet, error) {
	var list []models.Bet
	for _, b := range t.st.bets {
		if b.Market == market && b.DrawDate == day && b.Status == models.BetPlaced {
			list = append(list, b)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (t *memTx) MarkBetWon(ctx context.Context, betID uint, payout decimal.Decimal) (bool, error) {
	b, ok := t.st.bets[betID]
	if !ok || b.Status != models.BetPlaced {
		return false, nil
	}
	now := time.Now()
	b.Status = models.BetWon
	b.Payout = &payout
	b.SettledAt = &now
	t.st.bets[betID] = b
	return true, nil
}

func (t *memTx) MarkPlacedLost(ctx context.Context, market, day string) (int64, error) {
	var n int64
	now := time.Now()
	for id, b := range t.st.bets {
		if b.Market == market && b.DrawDate == day && b.Status == models.BetPlaced {
			zero := decimal.Zero
			b.Status = models.BetLost
			b.Payout = &zero
			b.SettledAt = &now
			t.st.bets[id] = b
			n++
		}
	}
	return n, nil
}

func (t *memTx) BetsForDay(ctx context.Context, market, day string) ([]models.Bet, error) {
	var list []models.Bet
	for _, b := range t.st.bets {
		if b.Market == market && b.DrawDate == day {
			list = append(list, b)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (t *memTx) Credit(ctx context.Context, acct Account, amount decimal.Decimal) (Balance, error) {
	switch acct.Kind {
	case models.AccountUser:
		u, ok := t.st.users[acct.ID]
		if !ok {
			return Balance{}, fmt.Errorf("user %d not found", acct.ID)
		}
		bal := Balance{Before: u.Balance, After: u.Balance.Add(amount)}
		u.Balance = bal.After
		t.st.users[acct.ID] = u
		return bal, nil
	case models.AccountAgent:
		a, ok := t.st.agents[acct.ID]
		if !ok || !a.IsActive {
			return Balance{}, fmt.Errorf("%w: %d", ErrAgentNotFound, acct.ID)
		}
		bal := Balance{Before: a.Balance, After: a.Balance.Add(amount)}
		a.Balance = bal.After
		t.st.agents[acct.ID] = a
		return bal, nil
	}
	return Balance{}, fmt.Errorf("unknown account kind %q", acct.Kind)
}

func (t *memTx) AppendLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error {
	if t.appendErr != nil {
		return t.appendErr
	}
	entry.ID = t.st.id()
	t.st.ledger = append(t.st.ledger, *entry)
	return nil
}
