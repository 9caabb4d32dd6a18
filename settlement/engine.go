package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"matka/models"
)

type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

func (t Trigger) provenance() models.Provenance {
	if t == TriggerManual {
		return models.ProvenanceManual
	}
	return models.ProvenanceAutomatic
}

type DeclareRequest struct {
	Market  string
	Slot    models.Slot
	Trigger Trigger
	// Panna is required for manual declarations and ignored otherwise.
	Panna string
}

// Outcome describes what a declaration did. On ErrAlreadyDeclared it carries
// only the identifying fields and Message.
type Outcome struct {
	Market           string              `json:"market"`
	Day              string              `json:"day"`
	Slot             models.Slot         `json:"slot"`
	Trigger          Trigger             `json:"trigger"`
	Panna            string              `json:"panna,omitempty"`
	Ank              string              `json:"ank,omitempty"`
	Jodi             string              `json:"jodi,omitempty"`
	FullResult       string              `json:"full_result,omitempty"`
	Status           models.ResultStatus `json:"status,omitempty"`
	Winners          int                 `json:"winners"`
	PayoutTotal      decimal.Decimal     `json:"payout_total"`
	LostCount        int64               `json:"lost_count"`
	CommissionAgents int                 `json:"commission_agents"`
	CommissionTotal  decimal.Decimal     `json:"commission_total"`
	SkippedAgents    []uint              `json:"skipped_agents,omitempty"`
	Message          string              `json:"message"`
}

type Engine struct {
	store   Store
	rates   RateTable
	oracle  DrawOracle
	log     *zap.Logger
	loc     *time.Location
	now     func() time.Time
	metrics *Metrics
}

type Option func(*Engine)

// WithLocation sets the exchange timezone that defines a calendar day.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func New(store Store, rates RateTable, oracle DrawOracle, log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		store:  store,
		rates:  rates,
		oracle: oracle,
		log:    log,
		loc:    time.UTC,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the current time in the exchange timezone.
func (e *Engine) Now() time.Time {
	return e.now().In(e.loc)
}

// Declare settles one slot of one market for today. Scheduler ticks and
// administrator actions both come through here; the lock row taken inside the
// transaction serializes concurrent attempts on the same market and day.
func (e *Engine) Declare(ctx context.Context, req DeclareRequest) (*Outcome, error) {
	log := e.log.With(
		zap.String("market", req.Market),
		zap.String("slot", string(req.Slot)),
		zap.String("trigger", string(req.Trigger)),
	)

	out, err := e.declare(ctx, req)
	switch {
	case err == nil:
		log.Info("result declared",
			zap.String("day", out.Day),
			zap.String("panna", out.Panna),
			zap.String("ank", out.Ank),
			zap.Int("winners", out.Winners),
			zap.String("payout", out.PayoutTotal.String()),
			zap.Int64("lost", out.LostCount),
			zap.String("commission", out.CommissionTotal.String()),
		)
		e.metrics.observe(req, "declared", out)
	case errors.Is(err, ErrAlreadyDeclared):
		log.Info("declaration skipped", zap.Error(err))
		e.metrics.observe(req, "already_declared", nil)
	case errors.Is(err, ErrValidation), errors.Is(err, ErrPrerequisiteMissing), errors.Is(err, ErrUnknownMarket):
		log.Warn("declaration rejected", zap.Error(err))
		e.metrics.observe(req, "rejected", nil)
	default:
		log.Error("declaration failed", zap.Error(err))
		e.metrics.observe(req, "failed", nil)
	}
	return out, err
}

func (e *Engine) declare(ctx context.Context, req DeclareRequest) (*Outcome, error) {
	if !req.Slot.Valid() {
		return nil, fmt.Errorf("%w: slot %q", ErrValidation, req.Slot)
	}
	var manual Panna
	switch req.Trigger {
	case TriggerManual:
		p, err := ParsePanna(req.Panna)
		if err != nil {
			return nil, err
		}
		manual = p
	case TriggerScheduled:
	default:
		return nil, fmt.Errorf("%w: trigger %q", ErrValidation, req.Trigger)
	}
	if _, err := e.store.Market(ctx, req.Market); err != nil {
		return nil, err
	}

	now := e.Now()
	day := now.Format(time.DateOnly)
	prov := req.Trigger.provenance()

	var out *Outcome
	err := e.store.WithinTx(ctx, func(tx Tx) error {
		out = &Outcome{
			Market:          req.Market,
			Day:             day,
			Slot:            req.Slot,
			Trigger:         req.Trigger,
			PayoutTotal:     decimal.Zero,
			CommissionTotal: decimal.Zero,
		}

		lock, err := tx.LockResult(ctx, req.Market, day)
		if err != nil {
			return fmt.Errorf("lock result: %w", err)
		}
		if declared, prev := lock.Declared(req.Slot); declared {
			// Only a manual declaration may replace an automatic one.
			if prev != models.ProvenanceAutomatic || req.Trigger != TriggerManual {
				out.Message = fmt.Sprintf("%s result for %s already declared today (%s)", req.Slot, req.Market, prev)
				return fmt.Errorf("%w: %s %s on %s by %s", ErrAlreadyDeclared, req.Market, req.Slot, day, prev)
			}
		}
		if req.Slot == models.SlotClose && !lock.OpenDeclared {
			return fmt.Errorf("%w: open result for %s not declared on %s", ErrPrerequisiteMissing, req.Market, day)
		}

		result, err := tx.LoadResult(ctx, req.Market)
		if err != nil {
			return fmt.Errorf("load result: %w", err)
		}
		if result == nil {
			result = &models.Result{Market: req.Market}
			result.ResetPending(now)
		} else if result.DrawDate != day {
			result.ResetPending(now)
		}
		if req.Slot == models.SlotClose && result.OpenPanna == "" {
			return fmt.Errorf("%w: open panna for %s missing on %s", ErrPrerequisiteMissing, req.Market, day)
		}

		// The oracle runs with the lock and result rows held, so a slow oracle
		// delays other declarations for this market until it returns.
		panna := manual
		if req.Trigger == TriggerScheduled {
			drawn, err := e.oracle.Draw(ctx, req.Market, req.Slot)
			if err != nil {
				return fmt.Errorf("draw: %w", err)
			}
			if panna, err = ParsePanna(string(drawn)); err != nil {
				return fmt.Errorf("oracle returned bad panna: %w", err)
			}
		}

		ref := applyDeclaration(&result.ResultFields, req.Slot, panna, prov)
		if err := tx.SaveResult(ctx, result); err != nil {
			return fmt.Errorf("save result: %w", err)
		}
		if err := tx.UpsertHistory(ctx, &models.ResultHistory{
			ResultFields:  result.ResultFields,
			DeclarationID: uuid.NewString(),
			Market:        req.Market,
			Day:           day,
		}); err != nil {
			return fmt.Errorf("save history: %w", err)
		}

		if err := e.scanWinners(ctx, tx, req.Market, day, ref, out); err != nil {
			return err
		}

		if req.Slot == models.SlotClose {
			lost, err := tx.MarkPlacedLost(ctx, req.Market, day)
			if err != nil {
				return fmt.Errorf("sweep lost bets: %w", err)
			}
			out.LostCount = lost
			if !lock.CommissionPaid {
				if err := e.distributeCommission(ctx, tx, req.Market, day, out); err != nil {
					return err
				}
				lock.CommissionPaid = true
			}
		}

		lock.MarkDeclared(req.Slot, prov)
		if err := tx.SaveResultLock(ctx, lock); err != nil {
			return fmt.Errorf("save lock: %w", err)
		}

		out.Panna = panna.String()
		out.Ank = ref.Ank
		out.Jodi = result.Jodi
		out.FullResult = result.FullResult
		out.Status = result.Status
		out.Message = fmt.Sprintf("%s result %s-%s declared for %s", req.Slot, panna, ref.Ank, req.Market)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyDeclared) {
			return out, err
		}
		return nil, err
	}
	return out, nil
}

// applyDeclaration writes the slot's panna and ank into the result and keeps
// jodi and full result consistent with both slots.
func applyDeclaration(f *models.ResultFields, slot models.Slot, panna Panna, prov models.Provenance) drawReference {
	ank := panna.Ank()
	switch slot {
	case models.SlotOpen:
		f.OpenPanna = panna.String()
		f.OpenAnk = ank
		if f.Status != models.ResultClosed {
			f.Status = models.ResultOpen
		}
	case models.SlotClose:
		f.ClosePanna = panna.String()
		f.CloseAnk = ank
		f.Status = models.ResultClosed
	}
	if f.ClosePanna != "" {
		f.Jodi = f.OpenAnk + f.CloseAnk
		f.FullResult = f.OpenPanna + "-" + f.Jodi + "-" + f.ClosePanna
	}
	if f.Provenance != models.ProvenanceManual {
		f.Provenance = prov
	}
	return drawReference{
		Slot:       slot,
		Panna:      panna,
		Ank:        ank,
		OpenPanna:  f.OpenPanna,
		ClosePanna: f.ClosePanna,
		CloseAnk:   f.CloseAnk,
		Jodi:       f.Jodi,
	}
}
