package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"matka/models"
	"matka/settlement"
)

// Declarer is the part of the settlement engine the scheduler drives.
type Declarer interface {
	Declare(ctx context.Context, req settlement.DeclareRequest) (*settlement.Outcome, error)
	EnsurePending(ctx context.Context) (int, error)
}

type ResultScheduler struct {
	engine      Declarer
	catalog     settlement.Catalog
	log         *zap.Logger
	parallelism int
}

func NewResultScheduler(engine Declarer, catalog settlement.Catalog, log *zap.Logger, parallelism int) *ResultScheduler {
	if parallelism <= 0 {
		parallelism = 4
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ResultScheduler{engine: engine, catalog: catalog, log: log, parallelism: parallelism}
}

// Tick runs one scheduler pass for the minute now falls in. Markets are
// declared concurrently; a failure in one market does not stop the others.
// The returned error joins every failure other than ErrAlreadyDeclared.
func (s *ResultScheduler) Tick(ctx context.Context, now time.Time) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	if n, err := s.engine.EnsurePending(ctx); err != nil {
		s.log.Error("pending reset failed", zap.Error(err))
		fail(err)
	} else if n > 0 {
		s.log.Info("results reset to pending", zap.Int("markets", n))
	}

	markets, err := s.catalog.Markets(ctx)
	if err != nil {
		return errors.Join(append(errs, err)...)
	}

	clock := now.Format("15:04")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for _, m := range markets {
		slots := m.SlotsAt(clock)
		if len(slots) == 0 {
			continue
		}
		market := m.Name
		g.Go(func() error {
			for _, slot := range slots {
				if err := s.declare(gctx, market, slot); err != nil {
					fail(err)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (s *ResultScheduler) declare(ctx context.Context, market string, slot models.Slot) error {
	_, err := s.engine.Declare(ctx, settlement.DeclareRequest{
		Market:  market,
		Slot:    slot,
		Trigger: settlement.TriggerScheduled,
	})
	if errors.Is(err, settlement.ErrAlreadyDeclared) {
		return nil
	}
	return err
}

// StartResultScheduler ticks every minute in loc until ctx is cancelled.
// A tick still running when the next minute starts causes that minute to be
// skipped.
func StartResultScheduler(ctx context.Context, s *ResultScheduler, loc *time.Location) (*cron.Cron, error) {
	cl := cronLogger{s.log.Sugar()}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc("* * * * *", func() {
		if err := s.Tick(ctx, time.Now().In(loc)); err != nil {
			s.log.Warn("scheduler tick finished with errors", zap.Error(err))
		}
	}); err != nil {
		return nil, err
	}
	c.Start()
	s.log.Info("result scheduler started", zap.String("timezone", loc.String()))

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		s.log.Info("result scheduler stopped")
	}()
	return c, nil
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
