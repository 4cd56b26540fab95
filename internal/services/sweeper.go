package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"floorline/internal/logging"
	"floorline/internal/ports"
)

// forceCloseTimeout bounds the work spent on a single session so one
// stuck row cannot stall the rest of the round.
const forceCloseTimeout = 5 * time.Second

// sweepConcurrency bounds parallel force-closes per round.
const sweepConcurrency = 4

// Sweeper force-closes sessions whose heartbeat fell outside the idle
// threshold. It is the correctness backstop: explicit client closes are
// an optimization, the sweep is the guarantee.
type Sweeper struct {
	store     ports.SweepStore
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time
}

// NewSweeper creates a new Sweeper
func NewSweeper(store ports.SweepStore, interval, threshold time.Duration) *Sweeper {
	return &Sweeper{
		store:     store,
		interval:  interval,
		threshold: threshold,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps on a fixed period until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logging.Logger.Info("idle sweep started",
		"interval", s.interval.String(),
		"threshold", s.threshold.String())

	for {
		select {
		case <-ctx.Done():
			logging.Logger.Info("idle sweep stopped")
			return
		case <-ticker.C:
			report := s.SweepOnce(ctx)
			if report.Closed > 0 || len(report.Errors) > 0 {
				logging.Logger.Info("idle sweep round",
					"scanned", report.Scanned,
					"closed", report.Closed,
					"failures", len(report.Errors))
			}
		}
	}
}

// SweepOnce runs a single round. Failures are isolated per session: one
// bad row never prevents sweeping the others.
func (s *Sweeper) SweepOnce(ctx context.Context) SweepReport {
	now := s.now()
	cutoff := now.Add(-s.threshold)

	idle, err := s.store.ListIdleSessions(ctx, cutoff)
	if err != nil {
		logging.Logger.Error("idle sweep listing failed", "error", err)
		return SweepReport{Errors: []error{err}}
	}

	report := SweepReport{Scanned: len(idle)}
	if len(idle) == 0 {
		return report
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)

	for _, session := range idle {
		g.Go(func() error {
			closeCtx, cancel := context.WithTimeout(gctx, forceCloseTimeout)
			defer cancel()

			closed, err := s.store.ForceClose(closeCtx, session.ID, now)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logging.Logger.Error("force-close failed",
					"session", session.ID, "error", err)
				report.Errors = append(report.Errors, err)
				return nil // keep sweeping the rest
			}
			if closed {
				logging.Logger.Info("session force-closed",
					"session", session.ID,
					"worker", session.WorkerID,
					"station", session.StationID,
					"idle_since", session.IdleSince().Format(time.RFC3339))
				report.Closed++
			}
			return nil
		})
	}
	_ = g.Wait()
	return report
}
