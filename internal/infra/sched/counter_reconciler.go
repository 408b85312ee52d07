package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"membership-platform/internal/domain"
	"membership-platform/internal/infra/metrics"
	red "membership-platform/internal/infra/redis"
	"membership-platform/internal/usecase"
)

const reconcileLockKey = "lock:counter_reconcile"

// CounterReconciler periodically recomputes catalog purchase counters from
// the entitlement rows. The per-purchase increments are eventually
// consistent; this repairs any drift from crashes between the entitlement
// write and the counter bump.
type CounterReconciler struct {
	interval time.Duration
	stats    usecase.StatsUseCase
	locker   red.Locker
	log      *zerolog.Logger
}

func NewCounterReconciler(interval time.Duration, stats usecase.StatsUseCase, locker red.Locker, logger *zerolog.Logger) *CounterReconciler {
	compLog := logger.With().Str("component", "CounterReconciler").Logger()
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &CounterReconciler{
		interval: interval,
		stats:    stats,
		locker:   locker,
		log:      &compLog,
	}
}

func (w *CounterReconciler) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting counter reconciler")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping counter reconciler")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *CounterReconciler) tick(ctx context.Context) {
	token, err := w.locker.TryLock(ctx, reconcileLockKey, w.interval)
	if err != nil {
		if !errors.Is(err, domain.ErrLockHeld) {
			w.log.Error().Err(err).Msg("reconcile lock failed")
		}
		return
	}
	defer func() { _ = w.locker.Unlock(ctx, reconcileLockKey, token) }()

	repaired, err := w.stats.ReconcilePurchaseCounters(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("counter reconciliation failed")
		return
	}
	if repaired > 0 {
		metrics.AddCountersReconciled(repaired)
		w.log.Warn().Int("repaired", repaired).Msg("purchase counters drifted and were repaired")
	}
}
