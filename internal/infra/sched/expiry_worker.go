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

const expiryLockKey = "lock:expiry_sweep"

// ExpiryWorker periodically flips stale confirmed entitlements to expired.
// Active lookups already treat past-end rows as inactive; the sweep only
// keeps the stored status column honest for listings and stats.
type ExpiryWorker struct {
	interval      time.Duration
	memberships   usecase.MembershipUseCase
	subscriptions usecase.SubscriptionUseCase
	locker        red.Locker
	log           *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, memberships usecase.MembershipUseCase, subscriptions usecase.SubscriptionUseCase, locker red.Locker, logger *zerolog.Logger) *ExpiryWorker {
	compLog := logger.With().Str("component", "ExpiryWorker").Logger()
	if interval <= 0 {
		interval = time.Hour
	}
	return &ExpiryWorker{
		interval:      interval,
		memberships:   memberships,
		subscriptions: subscriptions,
		locker:        locker,
		log:           &compLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting expiry worker")
	// Sweep once on startup, then on every tick.
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	token, err := w.locker.TryLock(ctx, expiryLockKey, w.interval)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			w.log.Debug().Msg("another replica holds the sweep lock")
			return
		}
		w.log.Error().Err(err).Msg("sweep lock failed")
		return
	}
	defer func() {
		if err := w.locker.Unlock(ctx, expiryLockKey, token); err != nil {
			w.log.Warn().Err(err).Msg("sweep unlock failed")
		}
	}()

	if n, err := w.memberships.ExpireDue(ctx); err != nil {
		w.log.Error().Err(err).Msg("membership expiry sweep failed")
	} else if n > 0 {
		metrics.IncEntitlementsExpired("membership", n)
		w.log.Info().Int64("count", n).Msg("memberships expired")
	}

	if n, err := w.subscriptions.ExpireDue(ctx); err != nil {
		w.log.Error().Err(err).Msg("subscription expiry sweep failed")
	} else if n > 0 {
		metrics.IncEntitlementsExpired("service", n)
		w.log.Info().Int64("count", n).Msg("service subscriptions expired")
	}
}
