// File: internal/usecase/stats_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"membership-platform/internal/domain/model"
	"membership-platform/internal/domain/ports/repository"
)

var _ StatsUseCase = (*statsUC)(nil)

// PlatformStats aggregates entitlement counts by derived lifecycle status.
type PlatformStats struct {
	Memberships   map[model.EntitlementStatus]int `json:"memberships"`
	Subscriptions map[model.EntitlementStatus]int `json:"subscriptions"`
}

// StatsUseCase exposes aggregate counts and repairs purchase-counter drift.
type StatsUseCase interface {
	Overview(ctx context.Context) (*PlatformStats, error)

	// ReconcilePurchaseCounters recomputes each catalog entry's counter from
	// the confirmed entitlement counts and overwrites the stored value.
	// Returns the number of entries that were out of sync.
	ReconcilePurchaseCounters(ctx context.Context) (int, error)
}

type statsUC struct {
	memberships repository.MembershipRepository
	subs        repository.SubscriptionRepository
	plans       repository.PlanRepository
	services    repository.ServiceRepository
	log         *zerolog.Logger
}

func NewStatsUseCase(
	memberships repository.MembershipRepository,
	subs repository.SubscriptionRepository,
	plans repository.PlanRepository,
	services repository.ServiceRepository,
	logger *zerolog.Logger,
) *statsUC {
	l := logger.With().Str("component", "StatsUC").Logger()
	return &statsUC{
		memberships: memberships,
		subs:        subs,
		plans:       plans,
		services:    services,
		log:         &l,
	}
}

func (u *statsUC) Overview(ctx context.Context) (*PlatformStats, error) {
	mCounts, err := u.memberships.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	sCounts, err := u.subs.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	return &PlatformStats{Memberships: mCounts, Subscriptions: sCounts}, nil
}

func (u *statsUC) ReconcilePurchaseCounters(ctx context.Context) (int, error) {
	repaired := 0

	byPlan, err := u.memberships.CountConfirmedByPlan(ctx, repository.NoTX)
	if err != nil {
		return 0, err
	}
	plans, err := u.plans.ListAll(ctx, repository.NoTX)
	if err != nil {
		return 0, err
	}
	for _, p := range plans {
		actual := byPlan[p.ID]
		if p.CurrentPurchases == actual {
			continue
		}
		if err := u.plans.SetPurchaseCount(ctx, repository.NoTX, p.ID, actual); err != nil {
			return repaired, err
		}
		u.log.Info().Str("plan_id", p.ID).Int("stored", p.CurrentPurchases).Int("actual", actual).Msg("plan counter repaired")
		repaired++
	}

	byService, err := u.subs.CountConfirmedByService(ctx, repository.NoTX)
	if err != nil {
		return repaired, err
	}
	services, err := u.services.ListAll(ctx, repository.NoTX)
	if err != nil {
		return repaired, err
	}
	for _, s := range services {
		actual := byService[s.ID]
		if s.CurrentPurchases == actual {
			continue
		}
		if err := u.services.SetPurchaseCount(ctx, repository.NoTX, s.ID, actual); err != nil {
			return repaired, err
		}
		u.log.Info().Str("service_id", s.ID).Int("stored", s.CurrentPurchases).Int("actual", actual).Msg("service counter repaired")
		repaired++
	}

	return repaired, nil
}
