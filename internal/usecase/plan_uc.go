// File: internal/usecase/plan_uc.go
package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"membership-platform/internal/domain"
	"membership-platform/internal/domain/model"
	"membership-platform/internal/domain/ports/repository"
)

var _ PlanUseCase = (*planUC)(nil)

// PlanUseCase manages the membership plan catalog. Deleting a plan never
// touches entitlements already sold against it; they keep their snapshot.
type PlanUseCase interface {
	Create(ctx context.Context, in PlanInput) (*model.MembershipPlan, error)
	Update(ctx context.Context, id string, in PlanInput) (*model.MembershipPlan, error)
	Delete(ctx context.Context, id, actorID string) error
	GetByID(ctx context.Context, id string) (*model.MembershipPlan, error)
	ListAll(ctx context.Context) ([]*model.MembershipPlan, error)
}

// PlanInput carries the editable plan fields across the API boundary.
type PlanInput struct {
	Name         string
	Description  string
	DurationDays int
	IsLifetime   bool
	PriceMinor   int64
	Perks        []string
}

type planUC struct {
	plans repository.PlanRepository
	clock domain.Clock
	log   *zerolog.Logger
}

func NewPlanUseCase(plans repository.PlanRepository, clock domain.Clock, logger *zerolog.Logger) *planUC {
	l := logger.With().Str("component", "PlanUC").Logger()
	return &planUC{plans: plans, clock: clock, log: &l}
}

func (u *planUC) Create(ctx context.Context, in PlanInput) (*model.MembershipPlan, error) {
	plan, err := model.NewMembershipPlan(uuid.NewString(), in.Name, in.Description, in.DurationDays, in.IsLifetime, in.PriceMinor, in.Perks, u.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := u.plans.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, err
	}
	u.log.Info().Str("plan_id", plan.ID).Str("name", plan.Name).Msg("plan created")
	return plan, nil
}

func (u *planUC) Update(ctx context.Context, id string, in PlanInput) (*model.MembershipPlan, error) {
	plan, err := u.plans.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if !in.IsLifetime && in.DurationDays <= 0 {
		return nil, domain.NewValidationError("duration_days", "must be positive for non-lifetime plans")
	}
	if in.PriceMinor < 0 {
		return nil, domain.NewValidationError("price", "must not be negative")
	}
	plan.Name = in.Name
	plan.Description = in.Description
	plan.DurationDays = in.DurationDays
	plan.IsLifetime = in.IsLifetime
	plan.PriceMinor = in.PriceMinor
	plan.Perks = in.Perks
	plan.UpdatedAt = u.clock.Now()
	if err := u.plans.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (u *planUC) Delete(ctx context.Context, id, actorID string) error {
	return u.plans.SoftDelete(ctx, repository.NoTX, id, actorID, u.clock.Now())
}

func (u *planUC) GetByID(ctx context.Context, id string) (*model.MembershipPlan, error) {
	return u.plans.FindByID(ctx, repository.NoTX, id)
}

func (u *planUC) ListAll(ctx context.Context) ([]*model.MembershipPlan, error) {
	return u.plans.ListAll(ctx, repository.NoTX)
}
