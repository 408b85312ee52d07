package repository

import (
	"context"
	"time"

	"membership-platform/internal/domain/model"
)

// PlanRepository is the port for membership plans.
type PlanRepository interface {
	Save(ctx context.Context, tx Tx, plan *model.MembershipPlan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.MembershipPlan, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.MembershipPlan, error)
	SoftDelete(ctx context.Context, tx Tx, id, actorID string, now time.Time) error

	// IncrementPurchases adjusts the denormalized counter by delta (may be
	// negative, floor 0). Separate write from entitlement creation; see the
	// reconciler for the drift repair.
	IncrementPurchases(ctx context.Context, tx Tx, id string, delta int) error
	SetPurchaseCount(ctx context.Context, tx Tx, id string, count int) error
}
