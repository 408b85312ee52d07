package repository

import (
	"context"
	"time"

	"membership-platform/internal/domain/model"
)

// MembershipRepository is the port for membership entitlements.
type MembershipRepository interface {
	Save(ctx context.Context, tx Tx, m *model.UserMembership) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.UserMembership, error)
	FindByOrderID(ctx context.Context, tx Tx, orderID string) (*model.UserMembership, error)

	// FindActiveByPhone applies the full gating predicate: not deleted,
	// status active, payment success, started, window open (or lifetime);
	// ordered by end_date descending with lifetime rows first.
	// The phone must already be normalized.
	FindActiveByPhone(ctx context.Context, tx Tx, phone string, now time.Time) (*model.UserMembership, error)

	ListByPhone(ctx context.Context, tx Tx, phone string) ([]*model.UserMembership, error)

	// ExpireDue is the lazy-expiry sweep: one conditional bulk update that
	// flips stale active+success rows to expired. Returns rows affected.
	ExpireDue(ctx context.Context, tx Tx, now time.Time) (int64, error)

	// DeletePermanently removes a row for good. Only callers that verified
	// the soft-deleted state may use it.
	DeletePermanently(ctx context.Context, tx Tx, id string) error

	// --- Statistics / reconciliation read-only methods ---
	CountByStatus(ctx context.Context, tx Tx) (map[model.EntitlementStatus]int, error)
	CountConfirmedByPlan(ctx context.Context, tx Tx) (map[string]int, error)
}
