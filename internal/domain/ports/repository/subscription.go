package repository

import (
	"context"
	"time"

	"membership-platform/internal/domain/model"
)

// SubscriptionRepository is the port for service-subscription entitlements.
// Same contract as MembershipRepository; a NULL end_date row scans with
// IsLifetime set.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.UserServiceSubscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.UserServiceSubscription, error)
	FindByOrderID(ctx context.Context, tx Tx, orderID string) (*model.UserServiceSubscription, error)
	FindActiveByPhone(ctx context.Context, tx Tx, phone string, now time.Time) (*model.UserServiceSubscription, error)
	ListByPhone(ctx context.Context, tx Tx, phone string) ([]*model.UserServiceSubscription, error)
	ExpireDue(ctx context.Context, tx Tx, now time.Time) (int64, error)
	DeletePermanently(ctx context.Context, tx Tx, id string) error

	CountByStatus(ctx context.Context, tx Tx) (map[model.EntitlementStatus]int, error)
	CountConfirmedByService(ctx context.Context, tx Tx) (map[string]int, error)
}
