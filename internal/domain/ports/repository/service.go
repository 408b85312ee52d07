package repository

import (
	"context"
	"time"

	"membership-platform/internal/domain/model"
)

// ServiceRepository is the port for the service catalog.
type ServiceRepository interface {
	Save(ctx context.Context, tx Tx, svc *model.Service) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Service, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Service, error)
	SoftDelete(ctx context.Context, tx Tx, id, actorID string, now time.Time) error

	IncrementPurchases(ctx context.Context, tx Tx, id string, delta int) error
	SetPurchaseCount(ctx context.Context, tx Tx, id string, count int) error
}
