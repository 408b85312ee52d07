package repository

import (
	"context"

	"membership-platform/internal/domain/model"
)

// RequestRepository is the port for access requests.
type RequestRepository interface {
	Save(ctx context.Context, tx Tx, r *model.AccessRequest) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.AccessRequest, error)
	FindByOrderID(ctx context.Context, tx Tx, orderID string) (*model.AccessRequest, error)

	// FindOpenByPhone returns the request blocking a new submission for this
	// phone (pending / payment_sent / approved), or ErrNotFound.
	FindOpenByPhone(ctx context.Context, tx Tx, phone string, kind model.RequestKind) (*model.AccessRequest, error)

	ListByStatus(ctx context.Context, tx Tx, status model.RequestStatus, limit, offset int) ([]*model.AccessRequest, error)
}
