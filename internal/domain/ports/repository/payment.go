package repository

import (
	"context"

	"membership-platform/internal/domain/model"
)

// PaymentRepository is the port for gateway payment records.
type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByOrderID(ctx context.Context, tx Tx, orderID string) (*model.Payment, error)
	ListByPhone(ctx context.Context, tx Tx, phone string) ([]*model.Payment, error)
}
