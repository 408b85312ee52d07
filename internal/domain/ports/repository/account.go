package repository

import (
	"context"

	"membership-platform/internal/domain/model"
)

// AccountRepository is the port for registered user accounts. Entitlement
// creation never blocks on account existence; FindByPhone is used to link
// userId opportunistically.
type AccountRepository interface {
	Save(ctx context.Context, tx Tx, a *model.Account) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Account, error)
	FindByPhone(ctx context.Context, tx Tx, phone string) (*model.Account, error)
}
