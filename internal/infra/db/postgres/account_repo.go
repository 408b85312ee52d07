package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"membership-platform/internal/domain"
	"membership-platform/internal/domain/model"
	"membership-platform/internal/domain/ports/repository"
)

var _ repository.AccountRepository = (*accountRepo)(nil)

type accountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *accountRepo {
	return &accountRepo{pool: pool}
}

func (r *accountRepo) Save(ctx context.Context, tx repository.Tx, a *model.Account) error {
	const q = `
INSERT INTO accounts (id, phone, name, email, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET phone=$2, name=$3, email=$4;`
	_, err := execSQL(ctx, r.pool, tx, q, a.ID, a.Phone, a.Name, a.Email, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (r *accountRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Account, error) {
	const q = `SELECT id, phone, name, email, created_at FROM accounts WHERE id = $1;`
	return r.pickOne(ctx, tx, q, id)
}

func (r *accountRepo) FindByPhone(ctx context.Context, tx repository.Tx, phone string) (*model.Account, error) {
	const q = `SELECT id, phone, name, email, created_at FROM accounts WHERE phone = $1;`
	return r.pickOne(ctx, tx, q, phone)
}

func (r *accountRepo) pickOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.Account, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	var a model.Account
	if err := row.Scan(&a.ID, &a.Phone, &a.Name, &a.Email, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
