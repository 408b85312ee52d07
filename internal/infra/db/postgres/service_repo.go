package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"membership-platform/internal/domain"
	"membership-platform/internal/domain/model"
	"membership-platform/internal/domain/ports/repository"
)

var _ repository.ServiceRepository = (*serviceRepo)(nil)

type serviceRepo struct {
	pool *pgxpool.Pool
}

func NewServiceRepo(pool *pgxpool.Pool) *serviceRepo {
	return &serviceRepo{pool: pool}
}

const serviceCols = `
  id, name, description, duration_days, price_minor, perks,
  current_purchases, is_deleted, deleted_at, deleted_by, created_at, updated_at`

func (r *serviceRepo) Save(ctx context.Context, tx repository.Tx, s *model.Service) error {
	const q = `
INSERT INTO services (
  id, name, description, duration_days, price_minor, perks,
  current_purchases, is_deleted, deleted_at, deleted_by, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
  name=$2, description=$3, duration_days=$4, price_minor=$5, perks=$6,
  is_deleted=$8, deleted_at=$9, deleted_by=$10, updated_at=$12;`

	perks, err := json.Marshal(s.Perks)
	if err != nil {
		return fmt.Errorf("marshal perks: %w", err)
	}
	_, err = execSQL(ctx, r.pool, tx, q,
		s.ID, s.Name, s.Description, s.DurationDays, s.PriceMinor, perks,
		s.CurrentPurchases, s.IsDeleted, s.DeletedAt, s.DeletedBy, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save service: %w", err)
	}
	return nil
}

func (r *serviceRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Service, error) {
	q := `SELECT` + serviceCols + ` FROM services WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	s, err := scanService(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *serviceRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Service, error) {
	q := `SELECT` + serviceCols + ` FROM services ORDER BY created_at;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()
	var out []*model.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *serviceRepo) SoftDelete(ctx context.Context, tx repository.Tx, id, actorID string, now time.Time) error {
	const q = `
UPDATE services
   SET is_deleted = true, deleted_at = $2, deleted_by = $3, updated_at = $2
 WHERE id = $1 AND is_deleted = false;`
	ct, err := execSQL(ctx, r.pool, tx, q, id, now, actorID)
	if err != nil {
		return fmt.Errorf("soft delete service: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *serviceRepo) IncrementPurchases(ctx context.Context, tx repository.Tx, id string, delta int) error {
	const q = `
UPDATE services
   SET current_purchases = GREATEST(current_purchases + $2, 0)
 WHERE id = $1;`
	ct, err := execSQL(ctx, r.pool, tx, q, id, delta)
	if err != nil {
		return fmt.Errorf("increment service purchases: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *serviceRepo) SetPurchaseCount(ctx context.Context, tx repository.Tx, id string, count int) error {
	const q = `UPDATE services SET current_purchases = $2 WHERE id = $1;`
	ct, err := execSQL(ctx, r.pool, tx, q, id, count)
	if err != nil {
		return fmt.Errorf("set service purchase count: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanService(row rowScanner) (*model.Service, error) {
	var s model.Service
	var perks []byte
	err := row.Scan(
		&s.ID, &s.Name, &s.Description, &s.DurationDays, &s.PriceMinor, &perks,
		&s.CurrentPurchases, &s.IsDeleted, &s.DeletedAt, &s.DeletedBy, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(perks) > 0 {
		if err := json.Unmarshal(perks, &s.Perks); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return &s, nil
}
