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

// Ensure interface compliance
var _ repository.PlanRepository = (*planRepo)(nil)

type planRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

const planCols = `
  id, name, description, duration_days, is_lifetime, price_minor, perks,
  current_purchases, is_deleted, deleted_at, deleted_by, created_at, updated_at`

func (r *planRepo) Save(ctx context.Context, tx repository.Tx, p *model.MembershipPlan) error {
	const q = `
INSERT INTO membership_plans (
  id, name, description, duration_days, is_lifetime, price_minor, perks,
  current_purchases, is_deleted, deleted_at, deleted_by, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
  name=$2, description=$3, duration_days=$4, is_lifetime=$5, price_minor=$6,
  perks=$7, is_deleted=$9, deleted_at=$10, deleted_by=$11, updated_at=$13;`

	perks, err := json.Marshal(p.Perks)
	if err != nil {
		return fmt.Errorf("marshal perks: %w", err)
	}
	_, err = execSQL(ctx, r.pool, tx, q,
		p.ID, p.Name, p.Description, p.DurationDays, p.IsLifetime, p.PriceMinor, perks,
		p.CurrentPurchases, p.IsDeleted, p.DeletedAt, p.DeletedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	return nil
}

func (r *planRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MembershipPlan, error) {
	q := `SELECT` + planCols + ` FROM membership_plans WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	p, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *planRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.MembershipPlan, error) {
	q := `SELECT` + planCols + ` FROM membership_plans ORDER BY created_at;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()
	var out []*model.MembershipPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SoftDelete hides the plan from new sales. Sold entitlements keep their
// snapshot and are never touched.
func (r *planRepo) SoftDelete(ctx context.Context, tx repository.Tx, id, actorID string, now time.Time) error {
	const q = `
UPDATE membership_plans
   SET is_deleted = true, deleted_at = $2, deleted_by = $3, updated_at = $2
 WHERE id = $1 AND is_deleted = false;`
	ct, err := execSQL(ctx, r.pool, tx, q, id, now, actorID)
	if err != nil {
		return fmt.Errorf("soft delete plan: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *planRepo) IncrementPurchases(ctx context.Context, tx repository.Tx, id string, delta int) error {
	const q = `
UPDATE membership_plans
   SET current_purchases = GREATEST(current_purchases + $2, 0)
 WHERE id = $1;`
	ct, err := execSQL(ctx, r.pool, tx, q, id, delta)
	if err != nil {
		return fmt.Errorf("increment plan purchases: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *planRepo) SetPurchaseCount(ctx context.Context, tx repository.Tx, id string, count int) error {
	const q = `UPDATE membership_plans SET current_purchases = $2 WHERE id = $1;`
	ct, err := execSQL(ctx, r.pool, tx, q, id, count)
	if err != nil {
		return fmt.Errorf("set plan purchase count: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanPlan(row rowScanner) (*model.MembershipPlan, error) {
	var p model.MembershipPlan
	var perks []byte
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.DurationDays, &p.IsLifetime, &p.PriceMinor, &perks,
		&p.CurrentPurchases, &p.IsDeleted, &p.DeletedAt, &p.DeletedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(perks) > 0 {
		if err := json.Unmarshal(perks, &p.Perks); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return &p, nil
}
