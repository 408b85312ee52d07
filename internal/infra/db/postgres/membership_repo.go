package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"membership-platform/internal/domain"
	"membership-platform/internal/domain/model"
	"membership-platform/internal/domain/ports/repository"
)

// Ensure membershipRepo implements repository.MembershipRepository
var _ repository.MembershipRepository = (*membershipRepo)(nil)

type membershipRepo struct {
	pool *pgxpool.Pool
}

func NewMembershipRepo(pool *pgxpool.Pool) *membershipRepo {
	return &membershipRepo{pool: pool}
}

const membershipCols = `
  id, phone, user_id, plan_id, plan_snapshot, start_date, end_date, is_lifetime,
  status, payment_state, amount, purchase_method, order_id, payment_id,
  is_deleted, deleted_at, deleted_by, cancelled_at, cancelled_by, cancellation_reason,
  metadata, created_at, updated_at`

func (r *membershipRepo) Save(ctx context.Context, tx repository.Tx, m *model.UserMembership) error {
	const q = `
INSERT INTO user_memberships (
  id, phone, user_id, plan_id, plan_snapshot, start_date, end_date, is_lifetime,
  status, payment_state, amount, purchase_method, order_id, payment_id,
  is_deleted, deleted_at, deleted_by, cancelled_at, cancelled_by, cancellation_reason,
  metadata, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
ON CONFLICT (id) DO UPDATE SET
  phone=$2, user_id=$3, plan_id=$4, plan_snapshot=$5, start_date=$6, end_date=$7,
  is_lifetime=$8, status=$9, payment_state=$10, amount=$11, purchase_method=$12,
  order_id=$13, payment_id=$14, is_deleted=$15, deleted_at=$16, deleted_by=$17,
  cancelled_at=$18, cancelled_by=$19, cancellation_reason=$20, metadata=$21, updated_at=$23;`

	snapshot, err := json.Marshal(m.PlanSnapshot)
	if err != nil {
		return fmt.Errorf("marshal plan snapshot: %w", err)
	}
	meta, err := marshalMetadata(m.Metadata)
	if err != nil {
		return err
	}
	_, err = execSQL(ctx, r.pool, tx, q,
		m.ID, m.Phone, m.UserID, m.PlanID, snapshot, m.StartDate, m.EndDate, m.IsLifetime,
		m.Status, m.PaymentState, m.Amount, m.PurchaseMethod, m.OrderID, nullable(m.PaymentID),
		m.IsDeleted, m.DeletedAt, m.DeletedBy, m.CancelledAt, m.CancelledBy, m.CancellationReason,
		meta, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateOrder
		}
		return fmt.Errorf("save membership: %w", err)
	}
	return nil
}

func (r *membershipRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UserMembership, error) {
	q := `SELECT` + membershipCols + ` FROM user_memberships WHERE id = $1;`
	return r.pickOne(ctx, tx, q, id)
}

func (r *membershipRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.UserMembership, error) {
	q := `SELECT` + membershipCols + ` FROM user_memberships WHERE order_id = $1;`
	return r.pickOne(ctx, tx, q, orderID)
}

// FindActiveByPhone evaluates the gating predicate in SQL so paging admins and
// feature gates share one source of truth. The end boundary is strict.
func (r *membershipRepo) FindActiveByPhone(ctx context.Context, tx repository.Tx, phone string, now time.Time) (*model.UserMembership, error) {
	q := `SELECT` + membershipCols + `
  FROM user_memberships
 WHERE phone = $1
   AND is_deleted = false
   AND status = 'active'
   AND payment_state = 'success'
   AND start_date <= $2
   AND (is_lifetime OR end_date > $2)
 ORDER BY is_lifetime DESC, end_date DESC NULLS FIRST
 LIMIT 1;`
	return r.pickOne(ctx, tx, q, phone, now)
}

func (r *membershipRepo) ListByPhone(ctx context.Context, tx repository.Tx, phone string) ([]*model.UserMembership, error) {
	q := `SELECT` + membershipCols + ` FROM user_memberships WHERE phone = $1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, phone)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()
	var out []*model.UserMembership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *membershipRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	const q = `
UPDATE user_memberships
   SET status = 'expired', updated_at = $1
 WHERE status = 'active'
   AND payment_state = 'success'
   AND is_deleted = false
   AND NOT is_lifetime
   AND end_date IS NOT NULL
   AND end_date <= $1;`
	ct, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		return 0, fmt.Errorf("expire memberships: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (r *membershipRepo) DeletePermanently(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM user_memberships WHERE id = $1;`
	ct, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *membershipRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.EntitlementStatus]int, error) {
	const q = `SELECT status, COUNT(1) FROM user_memberships GROUP BY status;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("count memberships: %w", err)
	}
	defer rows.Close()
	out := map[model.EntitlementStatus]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[model.EntitlementStatus(status)] = n
	}
	return out, rows.Err()
}

func (r *membershipRepo) CountConfirmedByPlan(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	const q = `
SELECT plan_id, COUNT(1)
  FROM user_memberships
 WHERE payment_state = 'success' AND status <> 'refunded'
 GROUP BY plan_id;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("count confirmed by plan: %w", err)
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var planID string
		var n int
		if err := rows.Scan(&planID, &n); err != nil {
			return nil, err
		}
		out[planID] = n
	}
	return out, rows.Err()
}

func (r *membershipRepo) pickOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.UserMembership, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	m, err := scanMembership(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMembership(row rowScanner) (*model.UserMembership, error) {
	var m model.UserMembership
	var snapshot, meta []byte
	var paymentID *string
	err := row.Scan(
		&m.ID, &m.Phone, &m.UserID, &m.PlanID, &snapshot, &m.StartDate, &m.EndDate, &m.IsLifetime,
		&m.Status, &m.PaymentState, &m.Amount, &m.PurchaseMethod, &m.OrderID, &paymentID,
		&m.IsDeleted, &m.DeletedAt, &m.DeletedBy, &m.CancelledAt, &m.CancelledBy, &m.CancellationReason,
		&meta, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if paymentID != nil {
		m.PaymentID = *paymentID
	}
	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &m.PlanSnapshot); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	if err := unmarshalMetadata(meta, &m.Metadata); err != nil {
		return nil, err
	}
	return &m, nil
}

func marshalMetadata(meta model.Metadata) ([]byte, error) {
	if meta == nil {
		return nil, nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return b, nil
}

func unmarshalMetadata(b []byte, dest *model.Metadata) error {
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return domain.ErrReadDatabaseRow
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
