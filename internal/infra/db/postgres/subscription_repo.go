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

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

// subscriptionRepo persists service subscriptions. There is no is_lifetime
// column: a NULL end_date is the lifetime signal, and the scanner derives the
// in-memory flag from it.
type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionCols = `
  id, phone, user_id, service_id, service_snapshot, start_date, end_date,
  status, payment_state, amount, purchase_method, order_id, payment_id,
  is_deleted, deleted_at, deleted_by, cancelled_at, cancelled_by, cancellation_reason,
  metadata, created_at, updated_at`

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.UserServiceSubscription) error {
	const q = `
INSERT INTO user_service_subscriptions (
  id, phone, user_id, service_id, service_snapshot, start_date, end_date,
  status, payment_state, amount, purchase_method, order_id, payment_id,
  is_deleted, deleted_at, deleted_by, cancelled_at, cancelled_by, cancellation_reason,
  metadata, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
ON CONFLICT (id) DO UPDATE SET
  phone=$2, user_id=$3, service_id=$4, service_snapshot=$5, start_date=$6, end_date=$7,
  status=$8, payment_state=$9, amount=$10, purchase_method=$11, order_id=$12, payment_id=$13,
  is_deleted=$14, deleted_at=$15, deleted_by=$16, cancelled_at=$17, cancelled_by=$18,
  cancellation_reason=$19, metadata=$20, updated_at=$22;`

	snapshot, err := json.Marshal(s.ServiceSnapshot)
	if err != nil {
		return fmt.Errorf("marshal service snapshot: %w", err)
	}
	meta, err := marshalMetadata(s.Metadata)
	if err != nil {
		return err
	}
	_, err = execSQL(ctx, r.pool, tx, q,
		s.ID, s.Phone, s.UserID, s.ServiceID, snapshot, s.StartDate, s.EndDate,
		s.Status, s.PaymentState, s.Amount, s.PurchaseMethod, s.OrderID, nullable(s.PaymentID),
		s.IsDeleted, s.DeletedAt, s.DeletedBy, s.CancelledAt, s.CancelledBy, s.CancellationReason,
		meta, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateOrder
		}
		return fmt.Errorf("save subscription: %w", err)
	}
	return nil
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UserServiceSubscription, error) {
	q := `SELECT` + subscriptionCols + ` FROM user_service_subscriptions WHERE id = $1;`
	return r.pickOne(ctx, tx, q, id)
}

func (r *subscriptionRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.UserServiceSubscription, error) {
	q := `SELECT` + subscriptionCols + ` FROM user_service_subscriptions WHERE order_id = $1;`
	return r.pickOne(ctx, tx, q, orderID)
}

func (r *subscriptionRepo) FindActiveByPhone(ctx context.Context, tx repository.Tx, phone string, now time.Time) (*model.UserServiceSubscription, error) {
	q := `SELECT` + subscriptionCols + `
  FROM user_service_subscriptions
 WHERE phone = $1
   AND is_deleted = false
   AND status = 'active'
   AND payment_state = 'success'
   AND start_date <= $2
   AND (end_date IS NULL OR end_date > $2)
 ORDER BY end_date DESC NULLS FIRST
 LIMIT 1;`
	return r.pickOne(ctx, tx, q, phone, now)
}

func (r *subscriptionRepo) ListByPhone(ctx context.Context, tx repository.Tx, phone string) ([]*model.UserServiceSubscription, error) {
	q := `SELECT` + subscriptionCols + ` FROM user_service_subscriptions WHERE phone = $1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, phone)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()
	var out []*model.UserServiceSubscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *subscriptionRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	const q = `
UPDATE user_service_subscriptions
   SET status = 'expired', updated_at = $1
 WHERE status = 'active'
   AND payment_state = 'success'
   AND is_deleted = false
   AND end_date IS NOT NULL
   AND end_date <= $1;`
	ct, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		return 0, fmt.Errorf("expire subscriptions: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (r *subscriptionRepo) DeletePermanently(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM user_service_subscriptions WHERE id = $1;`
	ct, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *subscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.EntitlementStatus]int, error) {
	const q = `SELECT status, COUNT(1) FROM user_service_subscriptions GROUP BY status;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("count subscriptions: %w", err)
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

func (r *subscriptionRepo) CountConfirmedByService(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	const q = `
SELECT service_id, COUNT(1)
  FROM user_service_subscriptions
 WHERE payment_state = 'success' AND status <> 'refunded'
 GROUP BY service_id;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("count confirmed by service: %w", err)
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var serviceID string
		var n int
		if err := rows.Scan(&serviceID, &n); err != nil {
			return nil, err
		}
		out[serviceID] = n
	}
	return out, rows.Err()
}

func (r *subscriptionRepo) pickOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.UserServiceSubscription, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	s, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func scanSubscription(row rowScanner) (*model.UserServiceSubscription, error) {
	var s model.UserServiceSubscription
	var snapshot, meta []byte
	var paymentID *string
	err := row.Scan(
		&s.ID, &s.Phone, &s.UserID, &s.ServiceID, &snapshot, &s.StartDate, &s.EndDate,
		&s.Status, &s.PaymentState, &s.Amount, &s.PurchaseMethod, &s.OrderID, &paymentID,
		&s.IsDeleted, &s.DeletedAt, &s.DeletedBy, &s.CancelledAt, &s.CancelledBy, &s.CancellationReason,
		&meta, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if paymentID != nil {
		s.PaymentID = *paymentID
	}
	// NULL end_date is the lifetime signal for service subscriptions.
	s.IsLifetime = s.EndDate == nil
	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &s.ServiceSnapshot); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	if err := unmarshalMetadata(meta, &s.Metadata); err != nil {
		return nil, err
	}
	return &s, nil
}
