package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"membership-platform/internal/domain"
	"membership-platform/internal/domain/model"
	"membership-platform/internal/domain/ports/repository"
)

var _ repository.RequestRepository = (*requestRepo)(nil)

type requestRepo struct {
	pool *pgxpool.Pool
}

func NewRequestRepo(pool *pgxpool.Pool) *requestRepo {
	return &requestRepo{pool: pool}
}

const requestCols = `
  id, reference, kind, phone, user_id, plan_id, service_id, club_id,
  coupon_code, amount, final_amount, status, rejection_reason, decided_at, decided_by,
  order_id, payment_link_id, payment_short_url, link_expires_at,
  metadata, created_at, updated_at`

func (r *requestRepo) Save(ctx context.Context, tx repository.Tx, req *model.AccessRequest) error {
	const q = `
INSERT INTO access_requests (
  id, reference, kind, phone, user_id, plan_id, service_id, club_id,
  coupon_code, amount, final_amount, status, rejection_reason, decided_at, decided_by,
  order_id, payment_link_id, payment_short_url, link_expires_at,
  metadata, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
ON CONFLICT (id) DO UPDATE SET
  user_id=$5, coupon_code=$9, amount=$10, final_amount=$11, status=$12,
  rejection_reason=$13, decided_at=$14, decided_by=$15, order_id=$16,
  payment_link_id=$17, payment_short_url=$18, link_expires_at=$19,
  metadata=$20, updated_at=$22;`

	meta, err := marshalMetadata(req.Metadata)
	if err != nil {
		return err
	}
	_, err = execSQL(ctx, r.pool, tx, q,
		req.ID, req.Reference, req.Kind, req.Phone, req.UserID,
		nullable(req.PlanID), nullable(req.ServiceID), nullable(req.ClubID),
		req.CouponCode, req.Amount, req.FinalAmount, req.Status, req.RejectionReason,
		req.DecidedAt, req.DecidedBy, nullable(req.OrderID), nullable(req.PaymentLinkID),
		req.PaymentShortURL, req.LinkExpiresAt, meta, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("save request: %w", err)
	}
	return nil
}

func (r *requestRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.AccessRequest, error) {
	q := `SELECT` + requestCols + ` FROM access_requests WHERE id = $1;`
	return r.pickOne(ctx, tx, q, id)
}

func (r *requestRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.AccessRequest, error) {
	q := `SELECT` + requestCols + ` FROM access_requests WHERE order_id = $1;`
	return r.pickOne(ctx, tx, q, orderID)
}

func (r *requestRepo) FindOpenByPhone(ctx context.Context, tx repository.Tx, phone string, kind model.RequestKind) (*model.AccessRequest, error) {
	q := `SELECT` + requestCols + `
  FROM access_requests
 WHERE phone = $1 AND kind = $2
   AND status IN ('pending', 'payment_sent', 'approved')
 ORDER BY created_at DESC
 LIMIT 1;`
	return r.pickOne(ctx, tx, q, phone, kind)
}

func (r *requestRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.RequestStatus, limit, offset int) ([]*model.AccessRequest, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := `SELECT` + requestCols + `
  FROM access_requests
 WHERE status = $1
 ORDER BY created_at DESC
 LIMIT $2 OFFSET $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()
	var out []*model.AccessRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *requestRepo) pickOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.AccessRequest, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func scanRequest(row rowScanner) (*model.AccessRequest, error) {
	var req model.AccessRequest
	var meta []byte
	var planID, serviceID, clubID, orderID, linkID *string
	err := row.Scan(
		&req.ID, &req.Reference, &req.Kind, &req.Phone, &req.UserID,
		&planID, &serviceID, &clubID,
		&req.CouponCode, &req.Amount, &req.FinalAmount, &req.Status, &req.RejectionReason,
		&req.DecidedAt, &req.DecidedBy, &orderID, &linkID,
		&req.PaymentShortURL, &req.LinkExpiresAt, &meta, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	req.PlanID = deref(planID)
	req.ServiceID = deref(serviceID)
	req.ClubID = deref(clubID)
	req.OrderID = deref(orderID)
	req.PaymentLinkID = deref(linkID)
	if err := unmarshalMetadata(meta, &req.Metadata); err != nil {
		return nil, err
	}
	return &req, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
