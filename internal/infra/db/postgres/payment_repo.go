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

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentCols = `
  id, order_id, link_id, phone, provider, amount, currency, short_url,
  status, gateway_id, request_id, entitlement_id, entitlement_kind,
  expires_at, metadata, created_at, updated_at, paid_at`

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, order_id, link_id, phone, provider, amount, currency, short_url,
  status, gateway_id, request_id, entitlement_id, entitlement_kind,
  expires_at, metadata, created_at, updated_at, paid_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
ON CONFLICT (id) DO UPDATE SET
  status=$9, gateway_id=$10, request_id=$11, entitlement_id=$12,
  expires_at=$14, metadata=$15, updated_at=$17, paid_at=$18;`

	meta, err := marshalMetadata(p.Metadata)
	if err != nil {
		return err
	}
	_, err = execSQL(ctx, r.pool, tx, q,
		p.ID, p.OrderID, nullable(p.LinkID), p.Phone, p.Provider, p.Amount, p.Currency, p.ShortURL,
		p.Status, nullable(p.GatewayID), p.RequestID, p.EntitlementID, p.EntitlementKind,
		p.ExpiresAt, meta, p.CreatedAt, p.UpdatedAt, p.PaidAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateOrder
		}
		return fmt.Errorf("save payment: %w", err)
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT` + paymentCols + ` FROM payments WHERE id = $1;`
	return r.pickOne(ctx, tx, q, id)
}

func (r *paymentRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.Payment, error) {
	q := `SELECT` + paymentCols + ` FROM payments WHERE order_id = $1;`
	return r.pickOne(ctx, tx, q, orderID)
}

func (r *paymentRepo) ListByPhone(ctx context.Context, tx repository.Tx, phone string) ([]*model.Payment, error) {
	q := `SELECT` + paymentCols + ` FROM payments WHERE phone = $1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, phone)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *paymentRepo) pickOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.Payment, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func scanPayment(row rowScanner) (*model.Payment, error) {
	var p model.Payment
	var meta []byte
	var linkID, gatewayID *string
	err := row.Scan(
		&p.ID, &p.OrderID, &linkID, &p.Phone, &p.Provider, &p.Amount, &p.Currency, &p.ShortURL,
		&p.Status, &gatewayID, &p.RequestID, &p.EntitlementID, &p.EntitlementKind,
		&p.ExpiresAt, &meta, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt,
	)
	if err != nil {
		return nil, err
	}
	p.LinkID = deref(linkID)
	p.GatewayID = deref(gatewayID)
	if err := unmarshalMetadata(meta, &p.Metadata); err != nil {
		return nil, err
	}
	return &p, nil
}
