// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"membership-platform/internal/domain"
	"membership-platform/internal/domain/model"
	"membership-platform/internal/domain/ports/repository"
)

var _ PaymentUseCase = (*paymentUC)(nil)

// PaymentUseCase is the webhook-facing side of the payment flow. The HTTP
// layer verifies the gateway signature; everything here trusts its input and
// only cares about idempotent state convergence keyed on the order id.
type PaymentUseCase interface {
	// HandlePaymentSuccess processes a captured payment. Re-delivery of the
	// same webhook is a no-op. Depending on what the payment was for, it
	// either confirms an already-created entitlement or completes an approved
	// request by creating the entitlement now.
	HandlePaymentSuccess(ctx context.Context, orderID, gatewayPaymentID string) (*model.Payment, error)

	// HandlePaymentFailure records a failed attempt. The entitlement (if any)
	// stays pending so the payer can retry against the same order.
	HandlePaymentFailure(ctx context.Context, orderID, failureReason string) (*model.Payment, error)

	GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	ListByPhone(ctx context.Context, phone string) ([]*model.Payment, error)
}

type paymentUC struct {
	payments    repository.PaymentRepository
	requests    repository.RequestRepository
	memberships repository.MembershipRepository
	subs        repository.SubscriptionRepository
	plans       repository.PlanRepository
	services    repository.ServiceRepository
	accounts    repository.AccountRepository
	txManager   repository.TransactionManager
	clock       domain.Clock
	log         *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	requests repository.RequestRepository,
	memberships repository.MembershipRepository,
	subs repository.SubscriptionRepository,
	plans repository.PlanRepository,
	services repository.ServiceRepository,
	accounts repository.AccountRepository,
	txManager repository.TransactionManager,
	clock domain.Clock,
	logger *zerolog.Logger,
) *paymentUC {
	l := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{
		payments:    payments,
		requests:    requests,
		memberships: memberships,
		subs:        subs,
		plans:       plans,
		services:    services,
		accounts:    accounts,
		txManager:   txManager,
		clock:       clock,
		log:         &l,
	}
}

func (u *paymentUC) HandlePaymentSuccess(ctx context.Context, orderID, gatewayPaymentID string) (*model.Payment, error) {
	p, err := u.payments.FindByOrderID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, err
	}
	if p.Status == model.PaymentStateSuccess {
		// Webhook re-delivery.
		return p, nil
	}

	now := u.clock.Now()

	err = u.txManager.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		switch {
		case p.RequestID != nil:
			if err := u.completeRequest(ctx, tx, p, gatewayPaymentID); err != nil {
				return err
			}
		case p.EntitlementID != nil:
			if err := u.confirmEntitlement(ctx, tx, p, gatewayPaymentID); err != nil {
				return err
			}
		default:
			return domain.ErrInvalidArgument
		}

		p.Status = model.PaymentStateSuccess
		p.GatewayID = gatewayPaymentID
		p.PaidAt = &now
		p.UpdatedAt = now
		return u.payments.Save(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	u.log.Info().Str("order_id", orderID).Str("gateway_payment_id", gatewayPaymentID).Msg("payment captured")
	return p, nil
}

func (u *paymentUC) HandlePaymentFailure(ctx context.Context, orderID, failureReason string) (*model.Payment, error) {
	p, err := u.payments.FindByOrderID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, err
	}
	// A success that already landed wins over a late failure event.
	if p.Status == model.PaymentStateSuccess || p.Status == model.PaymentStateFailed {
		return p, nil
	}
	now := u.clock.Now()
	p.Status = model.PaymentStateFailed
	if failureReason != "" {
		if p.Metadata == nil {
			p.Metadata = model.Metadata{}
		}
		p.Metadata["failure_reason"] = failureReason
	}
	p.UpdatedAt = now
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	u.log.Warn().Str("order_id", orderID).Str("reason", failureReason).Msg("payment failed")
	return p, nil
}

func (u *paymentUC) GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	return u.payments.FindByOrderID(ctx, repository.NoTX, orderID)
}

func (u *paymentUC) ListByPhone(ctx context.Context, phone string) ([]*model.Payment, error) {
	return u.payments.ListByPhone(ctx, repository.NoTX, model.NormalizePhone(phone))
}

// confirmEntitlement handles the direct-purchase path: the entitlement row
// already exists in payment-pending state and only needs confirmation.
func (u *paymentUC) confirmEntitlement(ctx context.Context, tx repository.Tx, p *model.Payment, gatewayPaymentID string) error {
	now := u.clock.Now()
	userID := u.lookupUserID(ctx, tx, p.Phone)

	switch p.EntitlementKind {
	case model.RequestKindMembership:
		m, err := u.memberships.FindByOrderID(ctx, tx, p.OrderID)
		if err != nil {
			return err
		}
		changed, err := m.ConfirmPayment(gatewayPaymentID, userID, now)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return u.memberships.Save(ctx, tx, m)
	case model.RequestKindService:
		s, err := u.subs.FindByOrderID(ctx, tx, p.OrderID)
		if err != nil {
			return err
		}
		changed, err := s.ConfirmPayment(gatewayPaymentID, userID, now)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return u.subs.Save(ctx, tx, s)
	default:
		return domain.ErrInvalidArgument
	}
}

// completeRequest handles the approval path: payment arrived for an approved
// request, so the entitlement is created now, already confirmed, and the
// request is closed out.
func (u *paymentUC) completeRequest(ctx context.Context, tx repository.Tx, p *model.Payment, gatewayPaymentID string) error {
	r, err := u.requests.FindByID(ctx, tx, *p.RequestID)
	if err != nil {
		return err
	}
	now := u.clock.Now()
	userID := u.lookupUserID(ctx, tx, r.Phone)

	switch r.Kind {
	case model.RequestKindMembership:
		plan, err := u.plans.FindByID(ctx, tx, r.PlanID)
		if err != nil {
			return err
		}
		m, err := model.NewUserMembership(uuid.NewString(), r.Phone, plan, p.Amount, model.PurchaseMethodPaymentLink, p.OrderID, now)
		if err != nil {
			return err
		}
		if _, err := m.ConfirmPayment(gatewayPaymentID, userID, now); err != nil {
			return err
		}
		if err := u.memberships.Save(ctx, tx, m); err != nil {
			return err
		}
		p.EntitlementID = &m.ID
		if err := u.plans.IncrementPurchases(ctx, tx, plan.ID, 1); err != nil {
			u.log.Warn().Err(err).Str("plan_id", plan.ID).Msg("purchase counter increment failed")
		}
	case model.RequestKindService:
		svc, err := u.services.FindByID(ctx, tx, r.ServiceID)
		if err != nil {
			return err
		}
		s, err := model.NewUserServiceSubscription(uuid.NewString(), r.Phone, svc, p.Amount, model.PurchaseMethodPaymentLink, p.OrderID, now)
		if err != nil {
			return err
		}
		if _, err := s.ConfirmPayment(gatewayPaymentID, userID, now); err != nil {
			return err
		}
		if err := u.subs.Save(ctx, tx, s); err != nil {
			return err
		}
		p.EntitlementID = &s.ID
		if err := u.services.IncrementPurchases(ctx, tx, svc.ID, 1); err != nil {
			u.log.Warn().Err(err).Str("service_id", svc.ID).Msg("purchase counter increment failed")
		}
	case model.RequestKindClubJoin:
		// Club joins carry no entitlement row; completing the request is the
		// whole effect.
	default:
		return domain.ErrInvalidArgument
	}

	if err := r.Complete(now); err != nil {
		// Tolerate replays racing ahead of us.
		if !errors.Is(err, domain.ErrRequestNotPending) {
			return err
		}
	}
	return u.requests.Save(ctx, tx, r)
}

func (u *paymentUC) lookupUserID(ctx context.Context, tx repository.Tx, phone string) *string {
	if u.accounts == nil {
		return nil
	}
	acc, err := u.accounts.FindByPhone(ctx, tx, phone)
	if err != nil || acc == nil {
		return nil
	}
	return &acc.ID
}
