// File: internal/usecase/approval_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"membership-platform/internal/domain"
	"membership-platform/internal/domain/model"
	"membership-platform/internal/domain/ports/adapter"
	"membership-platform/internal/domain/ports/repository"
)

var _ ApprovalUseCase = (*approvalUC)(nil)

// ApprovalUseCase drives the request workflow:
// pending -> payment_sent -> completed, or pending -> rejected/withdrawn.
type ApprovalUseCase interface {
	// Submit files a new request. A second open request for the same phone
	// and kind is rejected with a ConflictError carrying the existing id and
	// CanWithdraw so the caller can offer withdraw-and-resubmit.
	Submit(ctx context.Context, kind model.RequestKind, phone, targetID, couponCode string) (*model.AccessRequest, error)

	// Approve fixes the final amount (coupon applied), creates the gateway
	// payment link, transitions to payment_sent and dispatches a best-effort
	// notification. Gateway failure leaves the request pending.
	// Zero-amount requests complete immediately without a payment leg.
	Approve(ctx context.Context, requestID, actorID string) (*model.AccessRequest, error)

	Reject(ctx context.Context, requestID, actorID, reason string) (*model.AccessRequest, error)
	Withdraw(ctx context.Context, requestID string) (*model.AccessRequest, error)

	GetByID(ctx context.Context, requestID string) (*model.AccessRequest, error)
	ListByStatus(ctx context.Context, status model.RequestStatus, limit, offset int) ([]*model.AccessRequest, error)
}

type approvalUC struct {
	requests repository.RequestRepository
	payments repository.PaymentRepository
	plans    repository.PlanRepository
	services repository.ServiceRepository
	gateway  adapter.PaymentGateway
	coupons  adapter.CouponValidator
	notifier adapter.NotificationSender
	linkTTL  time.Duration
	clock    domain.Clock
	log      *zerolog.Logger
}

func NewApprovalUseCase(
	requests repository.RequestRepository,
	payments repository.PaymentRepository,
	plans repository.PlanRepository,
	services repository.ServiceRepository,
	gateway adapter.PaymentGateway,
	coupons adapter.CouponValidator,
	notifier adapter.NotificationSender,
	linkTTL time.Duration,
	clock domain.Clock,
	logger *zerolog.Logger,
) *approvalUC {
	if linkTTL <= 0 {
		linkTTL = 24 * time.Hour
	}
	l := logger.With().Str("component", "ApprovalUC").Logger()
	return &approvalUC{
		requests: requests,
		payments: payments,
		plans:    plans,
		services: services,
		gateway:  gateway,
		coupons:  coupons,
		notifier: notifier,
		linkTTL:  linkTTL,
		clock:    clock,
		log:      &l,
	}
}

func (u *approvalUC) Submit(ctx context.Context, kind model.RequestKind, phone, targetID, couponCode string) (*model.AccessRequest, error) {
	if !model.IsValidPhone(phone) {
		return nil, domain.NewValidationError("phone", "must contain at least 10 digits")
	}
	normalized := model.NormalizePhone(phone)

	existing, err := u.requests.FindOpenByPhone(ctx, repository.NoTX, normalized, kind)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, &domain.ConflictError{
			Resource:    "request",
			ExistingID:  existing.ID,
			CanWithdraw: existing.Status == model.RequestStatusPending,
		}
	}

	amount, _, err := u.resolveTarget(ctx, kind, targetID)
	if err != nil {
		return nil, err
	}

	now := u.clock.Now()
	r, err := model.NewAccessRequest(uuid.NewString(), newReceipt(now), kind, normalized, targetID, couponCode, amount, now)
	if err != nil {
		return nil, err
	}
	if err := u.requests.Save(ctx, repository.NoTX, r); err != nil {
		return nil, err
	}
	u.log.Info().Str("request_id", r.ID).Str("kind", string(kind)).Msg("request submitted")
	return r, nil
}

func (u *approvalUC) Approve(ctx context.Context, requestID, actorID string) (*model.AccessRequest, error) {
	r, err := u.requests.FindByID(ctx, repository.NoTX, requestID)
	if err != nil {
		return nil, err
	}
	if r.Status != model.RequestStatusPending {
		return nil, domain.ErrRequestNotPending
	}

	amount, targetName, err := u.resolveTarget(ctx, r.Kind, u.targetID(r))
	if err != nil {
		return nil, err
	}

	final := amount
	if r.CouponCode != "" && u.coupons != nil {
		res, err := u.coupons.Validate(ctx, r.CouponCode, amount, r.Phone, string(r.Kind))
		if err != nil {
			return nil, &domain.ExternalServiceError{Service: "coupon-validator", Err: err}
		}
		if !res.Valid {
			return nil, domain.NewValidationError("coupon", res.Reason)
		}
		final = res.FinalAmount
	}

	now := u.clock.Now()

	// Free approvals (e.g. no-fee club joins) skip the payment leg entirely.
	if final <= 0 {
		if err := r.Approve(actorID, now); err != nil {
			return nil, err
		}
		if err := u.requests.Save(ctx, repository.NoTX, r); err != nil {
			return nil, err
		}
		u.log.Info().Str("request_id", r.ID).Msg("request approved without payment")
		return r, nil
	}

	// Gateway first: if link creation fails the request must remain pending,
	// with no partial transition.
	expireBy := now.Add(u.linkTTL)
	orderID, link, err := u.gateway.CreatePaymentLink(ctx, final, adapter.LinkCustomer{Phone: r.Phone}, expireBy, model.Metadata{
		"request_id": r.ID,
		"kind":       string(r.Kind),
	})
	if err != nil {
		return nil, &domain.ExternalServiceError{Service: u.gateway.Name(), Err: err}
	}

	if err := r.MarkPaymentSent(orderID, link.LinkID, link.ShortURL, final, &link.ExpiresAt, actorID, now); err != nil {
		return nil, err
	}
	if err := u.requests.Save(ctx, repository.NoTX, r); err != nil {
		return nil, err
	}

	p := &model.Payment{
		ID:              uuid.NewString(),
		OrderID:         orderID,
		LinkID:          link.LinkID,
		Phone:           r.Phone,
		Provider:        u.gateway.Name(),
		Amount:          final,
		Currency:        "INR",
		ShortURL:        link.ShortURL,
		Status:          model.PaymentStatePending,
		RequestID:       &r.ID,
		EntitlementKind: r.Kind,
		ExpiresAt:       &link.ExpiresAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}

	// Fire-and-forget relative to the state transition.
	if u.notifier != nil {
		notice := adapter.PaymentLinkNotice{
			Phone:       r.Phone,
			AmountMinor: final,
			ShortURL:    link.ShortURL,
			Context:     targetName,
		}
		if err := u.notifier.SendPaymentLink(ctx, notice); err != nil {
			u.log.Warn().Err(err).Str("request_id", r.ID).Msg("payment link notification failed")
		}
	}

	u.log.Info().Str("request_id", r.ID).Str("order_id", orderID).Msg("request approved, payment link sent")
	return r, nil
}

func (u *approvalUC) Reject(ctx context.Context, requestID, actorID, reason string) (*model.AccessRequest, error) {
	r, err := u.requests.FindByID(ctx, repository.NoTX, requestID)
	if err != nil {
		return nil, err
	}
	if err := r.Reject(actorID, reason, u.clock.Now()); err != nil {
		return nil, err
	}
	if err := u.requests.Save(ctx, repository.NoTX, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (u *approvalUC) Withdraw(ctx context.Context, requestID string) (*model.AccessRequest, error) {
	r, err := u.requests.FindByID(ctx, repository.NoTX, requestID)
	if err != nil {
		return nil, err
	}
	if err := r.Withdraw(u.clock.Now()); err != nil {
		return nil, err
	}
	if err := u.requests.Save(ctx, repository.NoTX, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (u *approvalUC) GetByID(ctx context.Context, requestID string) (*model.AccessRequest, error) {
	return u.requests.FindByID(ctx, repository.NoTX, requestID)
}

func (u *approvalUC) ListByStatus(ctx context.Context, status model.RequestStatus, limit, offset int) ([]*model.AccessRequest, error) {
	return u.requests.ListByStatus(ctx, repository.NoTX, status, limit, offset)
}

func (u *approvalUC) targetID(r *model.AccessRequest) string {
	switch r.Kind {
	case model.RequestKindMembership:
		return r.PlanID
	case model.RequestKindService:
		return r.ServiceID
	default:
		return r.ClubID
	}
}

// resolveTarget checks the purchase target is sellable and returns its
// current price and display name. Club joins have no catalog entry and no fee.
func (u *approvalUC) resolveTarget(ctx context.Context, kind model.RequestKind, targetID string) (int64, string, error) {
	switch kind {
	case model.RequestKindMembership:
		plan, err := u.plans.FindByID(ctx, repository.NoTX, targetID)
		if err != nil {
			return 0, "", err
		}
		if !plan.Available() {
			return 0, "", domain.ErrPlanUnavailable
		}
		return plan.PriceMinor, plan.Name, nil
	case model.RequestKindService:
		svc, err := u.services.FindByID(ctx, repository.NoTX, targetID)
		if err != nil {
			return 0, "", err
		}
		if !svc.Available() {
			return 0, "", domain.ErrPlanUnavailable
		}
		return svc.PriceMinor, svc.Name, nil
	case model.RequestKindClubJoin:
		return 0, "club membership", nil
	default:
		return 0, "", domain.ErrInvalidArgument
	}
}
