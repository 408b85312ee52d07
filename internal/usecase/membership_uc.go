// File: internal/usecase/membership_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"membership-platform/internal/domain"
	"membership-platform/internal/domain/model"
	"membership-platform/internal/domain/ports/adapter"
	"membership-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ MembershipUseCase = (*membershipUC)(nil)

// MembershipUseCase implements the membership entitlement lifecycle.
type MembershipUseCase interface {
	// Purchase creates a membership entitlement. Admin/offline purchases are
	// confirmed immediately; app purchases open a gateway order and wait for
	// the webhook.
	Purchase(ctx context.Context, phone, planID string, method model.PurchaseMethod) (*model.UserMembership, error)

	Cancel(ctx context.Context, id, actorID, reason string) (*model.UserMembership, error)
	Extend(ctx context.Context, id string, additionalDays int) (*model.UserMembership, error)
	Refund(ctx context.Context, id, actorID, reason string) (*model.UserMembership, error)
	SoftDelete(ctx context.Context, id, actorID string) (*model.UserMembership, error)
	Restore(ctx context.Context, id string) (*model.UserMembership, error)
	PermanentDelete(ctx context.Context, id string) error

	GetByID(ctx context.Context, id string) (*model.UserMembership, error)
	ListByPhone(ctx context.Context, phone string) ([]*model.UserMembership, error)

	// FindActiveByPhone is the single active-lookup contract; feature gates
	// must not re-derive the predicate. Returns nil without error when no
	// membership is currently active.
	FindActiveByPhone(ctx context.Context, phone string) (*model.UserMembership, error)
	IsCurrentlyActive(ctx context.Context, phone string) (bool, error)

	// ExpireDue runs the lazy-expiry sweep and returns how many rows it
	// flipped to expired.
	ExpireDue(ctx context.Context) (int64, error)
}

type membershipUC struct {
	memberships repository.MembershipRepository
	plans       repository.PlanRepository
	payments    repository.PaymentRepository
	accounts    repository.AccountRepository
	gateway     adapter.PaymentGateway
	clock       domain.Clock
	log         *zerolog.Logger
}

func NewMembershipUseCase(
	memberships repository.MembershipRepository,
	plans repository.PlanRepository,
	payments repository.PaymentRepository,
	accounts repository.AccountRepository,
	gateway adapter.PaymentGateway,
	clock domain.Clock,
	logger *zerolog.Logger,
) *membershipUC {
	l := logger.With().Str("component", "MembershipUC").Logger()
	return &membershipUC{
		memberships: memberships,
		plans:       plans,
		payments:    payments,
		accounts:    accounts,
		gateway:     gateway,
		clock:       clock,
		log:         &l,
	}
}

func (u *membershipUC) Purchase(ctx context.Context, phone, planID string, method model.PurchaseMethod) (*model.UserMembership, error) {
	plan, err := u.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, err
	}
	if !plan.Available() {
		return nil, domain.ErrPlanUnavailable
	}

	now := u.clock.Now()
	amount := plan.PriceMinor
	receipt := newReceipt(now)

	var orderID string
	switch method {
	case model.PurchaseMethodAdmin, model.PurchaseMethodOffline:
		// No gateway order exists for out-of-band payments; a local receipt
		// keeps the orderId uniqueness invariant intact.
		orderID = "manual_" + receipt
	case model.PurchaseMethodApp:
		orderID, err = u.gateway.CreateOrder(ctx, amount, "INR", receipt, model.Metadata{"plan_id": planID})
		if err != nil {
			return nil, &domain.ExternalServiceError{Service: u.gateway.Name(), Err: err}
		}
	default:
		return nil, domain.NewValidationError("method", fmt.Sprintf("unsupported purchase method %q", method))
	}

	m, err := model.NewUserMembership(uuid.NewString(), phone, plan, amount, method, orderID, now)
	if err != nil {
		return nil, err
	}
	u.linkAccount(ctx, &m.Entitlement)

	if err := u.memberships.Save(ctx, repository.NoTX, m); err != nil {
		return nil, err
	}

	// Separate write from the entitlement insert; a crash in between leaves
	// the counter stale until the reconciler repairs it.
	if err := u.plans.IncrementPurchases(ctx, repository.NoTX, plan.ID, 1); err != nil {
		u.log.Warn().Err(err).Str("plan_id", plan.ID).Msg("purchase counter increment failed")
	}

	if method == model.PurchaseMethodApp {
		p := &model.Payment{
			ID:              uuid.NewString(),
			OrderID:         orderID,
			Phone:           m.Phone,
			Provider:        u.gateway.Name(),
			Amount:          amount,
			Currency:        "INR",
			Status:          model.PaymentStatePending,
			EntitlementID:   &m.ID,
			EntitlementKind: model.RequestKindMembership,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
			return nil, err
		}
	}

	u.log.Info().Str("membership_id", m.ID).Str("plan_id", plan.ID).Str("method", string(method)).Msg("membership created")
	return m, nil
}

func (u *membershipUC) Cancel(ctx context.Context, id, actorID, reason string) (*model.UserMembership, error) {
	if reason == "" {
		return nil, domain.NewValidationError("reason", "is required to cancel")
	}
	m, err := u.memberships.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if err := m.Cancel(actorID, reason, u.clock.Now()); err != nil {
		return nil, err
	}
	if err := u.memberships.Save(ctx, repository.NoTX, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (u *membershipUC) Extend(ctx context.Context, id string, additionalDays int) (*model.UserMembership, error) {
	m, err := u.memberships.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if err := m.Extend(additionalDays, u.clock.Now()); err != nil {
		return nil, err
	}
	if err := u.memberships.Save(ctx, repository.NoTX, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Refund issues a gateway refund for confirmed gateway payments, then marks
// the entitlement refunded and releases the plan counter. A gateway failure
// aborts before any local transition.
func (u *membershipUC) Refund(ctx context.Context, id, actorID, reason string) (*model.UserMembership, error) {
	m, err := u.memberships.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if m.Status == model.EntitlementStatusRefunded {
		return m, nil
	}
	if m.PaymentID != "" && m.PaymentState == model.PaymentStateSuccess {
		if _, err := u.gateway.RefundPayment(ctx, m.PaymentID, m.Amount, reason); err != nil {
			return nil, &domain.ExternalServiceError{Service: u.gateway.Name(), Err: err}
		}
	}
	if err := m.MarkRefunded(actorID, u.clock.Now()); err != nil {
		return nil, err
	}
	if err := u.memberships.Save(ctx, repository.NoTX, m); err != nil {
		return nil, err
	}
	if err := u.plans.IncrementPurchases(ctx, repository.NoTX, m.PlanID, -1); err != nil {
		u.log.Warn().Err(err).Str("plan_id", m.PlanID).Msg("purchase counter decrement failed")
	}
	u.log.Info().Str("membership_id", m.ID).Msg("membership refunded")
	return m, nil
}

func (u *membershipUC) SoftDelete(ctx context.Context, id, actorID string) (*model.UserMembership, error) {
	m, err := u.memberships.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	m.SoftDelete(actorID, u.clock.Now())
	if err := u.memberships.Save(ctx, repository.NoTX, m); err != nil {
		return nil, err
	}
	u.log.Info().Str("membership_id", m.ID).Str("deleted_by", actorID).Msg("membership soft-deleted")
	return m, nil
}

func (u *membershipUC) Restore(ctx context.Context, id string) (*model.UserMembership, error) {
	m, err := u.memberships.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if err := m.Restore(u.clock.Now()); err != nil {
		return nil, err
	}
	if err := u.memberships.Save(ctx, repository.NoTX, m); err != nil {
		return nil, err
	}
	return m, nil
}

// PermanentDelete removes a soft-deleted row for good.
func (u *membershipUC) PermanentDelete(ctx context.Context, id string) error {
	m, err := u.memberships.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return err
	}
	if !m.IsDeleted {
		return domain.ErrNotDeleted
	}
	return u.memberships.DeletePermanently(ctx, repository.NoTX, id)
}

func (u *membershipUC) GetByID(ctx context.Context, id string) (*model.UserMembership, error) {
	return u.memberships.FindByID(ctx, repository.NoTX, id)
}

func (u *membershipUC) ListByPhone(ctx context.Context, phone string) ([]*model.UserMembership, error) {
	return u.memberships.ListByPhone(ctx, repository.NoTX, model.NormalizePhone(phone))
}

func (u *membershipUC) FindActiveByPhone(ctx context.Context, phone string) (*model.UserMembership, error) {
	m, err := u.memberships.FindActiveByPhone(ctx, repository.NoTX, model.NormalizePhone(phone), u.clock.Now())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (u *membershipUC) IsCurrentlyActive(ctx context.Context, phone string) (bool, error) {
	m, err := u.FindActiveByPhone(ctx, phone)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

func (u *membershipUC) ExpireDue(ctx context.Context) (int64, error) {
	return u.memberships.ExpireDue(ctx, repository.NoTX, u.clock.Now())
}

// linkAccount attaches the user id when an account already exists for the
// phone. Absence is not an error; creation never blocks on registration.
func (u *membershipUC) linkAccount(ctx context.Context, e *model.Entitlement) {
	if u.accounts == nil {
		return
	}
	acc, err := u.accounts.FindByPhone(ctx, repository.NoTX, e.Phone)
	if err != nil || acc == nil {
		return
	}
	e.UserID = &acc.ID
}
