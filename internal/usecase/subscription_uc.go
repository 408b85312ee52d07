// File: internal/usecase/subscription_uc.go
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

var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase is the service-subscription twin of MembershipUseCase.
// Same lifecycle, simpler shape: lifetime is signalled by a missing end date.
type SubscriptionUseCase interface {
	Purchase(ctx context.Context, phone, serviceID string, method model.PurchaseMethod) (*model.UserServiceSubscription, error)

	Cancel(ctx context.Context, id, actorID, reason string) (*model.UserServiceSubscription, error)
	Extend(ctx context.Context, id string, additionalDays int) (*model.UserServiceSubscription, error)
	Refund(ctx context.Context, id, actorID string) (*model.UserServiceSubscription, error)
	SoftDelete(ctx context.Context, id, actorID string) (*model.UserServiceSubscription, error)
	Restore(ctx context.Context, id string) (*model.UserServiceSubscription, error)
	PermanentDelete(ctx context.Context, id string) error

	GetByID(ctx context.Context, id string) (*model.UserServiceSubscription, error)
	ListByPhone(ctx context.Context, phone string) ([]*model.UserServiceSubscription, error)
	FindActiveByPhone(ctx context.Context, phone string) (*model.UserServiceSubscription, error)
	IsCurrentlyActive(ctx context.Context, phone string) (bool, error)

	ExpireDue(ctx context.Context) (int64, error)
}

type subscriptionUC struct {
	subs     repository.SubscriptionRepository
	services repository.ServiceRepository
	payments repository.PaymentRepository
	accounts repository.AccountRepository
	gateway  adapter.PaymentGateway
	clock    domain.Clock
	log      *zerolog.Logger
}

func NewSubscriptionUseCase(
	subs repository.SubscriptionRepository,
	services repository.ServiceRepository,
	payments repository.PaymentRepository,
	accounts repository.AccountRepository,
	gateway adapter.PaymentGateway,
	clock domain.Clock,
	logger *zerolog.Logger,
) *subscriptionUC {
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	return &subscriptionUC{
		subs:     subs,
		services: services,
		payments: payments,
		accounts: accounts,
		gateway:  gateway,
		clock:    clock,
		log:      &l,
	}
}

func (u *subscriptionUC) Purchase(ctx context.Context, phone, serviceID string, method model.PurchaseMethod) (*model.UserServiceSubscription, error) {
	svc, err := u.services.FindByID(ctx, repository.NoTX, serviceID)
	if err != nil {
		return nil, err
	}
	if !svc.Available() {
		return nil, domain.ErrPlanUnavailable
	}

	now := u.clock.Now()
	amount := svc.PriceMinor
	receipt := newReceipt(now)

	var orderID string
	switch method {
	case model.PurchaseMethodAdmin, model.PurchaseMethodOffline:
		orderID = "manual_" + receipt
	case model.PurchaseMethodApp:
		orderID, err = u.gateway.CreateOrder(ctx, amount, "INR", receipt, model.Metadata{"service_id": serviceID})
		if err != nil {
			return nil, &domain.ExternalServiceError{Service: u.gateway.Name(), Err: err}
		}
	default:
		return nil, domain.NewValidationError("method", fmt.Sprintf("unsupported purchase method %q", method))
	}

	s, err := model.NewUserServiceSubscription(uuid.NewString(), phone, svc, amount, method, orderID, now)
	if err != nil {
		return nil, err
	}
	if acc, err := u.accounts.FindByPhone(ctx, repository.NoTX, s.Phone); err == nil && acc != nil {
		s.UserID = &acc.ID
	}

	if err := u.subs.Save(ctx, repository.NoTX, s); err != nil {
		return nil, err
	}
	if err := u.services.IncrementPurchases(ctx, repository.NoTX, svc.ID, 1); err != nil {
		u.log.Warn().Err(err).Str("service_id", svc.ID).Msg("purchase counter increment failed")
	}

	if method == model.PurchaseMethodApp {
		p := &model.Payment{
			ID:              uuid.NewString(),
			OrderID:         orderID,
			Phone:           s.Phone,
			Provider:        u.gateway.Name(),
			Amount:          amount,
			Currency:        "INR",
			Status:          model.PaymentStatePending,
			EntitlementID:   &s.ID,
			EntitlementKind: model.RequestKindService,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
			return nil, err
		}
	}

	u.log.Info().Str("subscription_id", s.ID).Str("service_id", svc.ID).Msg("subscription created")
	return s, nil
}

func (u *subscriptionUC) Cancel(ctx context.Context, id, actorID, reason string) (*model.UserServiceSubscription, error) {
	if reason == "" {
		return nil, domain.NewValidationError("reason", "is required to cancel")
	}
	s, err := u.subs.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if err := s.Cancel(actorID, reason, u.clock.Now()); err != nil {
		return nil, err
	}
	if err := u.subs.Save(ctx, repository.NoTX, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (u *subscriptionUC) Extend(ctx context.Context, id string, additionalDays int) (*model.UserServiceSubscription, error) {
	s, err := u.subs.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if err := s.Extend(additionalDays, u.clock.Now()); err != nil {
		return nil, err
	}
	if err := u.subs.Save(ctx, repository.NoTX, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (u *subscriptionUC) Refund(ctx context.Context, id, actorID string) (*model.UserServiceSubscription, error) {
	s, err := u.subs.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if s.Status == model.EntitlementStatusRefunded {
		return s, nil
	}
	if s.PaymentID != "" && s.PaymentState == model.PaymentStateSuccess {
		if _, err := u.gateway.RefundPayment(ctx, s.PaymentID, s.Amount, "subscription refund"); err != nil {
			return nil, &domain.ExternalServiceError{Service: u.gateway.Name(), Err: err}
		}
	}
	if err := s.MarkRefunded(actorID, u.clock.Now()); err != nil {
		return nil, err
	}
	if err := u.subs.Save(ctx, repository.NoTX, s); err != nil {
		return nil, err
	}
	if err := u.services.IncrementPurchases(ctx, repository.NoTX, s.ServiceID, -1); err != nil {
		u.log.Warn().Err(err).Str("service_id", s.ServiceID).Msg("purchase counter decrement failed")
	}
	return s, nil
}

func (u *subscriptionUC) SoftDelete(ctx context.Context, id, actorID string) (*model.UserServiceSubscription, error) {
	s, err := u.subs.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	s.SoftDelete(actorID, u.clock.Now())
	if err := u.subs.Save(ctx, repository.NoTX, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (u *subscriptionUC) Restore(ctx context.Context, id string) (*model.UserServiceSubscription, error) {
	s, err := u.subs.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if err := s.Restore(u.clock.Now()); err != nil {
		return nil, err
	}
	if err := u.subs.Save(ctx, repository.NoTX, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (u *subscriptionUC) PermanentDelete(ctx context.Context, id string) error {
	s, err := u.subs.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return err
	}
	if !s.IsDeleted {
		return domain.ErrNotDeleted
	}
	return u.subs.DeletePermanently(ctx, repository.NoTX, id)
}

func (u *subscriptionUC) GetByID(ctx context.Context, id string) (*model.UserServiceSubscription, error) {
	return u.subs.FindByID(ctx, repository.NoTX, id)
}

func (u *subscriptionUC) ListByPhone(ctx context.Context, phone string) ([]*model.UserServiceSubscription, error) {
	return u.subs.ListByPhone(ctx, repository.NoTX, model.NormalizePhone(phone))
}

func (u *subscriptionUC) FindActiveByPhone(ctx context.Context, phone string) (*model.UserServiceSubscription, error) {
	s, err := u.subs.FindActiveByPhone(ctx, repository.NoTX, model.NormalizePhone(phone), u.clock.Now())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (u *subscriptionUC) IsCurrentlyActive(ctx context.Context, phone string) (bool, error) {
	s, err := u.FindActiveByPhone(ctx, phone)
	if err != nil {
		return false, err
	}
	return s != nil, nil
}

func (u *subscriptionUC) ExpireDue(ctx context.Context) (int64, error) {
	return u.subs.ExpireDue(ctx, repository.NoTX, u.clock.Now())
}
