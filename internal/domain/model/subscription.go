package model

import (
	"time"

	"membership-platform/internal/domain"
)

// UserServiceSubscription is the service-scoped entitlement. Unlike
// memberships there is no explicit lifetime flag in storage: a NULL end_date
// means the subscription never expires. The repository sets IsLifetime from
// that on scan so the shared derivation rules apply unchanged.
type UserServiceSubscription struct {
	Entitlement

	ServiceID       string
	ServiceSnapshot ServiceSnapshot
}

// NewUserServiceSubscription mirrors NewUserMembership for services.
// A service with DurationDays == 0 yields a never-expiring subscription.
func NewUserServiceSubscription(id, phone string, svc *Service, amount int64, method PurchaseMethod, orderID string, now time.Time) (*UserServiceSubscription, error) {
	if id == "" || svc == nil {
		return nil, domain.ErrInvalidArgument
	}
	normalized := NormalizePhone(phone)
	if len(normalized) != 10 {
		return nil, domain.NewValidationError("phone", "must contain at least 10 digits")
	}
	if amount < 0 {
		return nil, domain.NewValidationError("amount", "must not be negative")
	}

	pay := PaymentStatePending
	if method == PurchaseMethodAdmin || method == PurchaseMethodOffline {
		pay = PaymentStateSuccess
	}

	s := &UserServiceSubscription{
		Entitlement: Entitlement{
			ID:             id,
			Phone:          normalized,
			StartDate:      now,
			IsLifetime:     svc.DurationDays == 0,
			Status:         EntitlementStatusActive,
			PaymentState:   pay,
			Amount:         amount,
			PurchaseMethod: method,
			OrderID:        orderID,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		ServiceID:       svc.ID,
		ServiceSnapshot: svc.Snapshot(),
	}
	if svc.DurationDays > 0 {
		end := now.AddDate(0, 0, svc.DurationDays)
		s.EndDate = &end
	}
	return s, nil
}
