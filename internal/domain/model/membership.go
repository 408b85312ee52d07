package model

import (
	"time"

	"membership-platform/internal/domain"
)

// UserMembership is a membership entitlement correlated to a phone number.
// The plan snapshot is immutable and independent of later plan edits.
type UserMembership struct {
	Entitlement

	PlanID       string
	PlanSnapshot PlanSnapshot
}

// NewUserMembership creates a membership for the given plan. Admin and
// offline purchases are confirmed out-of-band so they start with a successful
// payment state; in-app purchases start optimistically active with a pending
// payment and rely on the webhook confirmation. The strict
// PaymentState==success clause in IsCurrentlyActive is what keeps the
// optimistic path from granting premature access.
func NewUserMembership(id, phone string, plan *MembershipPlan, amount int64, method PurchaseMethod, orderID string, now time.Time) (*UserMembership, error) {
	if id == "" || plan == nil {
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

	m := &UserMembership{
		Entitlement: Entitlement{
			ID:             id,
			Phone:          normalized,
			StartDate:      now,
			IsLifetime:     plan.IsLifetime,
			Status:         EntitlementStatusActive,
			PaymentState:   pay,
			Amount:         amount,
			PurchaseMethod: method,
			OrderID:        orderID,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		PlanID:       plan.ID,
		PlanSnapshot: plan.Snapshot(),
	}
	if !plan.IsLifetime {
		end := now.AddDate(0, 0, plan.DurationDays)
		m.EndDate = &end
	}
	return m, nil
}
