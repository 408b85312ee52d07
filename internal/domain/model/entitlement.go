package model

import (
	"math"
	"time"

	"membership-platform/internal/domain"
)

type EntitlementStatus string

const (
	EntitlementStatusPending   EntitlementStatus = "pending"
	EntitlementStatusActive    EntitlementStatus = "active"
	EntitlementStatusExpired   EntitlementStatus = "expired"
	EntitlementStatusCancelled EntitlementStatus = "cancelled"
	EntitlementStatusRefunded  EntitlementStatus = "refunded"
)

type PaymentState string

const (
	PaymentStatePending  PaymentState = "pending"
	PaymentStateSuccess  PaymentState = "success"
	PaymentStateFailed   PaymentState = "failed"
	PaymentStateRefunded PaymentState = "refunded"
)

// DisplayStatus is the read-time label shown to admins. It is never persisted;
// CurrentStatus derives it fresh from stored fields on every call.
type DisplayStatus string

const (
	DisplayDeleted   DisplayStatus = "deleted"
	DisplayCancelled DisplayStatus = "cancelled"
	DisplayRefunded  DisplayStatus = "refunded"
	DisplayPending   DisplayStatus = "pending"
	DisplayActive    DisplayStatus = "active"
	DisplayUpcoming  DisplayStatus = "upcoming"
	DisplayExpired   DisplayStatus = "expired"
)

type PurchaseMethod string

const (
	PurchaseMethodApp         PurchaseMethod = "app"
	PurchaseMethodAdmin       PurchaseMethod = "admin"
	PurchaseMethodOffline     PurchaseMethod = "offline"
	PurchaseMethodPaymentLink PurchaseMethod = "payment_link"
)

const deletedByAdminReason = "Deleted by admin"
const refundedReason = "Payment refunded"

// Metadata is a typed key-value bag serialized as JSONB.
type Metadata map[string]string

// Entitlement holds the lifecycle fields shared by UserMembership and
// UserServiceSubscription. Status is the authoritative persisted state;
// PaymentState is an independent axis (an entitlement can be active with a
// pending payment right after optimistic in-app creation).
//
// IsLifetime is persisted for memberships; for service subscriptions the
// repository derives it from a NULL end_date on scan.
type Entitlement struct {
	ID     string // UUID
	Phone  string // normalized, last 10 digits
	UserID *string

	StartDate  time.Time
	EndDate    *time.Time
	IsLifetime bool

	Status       EntitlementStatus
	PaymentState PaymentState

	Amount         int64 // minor units
	PurchaseMethod PurchaseMethod
	OrderID        string // unique gateway correlation key
	PaymentID      string // gateway payment id, set on confirmation

	IsDeleted bool
	DeletedAt *time.Time
	DeletedBy *string

	CancelledAt        *time.Time
	CancelledBy        *string
	CancellationReason string

	Metadata  Metadata
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsCurrentlyActive is the single feature-gating predicate: not deleted,
// status active, payment confirmed, started, and (lifetime or window open).
// The end boundary is strict: EndDate == now is no longer active.
func (e *Entitlement) IsCurrentlyActive(now time.Time) bool {
	if e.IsDeleted {
		return false
	}
	if e.Status != EntitlementStatusActive || e.PaymentState != PaymentStateSuccess {
		return false
	}
	if e.StartDate.After(now) {
		return false
	}
	if e.IsLifetime {
		return true
	}
	return e.EndDate != nil && e.EndDate.After(now)
}

// IsExpiredAt reports whether the window has passed: not deleted, not in a
// terminal cancel state, not lifetime, and EndDate <= now.
func (e *Entitlement) IsExpiredAt(now time.Time) bool {
	if e.IsDeleted || e.Status == EntitlementStatusCancelled || e.Status == EntitlementStatusRefunded {
		return false
	}
	if e.IsLifetime || e.EndDate == nil {
		return false
	}
	return !e.EndDate.After(now)
}

// DaysRemaining returns the whole days left (ceiling), floored at 0.
// Lifetime entitlements return -1.
func (e *Entitlement) DaysRemaining(now time.Time) int {
	if e.IsLifetime {
		return -1
	}
	if e.EndDate == nil || !e.EndDate.After(now) {
		return 0
	}
	return int(math.Ceil(e.EndDate.Sub(now).Hours() / 24))
}

// CurrentStatus resolves overlapping conditions deterministically:
// deleted > cancelled/refunded > pending > active > upcoming > expired.
func (e *Entitlement) CurrentStatus(now time.Time) DisplayStatus {
	switch {
	case e.IsDeleted:
		return DisplayDeleted
	case e.Status == EntitlementStatusCancelled:
		return DisplayCancelled
	case e.Status == EntitlementStatusRefunded:
		return DisplayRefunded
	case e.Status == EntitlementStatusPending || e.PaymentState != PaymentStateSuccess:
		return DisplayPending
	case e.IsLifetime && !e.StartDate.After(now):
		return DisplayActive
	case !e.StartDate.After(now) && e.EndDate != nil && e.EndDate.After(now):
		return DisplayActive
	case e.StartDate.After(now):
		return DisplayUpcoming
	default:
		return DisplayExpired
	}
}

// ConfirmPayment records a successful gateway payment. Calling it twice for
// the same payment is a no-op: the returned bool tells the caller whether
// state actually changed so counters are never double-incremented.
func (e *Entitlement) ConfirmPayment(paymentID string, userID *string, now time.Time) (bool, error) {
	if e.Status == EntitlementStatusCancelled || e.Status == EntitlementStatusRefunded {
		return false, domain.ErrAlreadyCancelled
	}
	if e.PaymentState == PaymentStateSuccess {
		return false, nil
	}
	e.PaymentID = paymentID
	e.PaymentState = PaymentStateSuccess
	e.Status = EntitlementStatusActive
	if userID != nil && e.UserID == nil {
		e.UserID = userID
	}
	e.UpdatedAt = now
	return true, nil
}

// Cancel transitions to the terminal cancelled state.
func (e *Entitlement) Cancel(actorID, reason string, now time.Time) error {
	if e.Status == EntitlementStatusCancelled || e.Status == EntitlementStatusRefunded {
		return domain.ErrAlreadyCancelled
	}
	e.Status = EntitlementStatusCancelled
	e.CancelledAt = &now
	e.CancelledBy = &actorID
	e.CancellationReason = reason
	e.UpdatedAt = now
	return nil
}

// MarkRefunded flips both axes to refunded. Idempotent.
func (e *Entitlement) MarkRefunded(actorID string, now time.Time) error {
	if e.Status == EntitlementStatusRefunded {
		return nil
	}
	e.Status = EntitlementStatusRefunded
	e.PaymentState = PaymentStateRefunded
	e.CancelledAt = &now
	e.CancelledBy = &actorID
	e.CancellationReason = refundedReason
	e.UpdatedAt = now
	return nil
}

// Extend pushes EndDate forward by whole calendar days, preserving
// time-of-day. EndDate is monotonic: negative or zero extensions are rejected.
func (e *Entitlement) Extend(additionalDays int, now time.Time) error {
	if additionalDays <= 0 {
		return domain.NewValidationError("additionalDays", "must be a positive number of days")
	}
	if e.Status == EntitlementStatusCancelled || e.Status == EntitlementStatusRefunded {
		return domain.ErrAlreadyCancelled
	}
	if e.IsLifetime {
		return domain.NewValidationError("additionalDays", "lifetime entitlements cannot be extended")
	}
	base := now
	if e.EndDate != nil {
		base = *e.EndDate
	}
	end := base.AddDate(0, 0, additionalDays)
	e.EndDate = &end
	e.UpdatedAt = now
	return nil
}

// SoftDelete hides the record and, when it would otherwise still read as
// pending or active, forces it to cancelled in the same mutation so a deleted
// entitlement can never grant access. Idempotent.
func (e *Entitlement) SoftDelete(actorID string, now time.Time) {
	if e.IsDeleted {
		return
	}
	e.IsDeleted = true
	e.DeletedAt = &now
	e.DeletedBy = &actorID
	if e.Status == EntitlementStatusActive || e.Status == EntitlementStatusPending {
		e.Status = EntitlementStatusCancelled
		e.CancelledAt = &now
		e.CancelledBy = &actorID
		e.CancellationReason = deletedByAdminReason
	}
	e.UpdatedAt = now
}

// Restore un-hides a soft-deleted record. It deliberately does not revert the
// cancellation that SoftDelete forced; an admin has to re-activate or extend
// separately. Recorded as a product decision in DESIGN.md.
func (e *Entitlement) Restore(now time.Time) error {
	if !e.IsDeleted {
		return domain.ErrNotDeleted
	}
	e.IsDeleted = false
	e.DeletedAt = nil
	e.DeletedBy = nil
	e.UpdatedAt = now
	return nil
}
