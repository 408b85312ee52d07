package model

import (
	"time"

	"membership-platform/internal/domain"
)

type RequestKind string

const (
	RequestKindMembership RequestKind = "membership"
	RequestKindService    RequestKind = "service"
	RequestKindClubJoin   RequestKind = "club_join"
)

type RequestStatus string

const (
	RequestStatusPending     RequestStatus = "pending"
	RequestStatusPaymentSent RequestStatus = "payment_sent"
	RequestStatusApproved    RequestStatus = "approved"
	RequestStatusRejected    RequestStatus = "rejected"
	RequestStatusWithdrawn   RequestStatus = "withdrawn"
	RequestStatusCompleted   RequestStatus = "completed"
)

// Open reports whether the status still blocks a new submission for the same
// phone. Withdrawn, rejected and completed requests do not.
func (s RequestStatus) Open() bool {
	return s == RequestStatusPending || s == RequestStatusPaymentSent || s == RequestStatusApproved
}

// AccessRequest is a join/purchase request awaiting admin decision. Approval
// fans out to payment-link creation; the webhook completes it.
type AccessRequest struct {
	ID        string // UUID
	Reference string // ULID, human-shareable token
	Kind      RequestKind
	Phone     string // normalized
	UserID    *string

	// Exactly one of these is set, matching Kind.
	PlanID    string
	ServiceID string
	ClubID    string

	CouponCode  string
	Amount      int64 // catalog amount at submission time
	FinalAmount int64 // after coupon discount, fixed at approval

	Status          RequestStatus
	RejectionReason string
	DecidedAt       *time.Time
	DecidedBy       *string

	// Gateway correlation, set when the payment link goes out.
	OrderID         string
	PaymentLinkID   string
	PaymentShortURL string
	LinkExpiresAt   *time.Time

	Metadata  Metadata
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewAccessRequest(id, reference string, kind RequestKind, phone, targetID, couponCode string, amount int64, now time.Time) (*AccessRequest, error) {
	if id == "" || targetID == "" {
		return nil, domain.ErrInvalidArgument
	}
	normalized := NormalizePhone(phone)
	if len(normalized) != 10 {
		return nil, domain.NewValidationError("phone", "must contain at least 10 digits")
	}
	if amount < 0 {
		return nil, domain.NewValidationError("amount", "must not be negative")
	}
	r := &AccessRequest{
		ID:         id,
		Reference:  reference,
		Kind:       kind,
		Phone:      normalized,
		CouponCode: couponCode,
		Amount:     amount,
		Status:     RequestStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	switch kind {
	case RequestKindMembership:
		r.PlanID = targetID
	case RequestKindService:
		r.ServiceID = targetID
	case RequestKindClubJoin:
		r.ClubID = targetID
	default:
		return nil, domain.ErrInvalidArgument
	}
	return r, nil
}

// MarkPaymentSent records the gateway correlation and transitions
// pending -> payment_sent. Only valid from pending.
func (r *AccessRequest) MarkPaymentSent(orderID, linkID, shortURL string, finalAmount int64, linkExpiry *time.Time, actorID string, now time.Time) error {
	if r.Status != RequestStatusPending {
		return domain.ErrRequestNotPending
	}
	r.Status = RequestStatusPaymentSent
	r.OrderID = orderID
	r.PaymentLinkID = linkID
	r.PaymentShortURL = shortURL
	r.FinalAmount = finalAmount
	r.LinkExpiresAt = linkExpiry
	r.DecidedAt = &now
	r.DecidedBy = &actorID
	r.UpdatedAt = now
	return nil
}

// Approve completes a zero-amount request directly, without a payment leg.
func (r *AccessRequest) Approve(actorID string, now time.Time) error {
	if r.Status != RequestStatusPending {
		return domain.ErrRequestNotPending
	}
	r.Status = RequestStatusCompleted
	r.FinalAmount = 0
	r.DecidedAt = &now
	r.DecidedBy = &actorID
	r.UpdatedAt = now
	return nil
}

// Reject requires a non-empty reason and is terminal.
func (r *AccessRequest) Reject(actorID, reason string, now time.Time) error {
	if reason == "" {
		return domain.NewValidationError("reason", "is required to reject a request")
	}
	if r.Status != RequestStatusPending {
		return domain.ErrRequestNotPending
	}
	r.Status = RequestStatusRejected
	r.RejectionReason = reason
	r.DecidedAt = &now
	r.DecidedBy = &actorID
	r.UpdatedAt = now
	return nil
}

// Withdraw lets the requester retract a still-pending request.
func (r *AccessRequest) Withdraw(now time.Time) error {
	if r.Status != RequestStatusPending {
		return domain.ErrRequestNotPending
	}
	r.Status = RequestStatusWithdrawn
	r.UpdatedAt = now
	return nil
}

// Complete marks the request finished after the webhook confirmed payment.
func (r *AccessRequest) Complete(now time.Time) error {
	if r.Status == RequestStatusCompleted {
		return nil
	}
	if r.Status != RequestStatusPaymentSent {
		return domain.ErrRequestNotPending
	}
	r.Status = RequestStatusCompleted
	r.UpdatedAt = now
	return nil
}
