package model

import "time"

// Payment records the gateway order / payment-link pair for one entitlement
// purchase. OrderID is the unique correlation key the webhook uses to find
// its way back to the request and entitlement.
type Payment struct {
	ID      string // UUID
	OrderID string // gateway order id, unique
	LinkID  string // payment link id, if a link was issued
	Phone   string // normalized

	Provider string // e.g. "razorpay"
	Amount   int64  // minor units
	Currency string // e.g. "INR"
	ShortURL string

	Status    PaymentState
	GatewayID string // gateway payment id after success

	RequestID       *string
	EntitlementID   *string
	EntitlementKind RequestKind

	// Mirrors the gateway-side link expiry; display/cleanup only, the gateway
	// enforces the real deadline.
	ExpiresAt *time.Time

	Metadata  Metadata
	CreatedAt time.Time
	UpdatedAt time.Time
	PaidAt    *time.Time
}
