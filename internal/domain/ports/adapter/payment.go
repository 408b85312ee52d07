package adapter

import (
	"context"
	"time"

	"membership-platform/internal/domain/model"
)

// LinkCustomer identifies the payer on a hosted payment link.
type LinkCustomer struct {
	Name  string
	Phone string
	Email string
}

// PaymentLink is the gateway-hosted collection object.
type PaymentLink struct {
	LinkID    string
	ShortURL  string
	ExpiresAt time.Time
}

// RefundResult captures a minimal, provider-agnostic refund outcome.
type RefundResult struct {
	ID           string
	Status       string
	RefundAmount int64
	RefundTime   time.Time
}

// PaymentGateway is the hex port for payment providers. Webhook deliveries
// are trusted only after VerifyWebhookSignature passes; correlation back to
// local state is always via the order id.
type PaymentGateway interface {
	Name() string

	// CreateOrder registers a payment intent and returns the gateway order id.
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes model.Metadata) (orderID string, err error)

	// CreatePaymentLink creates a hosted link tied to a fresh order.
	CreatePaymentLink(ctx context.Context, amountMinor int64, customer LinkCustomer, expireBy time.Time, notes model.Metadata) (orderID string, link PaymentLink, err error)

	// VerifyWebhookSignature checks the HMAC signature on a raw webhook body.
	VerifyWebhookSignature(body []byte, signature string) bool

	// RefundPayment refunds a captured payment by its gateway payment id.
	RefundPayment(ctx context.Context, paymentID string, amountMinor int64, reason string) (RefundResult, error)
}
