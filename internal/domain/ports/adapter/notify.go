package adapter

import "context"

// PaymentLinkNotice is the payload for a payment-link notification.
type PaymentLinkNotice struct {
	Phone       string // normalized
	AmountMinor int64
	ShortURL    string
	Context     string // e.g. plan or service name shown in the template
}

// NotificationSender delivers best-effort notices. Callers must treat
// failures as log-and-continue: notification delivery is never allowed to
// fail the state transition that triggered it.
type NotificationSender interface {
	SendPaymentLink(ctx context.Context, notice PaymentLinkNotice) error
}
