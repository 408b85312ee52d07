package notify

import (
	"context"
	"sync"

	"membership-platform/internal/domain/ports/adapter"
)

var _ adapter.NotificationSender = (*NoopSender)(nil)

// NoopSender records notices in memory; used in dev mode and tests.
type NoopSender struct {
	mu   sync.Mutex
	sent []adapter.PaymentLinkNotice
}

func NewNoopSender() *NoopSender { return &NoopSender{} }

func (s *NoopSender) SendPaymentLink(ctx context.Context, notice adapter.PaymentLinkNotice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, notice)
	return nil
}

// Sent returns a copy of everything delivered so far.
func (s *NoopSender) Sent() []adapter.PaymentLinkNotice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]adapter.PaymentLinkNotice, len(s.sent))
	copy(out, s.sent)
	return out
}
