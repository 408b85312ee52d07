package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"membership-platform/internal/domain/model"
	"membership-platform/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopGateway)(nil)

// NoopGateway is a simple in-memory gateway for dev mode and tests.
type NoopGateway struct {
	mu     sync.Mutex
	seq    int64
	orders map[string]int64 // order id -> amount
}

func NewNoopGateway() *NoopGateway {
	return &NoopGateway{orders: make(map[string]int64)}
}

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) next(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s_noop_%d", prefix, g.seq)
}

func (g *NoopGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes model.Metadata) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next("order")
	g.orders[id] = amountMinor
	return id, nil
}

func (g *NoopGateway) CreatePaymentLink(ctx context.Context, amountMinor int64, customer adapter.LinkCustomer, expireBy time.Time, notes model.Metadata) (string, adapter.PaymentLink, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	orderID := g.next("order")
	g.orders[orderID] = amountMinor
	link := adapter.PaymentLink{
		LinkID:    g.next("plink"),
		ShortURL:  "https://pay.example.test/" + orderID,
		ExpiresAt: expireBy,
	}
	return orderID, link, nil
}

// VerifyWebhookSignature accepts everything; the noop gateway exists so the
// rest of the flow can be exercised without real credentials.
func (g *NoopGateway) VerifyWebhookSignature(body []byte, signature string) bool { return true }

func (g *NoopGateway) RefundPayment(ctx context.Context, paymentID string, amountMinor int64, reason string) (adapter.RefundResult, error) {
	return adapter.RefundResult{
		ID:           "rfnd_" + paymentID,
		Status:       "processed",
		RefundAmount: amountMinor,
		RefundTime:   time.Now().UTC(),
	}, nil
}
