package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"membership-platform/internal/domain/ports/adapter"
)

var _ adapter.NotificationSender = (*WhatsAppSender)(nil)

// WhatsAppSender posts payment-link notices to a WhatsApp business API
// relay. Delivery is best effort; callers log and continue on failure.
type WhatsAppSender struct {
	baseURL     string
	token       string
	senderPhone string
	client      *http.Client
	log         *zerolog.Logger
}

func NewWhatsAppSender(baseURL, token, senderPhone string, logger *zerolog.Logger) (*WhatsAppSender, error) {
	if baseURL == "" || token == "" {
		return nil, errors.New("whatsapp relay config empty")
	}
	l := logger.With().Str("component", "whatsapp_sender").Logger()
	return &WhatsAppSender{
		baseURL:     baseURL,
		token:       token,
		senderPhone: senderPhone,
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         &l,
	}, nil
}

func (s *WhatsAppSender) SendPaymentLink(ctx context.Context, notice adapter.PaymentLinkNotice) error {
	payload := map[string]any{
		"from": s.senderPhone,
		"to":   notice.Phone,
		"type": "template",
		"template": map[string]any{
			"name": "payment_link",
			"params": map[string]any{
				"context":  notice.Context,
				"amount":   fmt.Sprintf("%.2f", float64(notice.AmountMinor)/100),
				"link_url": notice.ShortURL,
			},
		},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("whatsapp: marshal message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/messages", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("whatsapp: relay returned %d", resp.StatusCode)
	}
	s.log.Debug().Str("to", notice.Phone).Msg("payment link notice sent")
	return nil
}
