package web

import (
	"encoding/json"
	"io"
	"net/http"

	"membership-platform/internal/infra/metrics"
	red "membership-platform/internal/infra/redis"
)

const maxWebhookBody = 1 << 20 // 1 MiB

// webhookEvent is the slice of the gateway payload we care about. Order id
// is the only correlation key; everything else is advisory.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
		PaymentLink struct {
			Entity struct {
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment_link"`
	} `json:"payload"`
}

func (e *webhookEvent) orderID() string {
	if id := e.Payload.Payment.Entity.OrderID; id != "" {
		return id
	}
	return e.Payload.PaymentLink.Entity.OrderID
}

func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, red.WebhookKey("payment"), s.webhookBurst, s.webhookWindow)
		if err != nil {
			// Redis being down must not drop payment confirmations.
			s.log.Warn().Err(err).Msg("webhook rate limiter unavailable")
		} else if !ok {
			metrics.IncWebhook("rate_limited")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limited"})
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		metrics.IncWebhook("read_error")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unreadable body"})
		return
	}

	signature := r.Header.Get("X-Razorpay-Signature")
	if !s.webhookVerify(body, signature) {
		metrics.IncWebhook("bad_signature")
		s.log.Warn().Str("remote", r.RemoteAddr).Msg("webhook signature rejected")
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid signature"})
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		metrics.IncWebhook("bad_payload")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed payload"})
		return
	}
	orderID := event.orderID()
	if orderID == "" {
		metrics.IncWebhook("bad_payload")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing order id"})
		return
	}

	switch event.Event {
	case "payment.captured", "payment_link.paid":
		p, err := s.payments.HandlePaymentSuccess(ctx, orderID, event.Payload.Payment.Entity.ID)
		if err != nil {
			metrics.IncWebhook("error")
			writeError(w, err)
			return
		}
		metrics.IncWebhook("processed")
		metrics.IncPayment(string(p.Status))
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case "payment.failed":
		p, err := s.payments.HandlePaymentFailure(ctx, orderID, event.Payload.Payment.Entity.ErrorDescription)
		if err != nil {
			metrics.IncWebhook("error")
			writeError(w, err)
			return
		}
		metrics.IncWebhook("processed")
		metrics.IncPayment(string(p.Status))
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	default:
		// Unknown events are acknowledged so the gateway stops retrying.
		metrics.IncWebhook("ignored")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
	}
}
