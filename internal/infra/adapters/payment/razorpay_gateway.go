package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"membership-platform/internal/domain/model"
	"membership-platform/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*RazorpayGateway)(nil)

// RazorpayGateway implements adapter.PaymentGateway against the Razorpay
// REST API: /v1/orders for intents, /v1/payment_links for hosted links and
// /v1/payments/{id}/refund for refunds. Webhook bodies are authenticated
// with an HMAC-SHA256 over the raw payload.
type RazorpayGateway struct {
	keyID         string
	keySecret     string
	webhookSecret string
	baseURL       string
	client        *http.Client
}

func NewRazorpayGateway(keyID, keySecret, webhookSecret, baseURL string) (*RazorpayGateway, error) {
	if keyID == "" || keySecret == "" {
		return nil, errors.New("razorpay credentials empty")
	}
	if baseURL == "" {
		baseURL = "https://api.razorpay.com"
	}
	return &RazorpayGateway{
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
		client:        &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (g *RazorpayGateway) Name() string { return "razorpay" }

func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes model.Metadata) (string, error) {
	payload := map[string]any{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		payload["notes"] = notes
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := g.post(ctx, "/v1/orders", payload, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("razorpay: order response missing id")
	}
	return out.ID, nil
}

func (g *RazorpayGateway) CreatePaymentLink(ctx context.Context, amountMinor int64, customer adapter.LinkCustomer, expireBy time.Time, notes model.Metadata) (string, adapter.PaymentLink, error) {
	payload := map[string]any{
		"amount":    amountMinor,
		"currency":  "INR",
		"expire_by": expireBy.Unix(),
		"customer": map[string]any{
			"name":    customer.Name,
			"contact": customer.Phone,
			"email":   customer.Email,
		},
		"notify": map[string]any{"sms": false, "email": false},
	}
	if len(notes) > 0 {
		payload["notes"] = notes
	}
	var out struct {
		ID       string `json:"id"`
		OrderID  string `json:"order_id"`
		ShortURL string `json:"short_url"`
		ExpireBy int64  `json:"expire_by"`
	}
	if err := g.post(ctx, "/v1/payment_links", payload, &out); err != nil {
		return "", adapter.PaymentLink{}, err
	}
	if out.ID == "" || out.ShortURL == "" {
		return "", adapter.PaymentLink{}, errors.New("razorpay: payment link response incomplete")
	}
	orderID := out.OrderID
	if orderID == "" {
		// Older API versions only expose the link id; the webhook carries it
		// back in payment_link.entity, so it still correlates.
		orderID = out.ID
	}
	link := adapter.PaymentLink{LinkID: out.ID, ShortURL: out.ShortURL, ExpiresAt: expireBy}
	if out.ExpireBy > 0 {
		link.ExpiresAt = time.Unix(out.ExpireBy, 0).UTC()
	}
	return orderID, link, nil
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header value
// against an HMAC-SHA256 of the raw body using the webhook secret.
func (g *RazorpayGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	if g.webhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (g *RazorpayGateway) RefundPayment(ctx context.Context, paymentID string, amountMinor int64, reason string) (adapter.RefundResult, error) {
	payload := map[string]any{
		"amount": amountMinor,
	}
	if reason != "" {
		payload["notes"] = map[string]string{"reason": reason}
	}
	var out struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
		CreatedAt int64  `json:"created_at"`
	}
	if err := g.post(ctx, "/v1/payments/"+paymentID+"/refund", payload, &out); err != nil {
		return adapter.RefundResult{}, err
	}
	if out.ID == "" {
		return adapter.RefundResult{}, errors.New("razorpay: refund response missing id")
	}
	res := adapter.RefundResult{ID: out.ID, Status: out.Status, RefundAmount: out.Amount, RefundTime: time.Now().UTC()}
	if out.CreatedAt > 0 {
		res.RefundTime = time.Unix(out.CreatedAt, 0).UTC()
	}
	return res, nil
}

func (g *RazorpayGateway) post(ctx context.Context, path string, payload any, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("razorpay: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("razorpay: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("razorpay: %s returned %d: %s %s", path, resp.StatusCode, apiErr.Error.Code, apiErr.Error.Description)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("razorpay: decode %s response: %w", path, err)
	}
	return nil
}
