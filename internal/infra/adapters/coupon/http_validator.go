package coupon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"membership-platform/internal/domain/ports/adapter"
)

var _ adapter.CouponValidator = (*HTTPValidator)(nil)

// HTTPValidator asks an external coupon service whether a code applies to a
// purchase and what the discounted amount is.
type HTTPValidator struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPValidator(baseURL, apiKey string) (*HTTPValidator, error) {
	if baseURL == "" {
		return nil, errors.New("coupon service url empty")
	}
	return &HTTPValidator{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (v *HTTPValidator) Validate(ctx context.Context, code string, amountMinor int64, phone, purchaseType string) (adapter.CouponResult, error) {
	payload := map[string]any{
		"code":          code,
		"amount":        amountMinor,
		"phone":         phone,
		"purchase_type": purchaseType,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return adapter.CouponResult{}, fmt.Errorf("coupon: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/validate", bytes.NewReader(b))
	if err != nil {
		return adapter.CouponResult{}, err
	}
	if v.apiKey != "" {
		req.Header.Set("X-Api-Key", v.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return adapter.CouponResult{}, fmt.Errorf("coupon: validate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return adapter.CouponResult{}, fmt.Errorf("coupon: service returned %d", resp.StatusCode)
	}

	var out struct {
		Valid          bool   `json:"valid"`
		DiscountAmount int64  `json:"discount_amount"`
		FinalAmount    int64  `json:"final_amount"`
		Reason         string `json:"reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return adapter.CouponResult{}, fmt.Errorf("coupon: decode response: %w", err)
	}
	res := adapter.CouponResult{
		Valid:          out.Valid,
		DiscountAmount: out.DiscountAmount,
		FinalAmount:    out.FinalAmount,
		Reason:         out.Reason,
	}
	if res.Valid && res.FinalAmount == 0 && res.DiscountAmount < amountMinor {
		res.FinalAmount = amountMinor - res.DiscountAmount
	}
	return res, nil
}
