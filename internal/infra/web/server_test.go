//go:build !integration

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"membership-platform/internal/domain"
	"membership-platform/internal/domain/model"
	"membership-platform/internal/usecase"
)

type serverTestDeps struct {
	memberships   *mockMembershipUC
	subscriptions *mockSubscriptionUC
	approvals     *mockApprovalUC
	payments      *mockPaymentUC
	plans         *mockPlanUC
	verify        func(body []byte, signature string) bool
}

func newTestServer(d *serverTestDeps) *Server {
	logger := zerolog.New(io.Discard)
	verify := d.verify
	if verify == nil {
		verify = func([]byte, string) bool { return true }
	}
	return NewServer(ServerDeps{
		Memberships:   d.memberships,
		Subscriptions: d.subscriptions,
		Approvals:     d.approvals,
		Payments:      d.payments,
		Plans:         d.plans,
		Services:      &mockServiceUC{},
		Stats:         &mockStatsUC{},
		Auth:          NewAuthManager("test-admin-key", "test-jwt-secret", time.Hour, false),
		WebhookVerify: verify,
	}, &logger)
}

func defaultDeps() *serverTestDeps {
	return &serverTestDeps{
		memberships:   &mockMembershipUC{},
		subscriptions: &mockSubscriptionUC{},
		approvals:     &mockApprovalUC{},
		payments:      &mockPaymentUC{},
		plans:         &mockPlanUC{},
	}
}

func login(t *testing.T, handler http.Handler) string {
	t.Helper()
	body := bytes.NewBufferString(`{"admin_key":"test-admin-key"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || out.Token == "" {
		t.Fatalf("no token in login response: %s", rec.Body.String())
	}
	return out.Token
}

func doJSON(handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuth(t *testing.T) {
	handler := newTestServer(defaultDeps()).Router()

	t.Run("admin routes reject missing tokens", func(t *testing.T) {
		rec := doJSON(handler, http.MethodGet, "/api/v1/plans", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("login with wrong key fails", func(t *testing.T) {
		rec := doJSON(handler, http.MethodPost, "/api/v1/auth/login", "", `{"admin_key":"wrong"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("a minted token opens the admin API", func(t *testing.T) {
		token := login(t, handler)
		rec := doJSON(handler, http.MethodGet, "/api/v1/plans", token, "")
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("garbage tokens are rejected", func(t *testing.T) {
		rec := doJSON(handler, http.MethodGet, "/api/v1/plans", "not-a-jwt", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("health needs no auth", func(t *testing.T) {
		rec := doJSON(handler, http.MethodGet, "/health", "", "")
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})
}

func TestPlanHandlers(t *testing.T) {
	t.Run("create returns 201 and forwards the input", func(t *testing.T) {
		deps := defaultDeps()
		var gotInput usecase.PlanInput
		deps.plans.CreateFunc = func(ctx context.Context, in usecase.PlanInput) (*model.MembershipPlan, error) {
			gotInput = in
			return &model.MembershipPlan{}, nil
		}
		handler := newTestServer(deps).Router()
		token := login(t, handler)

		rec := doJSON(handler, http.MethodPost, "/api/v1/plans", token,
			`{"name":"Annual","duration_days":365,"price_minor":500000}`)
		if rec.Code != http.StatusCreated {
			t.Errorf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotInput.Name != "Annual" || gotInput.DurationDays != 365 || gotInput.PriceMinor != 500000 {
			t.Errorf("input not forwarded: %+v", gotInput)
		}
	})

	t.Run("create without a name is a 400 with field detail", func(t *testing.T) {
		handler := newTestServer(defaultDeps()).Router()
		token := login(t, handler)

		rec := doJSON(handler, http.MethodPost, "/api/v1/plans", token, `{"duration_days":30}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		var resp errorResponse
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if len(resp.Fields) == 0 || resp.Fields[0].Field != "Name" {
			t.Errorf("expected a Name field error, got %+v", resp.Fields)
		}
	})

	t.Run("malformed JSON is a 400", func(t *testing.T) {
		handler := newTestServer(defaultDeps()).Router()
		token := login(t, handler)

		rec := doJSON(handler, http.MethodPost, "/api/v1/plans", token, `{not json`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestErrorMapping(t *testing.T) {
	t.Run("duplicate open request maps to 409 with withdraw hint", func(t *testing.T) {
		deps := defaultDeps()
		deps.approvals.SubmitFunc = func(ctx context.Context, kind model.RequestKind, phone, targetID, couponCode string) (*model.AccessRequest, error) {
			return nil, &domain.ConflictError{Resource: "request", ExistingID: "req-1", CanWithdraw: true}
		}
		handler := newTestServer(deps).Router()
		token := login(t, handler)

		rec := doJSON(handler, http.MethodPost, "/api/v1/requests", token,
			`{"kind":"membership","phone":"8085816197","target_id":"plan-1"}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp errorResponse
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.ExistingID != "req-1" || !resp.CanWithdraw {
			t.Errorf("conflict detail missing: %+v", resp)
		}
	})

	t.Run("unknown plan maps to 404", func(t *testing.T) {
		deps := defaultDeps()
		deps.memberships.PurchaseFunc = func(ctx context.Context, phone, planID string, method model.PurchaseMethod) (*model.UserMembership, error) {
			return nil, domain.ErrNotFound
		}
		handler := newTestServer(deps).Router()
		token := login(t, handler)

		rec := doJSON(handler, http.MethodPost, "/api/v1/memberships", token,
			`{"phone":"8085816197","target_id":"nope","method":"admin"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("gateway failure maps to 502", func(t *testing.T) {
		deps := defaultDeps()
		deps.memberships.PurchaseFunc = func(ctx context.Context, phone, planID string, method model.PurchaseMethod) (*model.UserMembership, error) {
			return nil, &domain.ExternalServiceError{Service: "razorpay", Err: io.ErrUnexpectedEOF}
		}
		handler := newTestServer(deps).Router()
		token := login(t, handler)

		rec := doJSON(handler, http.MethodPost, "/api/v1/memberships", token,
			`{"phone":"8085816197","target_id":"plan-1","method":"app"}`)
		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
	})

	t.Run("unsupported purchase method is rejected before the use case", func(t *testing.T) {
		handler := newTestServer(defaultDeps()).Router()
		token := login(t, handler)

		rec := doJSON(handler, http.MethodPost, "/api/v1/memberships", token,
			`{"phone":"8085816197","target_id":"plan-1","method":"carrier_pigeon"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestMemberActiveLookup(t *testing.T) {
	t.Run("reports active with the winning membership", func(t *testing.T) {
		deps := defaultDeps()
		deps.memberships.FindActiveByPhoneFunc = func(ctx context.Context, phone string) (*model.UserMembership, error) {
			m := &model.UserMembership{}
			m.ID = "m-1"
			return m, nil
		}
		handler := newTestServer(deps).Router()
		token := login(t, handler)

		rec := doJSON(handler, http.MethodGet, "/api/v1/members/8085816197/active", token, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp struct {
			Active bool `json:"active"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if !resp.Active {
			t.Error("expected active=true")
		}
	})

	t.Run("reports inactive when nothing is active", func(t *testing.T) {
		handler := newTestServer(defaultDeps()).Router()
		token := login(t, handler)

		rec := doJSON(handler, http.MethodGet, "/api/v1/members/8085816197/active", token, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp struct {
			Active bool `json:"active"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Active {
			t.Error("expected active=false")
		}
	})
}
