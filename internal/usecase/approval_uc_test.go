//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"membership-platform/internal/domain"
	"membership-platform/internal/domain/model"
	"membership-platform/internal/domain/ports/adapter"
	"membership-platform/internal/usecase"
)

type approvalUCTestDeps struct {
	requests *MockRequestRepo
	payments *MockPaymentRepo
	plans    *MockPlanRepo
	services *MockServiceRepo
	gateway  *MockPaymentGateway
	coupons  *MockCouponValidator
	notifier *MockNotifier
	clock    domain.FixedClock
}

func newApprovalUCDeps() *approvalUCTestDeps {
	return &approvalUCTestDeps{
		requests: NewMockRequestRepo(),
		payments: NewMockPaymentRepo(),
		plans:    NewMockPlanRepo(),
		services: NewMockServiceRepo(),
		gateway:  &MockPaymentGateway{},
		coupons:  &MockCouponValidator{},
		notifier: &MockNotifier{},
		clock:    domain.FixedClock{T: ucNow},
	}
}

func (d *approvalUCTestDeps) build() usecase.ApprovalUseCase {
	return usecase.NewApprovalUseCase(d.requests, d.payments, d.plans, d.services, d.gateway, d.coupons, d.notifier, 24*time.Hour, d.clock, newTestLogger())
}

func TestApprovalSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending request", func(t *testing.T) {
		deps := newApprovalUCDeps()
		deps.plans.Save(ctx, nil, annualPlan(t))
		uc := deps.build()

		r, err := uc.Submit(ctx, model.RequestKindMembership, "+91 8085816197", "plan-1", "")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if r.Status != model.RequestStatusPending {
			t.Errorf("expected status pending, got %q", r.Status)
		}
		if r.Phone != "8085816197" {
			t.Errorf("expected normalized phone, got %q", r.Phone)
		}
		if r.Amount != 500000 {
			t.Errorf("expected catalog amount captured, got %d", r.Amount)
		}
		if r.Reference == "" {
			t.Error("expected a reference token")
		}
	})

	t.Run("second open request for same phone conflicts", func(t *testing.T) {
		// --- Arrange ---
		deps := newApprovalUCDeps()
		deps.plans.Save(ctx, nil, annualPlan(t))
		uc := deps.build()
		first, err := uc.Submit(ctx, model.RequestKindMembership, "8085816197", "plan-1", "")
		if err != nil {
			t.Fatalf("first submit: %v", err)
		}

		// --- Act ---
		_, err = uc.Submit(ctx, model.RequestKindMembership, "8085816197", "plan-1", "")

		// --- Assert ---
		var conflict *domain.ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected ConflictError, got: %v", err)
		}
		if conflict.ExistingID != first.ID {
			t.Errorf("expected conflict to name request %q, got %q", first.ID, conflict.ExistingID)
		}
		if !conflict.CanWithdraw {
			t.Error("expected a pending blocker to be withdrawable")
		}
	})

	t.Run("withdraw unblocks resubmission", func(t *testing.T) {
		deps := newApprovalUCDeps()
		deps.plans.Save(ctx, nil, annualPlan(t))
		uc := deps.build()
		first, _ := uc.Submit(ctx, model.RequestKindMembership, "8085816197", "plan-1", "")
		if _, err := uc.Withdraw(ctx, first.ID); err != nil {
			t.Fatalf("withdraw: %v", err)
		}
		if _, err := uc.Submit(ctx, model.RequestKindMembership, "8085816197", "plan-1", ""); err != nil {
			t.Fatalf("expected resubmission to succeed, got: %v", err)
		}
	})

	t.Run("rejects unknown target", func(t *testing.T) {
		deps := newApprovalUCDeps()
		uc := deps.build()
		if _, err := uc.Submit(ctx, model.RequestKindMembership, "8085816197", "nope", ""); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got: %v", err)
		}
	})
}

func TestApprovalApprove(t *testing.T) {
	ctx := context.Background()

	t.Run("approval sends payment link and records payment", func(t *testing.T) {
		// --- Arrange ---
		deps := newApprovalUCDeps()
		deps.plans.Save(ctx, nil, annualPlan(t))
		uc := deps.build()
		r, _ := uc.Submit(ctx, model.RequestKindMembership, "8085816197", "plan-1", "")

		// --- Act ---
		got, err := uc.Approve(ctx, r.ID, "admin-1")

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if got.Status != model.RequestStatusPaymentSent {
			t.Errorf("expected status payment_sent, got %q", got.Status)
		}
		if got.OrderID == "" || got.PaymentShortURL == "" {
			t.Error("expected gateway correlation on the request")
		}
		p, err := deps.payments.FindByOrderID(ctx, nil, got.OrderID)
		if err != nil {
			t.Fatalf("expected payment record: %v", err)
		}
		if p.RequestID == nil || *p.RequestID != r.ID {
			t.Error("expected payment linked back to the request")
		}
		if len(deps.notifier.Sent) != 1 {
			t.Fatalf("expected one notification, got %d", len(deps.notifier.Sent))
		}
		if deps.notifier.Sent[0].ShortURL != got.PaymentShortURL {
			t.Error("expected notification to carry the payment link")
		}
	})

	t.Run("coupon discount fixes the final amount", func(t *testing.T) {
		deps := newApprovalUCDeps()
		deps.plans.Save(ctx, nil, annualPlan(t))
		deps.coupons.ValidateFunc = func(ctx context.Context, code string, amountMinor int64, phone, purchaseType string) (adapter.CouponResult, error) {
			return adapter.CouponResult{Valid: true, DiscountAmount: 100000, FinalAmount: amountMinor - 100000}, nil
		}
		uc := deps.build()
		r, _ := uc.Submit(ctx, model.RequestKindMembership, "8085816197", "plan-1", "SAVE1000")

		got, err := uc.Approve(ctx, r.ID, "admin-1")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if got.FinalAmount != 400000 {
			t.Errorf("expected final amount 400000, got %d", got.FinalAmount)
		}
	})

	t.Run("invalid coupon blocks approval", func(t *testing.T) {
		deps := newApprovalUCDeps()
		deps.plans.Save(ctx, nil, annualPlan(t))
		deps.coupons.ValidateFunc = func(ctx context.Context, code string, amountMinor int64, phone, purchaseType string) (adapter.CouponResult, error) {
			return adapter.CouponResult{Valid: false, Reason: "expired"}, nil
		}
		uc := deps.build()
		r, _ := uc.Submit(ctx, model.RequestKindMembership, "8085816197", "plan-1", "OLD")

		_, err := uc.Approve(ctx, r.ID, "admin-1")
		var vErr *domain.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got: %v", err)
		}
		reloaded, _ := uc.GetByID(ctx, r.ID)
		if reloaded.Status != model.RequestStatusPending {
			t.Errorf("expected request to stay pending, got %q", reloaded.Status)
		}
	})

	t.Run("gateway failure leaves request pending", func(t *testing.T) {
		// --- Arrange ---
		deps := newApprovalUCDeps()
		deps.plans.Save(ctx, nil, annualPlan(t))
		deps.gateway.CreatePaymentLinkFunc = func(ctx context.Context, amountMinor int64, customer adapter.LinkCustomer, expireBy time.Time, notes model.Metadata) (string, adapter.PaymentLink, error) {
			return "", adapter.PaymentLink{}, errors.New("gateway down")
		}
		uc := deps.build()
		r, _ := uc.Submit(ctx, model.RequestKindMembership, "8085816197", "plan-1", "")

		// --- Act ---
		_, err := uc.Approve(ctx, r.ID, "admin-1")

		// --- Assert ---
		var extErr *domain.ExternalServiceError
		if !errors.As(err, &extErr) {
			t.Fatalf("expected ExternalServiceError, got: %v", err)
		}
		reloaded, _ := uc.GetByID(ctx, r.ID)
		if reloaded.Status != model.RequestStatusPending {
			t.Errorf("expected request to stay pending, got %q", reloaded.Status)
		}
		if len(deps.notifier.Sent) != 0 {
			t.Error("expected no notification after gateway failure")
		}
	})

	t.Run("notification failure does not fail the approval", func(t *testing.T) {
		deps := newApprovalUCDeps()
		deps.plans.Save(ctx, nil, annualPlan(t))
		deps.notifier.SendPaymentLinkFunc = func(ctx context.Context, notice adapter.PaymentLinkNotice) error {
			return errors.New("provider 500")
		}
		uc := deps.build()
		r, _ := uc.Submit(ctx, model.RequestKindMembership, "8085816197", "plan-1", "")

		got, err := uc.Approve(ctx, r.ID, "admin-1")
		if err != nil {
			t.Fatalf("expected approval to succeed despite notify failure, got: %v", err)
		}
		if got.Status != model.RequestStatusPaymentSent {
			t.Errorf("expected status payment_sent, got %q", got.Status)
		}
	})

	t.Run("free club join completes without payment", func(t *testing.T) {
		deps := newApprovalUCDeps()
		uc := deps.build()
		r, err := uc.Submit(ctx, model.RequestKindClubJoin, "8085816197", "club-9", "")
		if err != nil {
			t.Fatalf("submit: %v", err)
		}

		got, err := uc.Approve(ctx, r.ID, "admin-1")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if got.Status != model.RequestStatusCompleted {
			t.Errorf("expected direct completion, got %q", got.Status)
		}
		if got.OrderID != "" {
			t.Error("expected no gateway order for a free approval")
		}
	})

	t.Run("only pending requests can be decided", func(t *testing.T) {
		deps := newApprovalUCDeps()
		deps.plans.Save(ctx, nil, annualPlan(t))
		uc := deps.build()
		r, _ := uc.Submit(ctx, model.RequestKindMembership, "8085816197", "plan-1", "")
		if _, err := uc.Approve(ctx, r.ID, "admin-1"); err != nil {
			t.Fatalf("first approve: %v", err)
		}
		if _, err := uc.Approve(ctx, r.ID, "admin-1"); !errors.Is(err, domain.ErrRequestNotPending) {
			t.Fatalf("expected ErrRequestNotPending, got: %v", err)
		}
		if _, err := uc.Reject(ctx, r.ID, "admin-1", "changed mind"); !errors.Is(err, domain.ErrRequestNotPending) {
			t.Fatalf("expected ErrRequestNotPending on reject, got: %v", err)
		}
	})
}

func TestApprovalReject(t *testing.T) {
	ctx := context.Background()
	deps := newApprovalUCDeps()
	deps.plans.Save(ctx, nil, annualPlan(t))
	uc := deps.build()
	r, _ := uc.Submit(ctx, model.RequestKindMembership, "8085816197", "plan-1", "")

	if _, err := uc.Reject(ctx, r.ID, "admin-1", ""); err == nil {
		t.Fatal("expected rejection without a reason to fail")
	}
	got, err := uc.Reject(ctx, r.ID, "admin-1", "document mismatch")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got.Status != model.RequestStatusRejected || got.RejectionReason != "document mismatch" {
		t.Errorf("expected rejected with reason, got %q / %q", got.Status, got.RejectionReason)
	}
}
