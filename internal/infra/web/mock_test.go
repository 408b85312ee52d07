//go:build !integration

package web

import (
	"context"

	"membership-platform/internal/domain/model"
	"membership-platform/internal/usecase"
)

// Function-field mocks: zero values satisfy the interfaces, individual tests
// override just the calls they exercise.

type mockMembershipUC struct {
	PurchaseFunc          func(ctx context.Context, phone, planID string, method model.PurchaseMethod) (*model.UserMembership, error)
	CancelFunc            func(ctx context.Context, id, actorID, reason string) (*model.UserMembership, error)
	FindActiveByPhoneFunc func(ctx context.Context, phone string) (*model.UserMembership, error)
}

var _ usecase.MembershipUseCase = (*mockMembershipUC)(nil)

func (m *mockMembershipUC) Purchase(ctx context.Context, phone, planID string, method model.PurchaseMethod) (*model.UserMembership, error) {
	if m.PurchaseFunc != nil {
		return m.PurchaseFunc(ctx, phone, planID, method)
	}
	return &model.UserMembership{}, nil
}

func (m *mockMembershipUC) Cancel(ctx context.Context, id, actorID, reason string) (*model.UserMembership, error) {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, id, actorID, reason)
	}
	return &model.UserMembership{}, nil
}

func (m *mockMembershipUC) Extend(ctx context.Context, id string, additionalDays int) (*model.UserMembership, error) {
	return &model.UserMembership{}, nil
}

func (m *mockMembershipUC) Refund(ctx context.Context, id, actorID, reason string) (*model.UserMembership, error) {
	return &model.UserMembership{}, nil
}

func (m *mockMembershipUC) SoftDelete(ctx context.Context, id, actorID string) (*model.UserMembership, error) {
	return &model.UserMembership{}, nil
}

func (m *mockMembershipUC) Restore(ctx context.Context, id string) (*model.UserMembership, error) {
	return &model.UserMembership{}, nil
}

func (m *mockMembershipUC) PermanentDelete(ctx context.Context, id string) error { return nil }

func (m *mockMembershipUC) GetByID(ctx context.Context, id string) (*model.UserMembership, error) {
	return &model.UserMembership{}, nil
}

func (m *mockMembershipUC) ListByPhone(ctx context.Context, phone string) ([]*model.UserMembership, error) {
	return nil, nil
}

func (m *mockMembershipUC) FindActiveByPhone(ctx context.Context, phone string) (*model.UserMembership, error) {
	if m.FindActiveByPhoneFunc != nil {
		return m.FindActiveByPhoneFunc(ctx, phone)
	}
	return nil, nil
}

func (m *mockMembershipUC) IsCurrentlyActive(ctx context.Context, phone string) (bool, error) {
	return false, nil
}

func (m *mockMembershipUC) ExpireDue(ctx context.Context) (int64, error) { return 0, nil }

type mockSubscriptionUC struct {
	FindActiveByPhoneFunc func(ctx context.Context, phone string) (*model.UserServiceSubscription, error)
}

var _ usecase.SubscriptionUseCase = (*mockSubscriptionUC)(nil)

func (m *mockSubscriptionUC) Purchase(ctx context.Context, phone, serviceID string, method model.PurchaseMethod) (*model.UserServiceSubscription, error) {
	return &model.UserServiceSubscription{}, nil
}

func (m *mockSubscriptionUC) Cancel(ctx context.Context, id, actorID, reason string) (*model.UserServiceSubscription, error) {
	return &model.UserServiceSubscription{}, nil
}

func (m *mockSubscriptionUC) Extend(ctx context.Context, id string, additionalDays int) (*model.UserServiceSubscription, error) {
	return &model.UserServiceSubscription{}, nil
}

func (m *mockSubscriptionUC) Refund(ctx context.Context, id, actorID string) (*model.UserServiceSubscription, error) {
	return &model.UserServiceSubscription{}, nil
}

func (m *mockSubscriptionUC) SoftDelete(ctx context.Context, id, actorID string) (*model.UserServiceSubscription, error) {
	return &model.UserServiceSubscription{}, nil
}

func (m *mockSubscriptionUC) Restore(ctx context.Context, id string) (*model.UserServiceSubscription, error) {
	return &model.UserServiceSubscription{}, nil
}

func (m *mockSubscriptionUC) PermanentDelete(ctx context.Context, id string) error { return nil }

func (m *mockSubscriptionUC) GetByID(ctx context.Context, id string) (*model.UserServiceSubscription, error) {
	return &model.UserServiceSubscription{}, nil
}

func (m *mockSubscriptionUC) ListByPhone(ctx context.Context, phone string) ([]*model.UserServiceSubscription, error) {
	return nil, nil
}

func (m *mockSubscriptionUC) FindActiveByPhone(ctx context.Context, phone string) (*model.UserServiceSubscription, error) {
	if m.FindActiveByPhoneFunc != nil {
		return m.FindActiveByPhoneFunc(ctx, phone)
	}
	return nil, nil
}

func (m *mockSubscriptionUC) IsCurrentlyActive(ctx context.Context, phone string) (bool, error) {
	return false, nil
}

func (m *mockSubscriptionUC) ExpireDue(ctx context.Context) (int64, error) { return 0, nil }

type mockApprovalUC struct {
	SubmitFunc  func(ctx context.Context, kind model.RequestKind, phone, targetID, couponCode string) (*model.AccessRequest, error)
	ApproveFunc func(ctx context.Context, requestID, actorID string) (*model.AccessRequest, error)
}

var _ usecase.ApprovalUseCase = (*mockApprovalUC)(nil)

func (m *mockApprovalUC) Submit(ctx context.Context, kind model.RequestKind, phone, targetID, couponCode string) (*model.AccessRequest, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, kind, phone, targetID, couponCode)
	}
	return &model.AccessRequest{}, nil
}

func (m *mockApprovalUC) Approve(ctx context.Context, requestID, actorID string) (*model.AccessRequest, error) {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, requestID, actorID)
	}
	return &model.AccessRequest{}, nil
}

func (m *mockApprovalUC) Reject(ctx context.Context, requestID, actorID, reason string) (*model.AccessRequest, error) {
	return &model.AccessRequest{}, nil
}

func (m *mockApprovalUC) Withdraw(ctx context.Context, requestID string) (*model.AccessRequest, error) {
	return &model.AccessRequest{}, nil
}

func (m *mockApprovalUC) GetByID(ctx context.Context, requestID string) (*model.AccessRequest, error) {
	return &model.AccessRequest{}, nil
}

func (m *mockApprovalUC) ListByStatus(ctx context.Context, status model.RequestStatus, limit, offset int) ([]*model.AccessRequest, error) {
	return nil, nil
}

type mockPaymentUC struct {
	HandlePaymentSuccessFunc func(ctx context.Context, orderID, gatewayPaymentID string) (*model.Payment, error)
	HandlePaymentFailureFunc func(ctx context.Context, orderID, failureReason string) (*model.Payment, error)
}

var _ usecase.PaymentUseCase = (*mockPaymentUC)(nil)

func (m *mockPaymentUC) HandlePaymentSuccess(ctx context.Context, orderID, gatewayPaymentID string) (*model.Payment, error) {
	if m.HandlePaymentSuccessFunc != nil {
		return m.HandlePaymentSuccessFunc(ctx, orderID, gatewayPaymentID)
	}
	return &model.Payment{Status: model.PaymentStateSuccess}, nil
}

func (m *mockPaymentUC) HandlePaymentFailure(ctx context.Context, orderID, failureReason string) (*model.Payment, error) {
	if m.HandlePaymentFailureFunc != nil {
		return m.HandlePaymentFailureFunc(ctx, orderID, failureReason)
	}
	return &model.Payment{Status: model.PaymentStateFailed}, nil
}

func (m *mockPaymentUC) GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	return &model.Payment{}, nil
}

func (m *mockPaymentUC) ListByPhone(ctx context.Context, phone string) ([]*model.Payment, error) {
	return nil, nil
}

type mockPlanUC struct {
	CreateFunc func(ctx context.Context, in usecase.PlanInput) (*model.MembershipPlan, error)
}

var _ usecase.PlanUseCase = (*mockPlanUC)(nil)

func (m *mockPlanUC) Create(ctx context.Context, in usecase.PlanInput) (*model.MembershipPlan, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, in)
	}
	return &model.MembershipPlan{}, nil
}

func (m *mockPlanUC) Update(ctx context.Context, id string, in usecase.PlanInput) (*model.MembershipPlan, error) {
	return &model.MembershipPlan{}, nil
}

func (m *mockPlanUC) Delete(ctx context.Context, id, actorID string) error { return nil }

func (m *mockPlanUC) GetByID(ctx context.Context, id string) (*model.MembershipPlan, error) {
	return &model.MembershipPlan{}, nil
}

func (m *mockPlanUC) ListAll(ctx context.Context) ([]*model.MembershipPlan, error) { return nil, nil }

type mockServiceUC struct{}

var _ usecase.ServiceUseCase = (*mockServiceUC)(nil)

func (m *mockServiceUC) Create(ctx context.Context, in usecase.ServiceInput) (*model.Service, error) {
	return &model.Service{}, nil
}

func (m *mockServiceUC) Update(ctx context.Context, id string, in usecase.ServiceInput) (*model.Service, error) {
	return &model.Service{}, nil
}

func (m *mockServiceUC) Delete(ctx context.Context, id, actorID string) error { return nil }

func (m *mockServiceUC) GetByID(ctx context.Context, id string) (*model.Service, error) {
	return &model.Service{}, nil
}

func (m *mockServiceUC) ListAll(ctx context.Context) ([]*model.Service, error) { return nil, nil }

type mockStatsUC struct{}

var _ usecase.StatsUseCase = (*mockStatsUC)(nil)

func (m *mockStatsUC) Overview(ctx context.Context) (*usecase.PlatformStats, error) {
	return &usecase.PlatformStats{}, nil
}

func (m *mockStatsUC) ReconcilePurchaseCounters(ctx context.Context) (int, error) { return 0, nil }
