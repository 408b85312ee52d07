//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"membership-platform/internal/domain"
	"membership-platform/internal/domain/model"
	"membership-platform/internal/domain/ports/adapter"
	"membership-platform/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// =============================
// Repositories
// =============================

// ---- Membership repo ----

type MockMembershipRepo struct {
	mu    sync.RWMutex
	store map[string]*model.UserMembership

	SaveFunc              func(ctx context.Context, tx repository.Tx, m *model.UserMembership) error
	FindActiveByPhoneFunc func(ctx context.Context, tx repository.Tx, phone string, now time.Time) (*model.UserMembership, error)
}

func NewMockMembershipRepo() *MockMembershipRepo {
	return &MockMembershipRepo{store: map[string]*model.UserMembership{}}
}

var _ repository.MembershipRepository = (*MockMembershipRepo)(nil)

func (m *MockMembershipRepo) Save(ctx context.Context, tx repository.Tx, mm *model.UserMembership) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, mm); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *mm
	m.store[mm.ID] = &cp
	return nil
}

func (m *MockMembershipRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UserMembership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mm, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *mm
	return &cp, nil
}

func (m *MockMembershipRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.UserMembership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, mm := range m.store {
		if mm.OrderID == orderID {
			cp := *mm
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// FindActiveByPhone mirrors the SQL predicate: not deleted, active, paid,
// started, window open or lifetime; lifetime rows win, then latest end date.
func (m *MockMembershipRepo) FindActiveByPhone(ctx context.Context, tx repository.Tx, phone string, now time.Time) (*model.UserMembership, error) {
	if m.FindActiveByPhoneFunc != nil {
		return m.FindActiveByPhoneFunc(ctx, tx, phone, now)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var candidates []*model.UserMembership
	for _, mm := range m.store {
		if mm.Phone == phone && mm.IsCurrentlyActive(now) {
			candidates = append(candidates, mm)
		}
	}
	if len(candidates) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.IsLifetime != b.IsLifetime {
			return a.IsLifetime
		}
		if a.EndDate == nil || b.EndDate == nil {
			return a.EndDate == nil
		}
		return a.EndDate.After(*b.EndDate)
	})
	cp := *candidates[0]
	return &cp, nil
}

func (m *MockMembershipRepo) ListByPhone(ctx context.Context, tx repository.Tx, phone string) ([]*model.UserMembership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.UserMembership
	for _, mm := range m.store {
		if mm.Phone == phone {
			cp := *mm
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockMembershipRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, mm := range m.store {
		if mm.IsDeleted || mm.Status != model.EntitlementStatusActive || mm.PaymentState != model.PaymentStateSuccess {
			continue
		}
		if mm.IsExpiredAt(now) {
			mm.Status = model.EntitlementStatusExpired
			mm.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (m *MockMembershipRepo) DeletePermanently(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MockMembershipRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.EntitlementStatus]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[model.EntitlementStatus]int{}
	for _, mm := range m.store {
		out[mm.Status]++
	}
	return out, nil
}

func (m *MockMembershipRepo) CountConfirmedByPlan(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[string]int{}
	for _, mm := range m.store {
		if mm.PaymentState == model.PaymentStateSuccess && mm.Status != model.EntitlementStatusRefunded {
			out[mm.PlanID]++
		}
	}
	return out, nil
}

// ---- Subscription repo ----

type MockSubscriptionRepo struct {
	mu    sync.RWMutex
	store map[string]*model.UserServiceSubscription

	SaveFunc func(ctx context.Context, tx repository.Tx, s *model.UserServiceSubscription) error
}

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{store: map[string]*model.UserServiceSubscription{}}
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.UserServiceSubscription) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, s); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UserServiceSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.UserServiceSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.store {
		if s.OrderID == orderID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) FindActiveByPhone(ctx context.Context, tx repository.Tx, phone string, now time.Time) (*model.UserServiceSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *model.UserServiceSubscription
	for _, s := range m.store {
		if s.Phone != phone || !s.IsCurrentlyActive(now) {
			continue
		}
		if best == nil || (s.EndDate == nil && best.EndDate != nil) ||
			(s.EndDate != nil && best.EndDate != nil && s.EndDate.After(*best.EndDate)) {
			best = s
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *MockSubscriptionRepo) ListByPhone(ctx context.Context, tx repository.Tx, phone string) ([]*model.UserServiceSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.UserServiceSubscription
	for _, s := range m.store {
		if s.Phone == phone {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockSubscriptionRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.store {
		if s.IsDeleted || s.Status != model.EntitlementStatusActive || s.PaymentState != model.PaymentStateSuccess {
			continue
		}
		if s.IsExpiredAt(now) {
			s.Status = model.EntitlementStatusExpired
			s.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (m *MockSubscriptionRepo) DeletePermanently(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MockSubscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.EntitlementStatus]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[model.EntitlementStatus]int{}
	for _, s := range m.store {
		out[s.Status]++
	}
	return out, nil
}

func (m *MockSubscriptionRepo) CountConfirmedByService(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[string]int{}
	for _, s := range m.store {
		if s.PaymentState == model.PaymentStateSuccess && s.Status != model.EntitlementStatusRefunded {
			out[s.ServiceID]++
		}
	}
	return out, nil
}

// ---- Plan repo ----

type MockPlanRepo struct {
	mu    sync.RWMutex
	store map[string]*model.MembershipPlan

	IncrementPurchasesFunc func(ctx context.Context, tx repository.Tx, id string, delta int) error
}

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{store: map[string]*model.MembershipPlan{}}
}

var _ repository.PlanRepository = (*MockPlanRepo)(nil)

func (m *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.MembershipPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MembershipPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.MembershipPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.MembershipPlan
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockPlanRepo) SoftDelete(ctx context.Context, tx repository.Tx, id, actorID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.IsDeleted = true
	p.DeletedAt = &now
	p.DeletedBy = &actorID
	p.UpdatedAt = now
	return nil
}

func (m *MockPlanRepo) IncrementPurchases(ctx context.Context, tx repository.Tx, id string, delta int) error {
	if m.IncrementPurchasesFunc != nil {
		return m.IncrementPurchasesFunc(ctx, tx, id, delta)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.CurrentPurchases += delta
	if p.CurrentPurchases < 0 {
		p.CurrentPurchases = 0
	}
	return nil
}

func (m *MockPlanRepo) SetPurchaseCount(ctx context.Context, tx repository.Tx, id string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.CurrentPurchases = count
	return nil
}

// ---- Service repo ----

type MockServiceRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Service
}

func NewMockServiceRepo() *MockServiceRepo {
	return &MockServiceRepo{store: map[string]*model.Service{}}
}

var _ repository.ServiceRepository = (*MockServiceRepo)(nil)

func (m *MockServiceRepo) Save(ctx context.Context, tx repository.Tx, s *model.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *MockServiceRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockServiceRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Service
	for _, s := range m.store {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockServiceRepo) SoftDelete(ctx context.Context, tx repository.Tx, id, actorID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.IsDeleted = true
	s.DeletedAt = &now
	s.DeletedBy = &actorID
	s.UpdatedAt = now
	return nil
}

func (m *MockServiceRepo) IncrementPurchases(ctx context.Context, tx repository.Tx, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.CurrentPurchases += delta
	if s.CurrentPurchases < 0 {
		s.CurrentPurchases = 0
	}
	return nil
}

func (m *MockServiceRepo) SetPurchaseCount(ctx context.Context, tx repository.Tx, id string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.CurrentPurchases = count
	return nil
}

// ---- Request repo ----

type MockRequestRepo struct {
	mu    sync.RWMutex
	store map[string]*model.AccessRequest

	SaveFunc func(ctx context.Context, tx repository.Tx, r *model.AccessRequest) error
}

func NewMockRequestRepo() *MockRequestRepo {
	return &MockRequestRepo{store: map[string]*model.AccessRequest{}}
}

var _ repository.RequestRepository = (*MockRequestRepo)(nil)

func (m *MockRequestRepo) Save(ctx context.Context, tx repository.Tx, r *model.AccessRequest) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, r); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.store[r.ID] = &cp
	return nil
}

func (m *MockRequestRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.AccessRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockRequestRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.AccessRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.store {
		if r.OrderID == orderID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockRequestRepo) FindOpenByPhone(ctx context.Context, tx repository.Tx, phone string, kind model.RequestKind) (*model.AccessRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.store {
		if r.Phone == phone && r.Kind == kind && r.Status.Open() {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockRequestRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.RequestStatus, limit, offset int) ([]*model.AccessRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.AccessRequest
	for _, r := range m.store {
		if r.Status == status {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Payment repo ----

type MockPaymentRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Payment

	SaveFunc func(ctx context.Context, tx repository.Tx, p *model.Payment) error
}

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{store: map[string]*model.Payment{}}
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, p); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.OrderID == orderID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentRepo) ListByPhone(ctx context.Context, tx repository.Tx, phone string) ([]*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.Phone == phone {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Account repo ----

type MockAccountRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Account
}

func NewMockAccountRepo() *MockAccountRepo {
	return &MockAccountRepo{store: map[string]*model.Account{}}
}

var _ repository.AccountRepository = (*MockAccountRepo)(nil)

func (m *MockAccountRepo) Save(ctx context.Context, tx repository.Tx, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.store[a.ID] = &cp
	return nil
}

func (m *MockAccountRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MockAccountRepo) FindByPhone(ctx context.Context, tx repository.Tx, phone string) (*model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.store {
		if a.Phone == phone {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// =============================
// Adapters
// =============================

type MockPaymentGateway struct {
	CreateOrderFunc       func(ctx context.Context, amountMinor int64, currency, receipt string, notes model.Metadata) (string, error)
	CreatePaymentLinkFunc func(ctx context.Context, amountMinor int64, customer adapter.LinkCustomer, expireBy time.Time, notes model.Metadata) (string, adapter.PaymentLink, error)
	RefundPaymentFunc     func(ctx context.Context, paymentID string, amountMinor int64, reason string) (adapter.RefundResult, error)

	Refunds []string // gateway payment ids refunded
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string { return "mock-gateway" }

func (m *MockPaymentGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes model.Metadata) (string, error) {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, amountMinor, currency, receipt, notes)
	}
	return "order_" + receipt, nil
}

func (m *MockPaymentGateway) CreatePaymentLink(ctx context.Context, amountMinor int64, customer adapter.LinkCustomer, expireBy time.Time, notes model.Metadata) (string, adapter.PaymentLink, error) {
	if m.CreatePaymentLinkFunc != nil {
		return m.CreatePaymentLinkFunc(ctx, amountMinor, customer, expireBy, notes)
	}
	return "order_link_1", adapter.PaymentLink{LinkID: "plink_1", ShortURL: "https://rzp.io/l/x", ExpiresAt: expireBy}, nil
}

func (m *MockPaymentGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return signature == "valid"
}

func (m *MockPaymentGateway) RefundPayment(ctx context.Context, paymentID string, amountMinor int64, reason string) (adapter.RefundResult, error) {
	if m.RefundPaymentFunc != nil {
		return m.RefundPaymentFunc(ctx, paymentID, amountMinor, reason)
	}
	m.Refunds = append(m.Refunds, paymentID)
	return adapter.RefundResult{ID: "rfnd_1", Status: "processed", RefundAmount: amountMinor}, nil
}

type MockCouponValidator struct {
	ValidateFunc func(ctx context.Context, code string, amountMinor int64, phone, purchaseType string) (adapter.CouponResult, error)
}

var _ adapter.CouponValidator = (*MockCouponValidator)(nil)

func (m *MockCouponValidator) Validate(ctx context.Context, code string, amountMinor int64, phone, purchaseType string) (adapter.CouponResult, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, code, amountMinor, phone, purchaseType)
	}
	return adapter.CouponResult{Valid: true, FinalAmount: amountMinor}, nil
}

type MockNotifier struct {
	mu   sync.Mutex
	Sent []adapter.PaymentLinkNotice

	SendPaymentLinkFunc func(ctx context.Context, notice adapter.PaymentLinkNotice) error
}

var _ adapter.NotificationSender = (*MockNotifier)(nil)

func (m *MockNotifier) SendPaymentLink(ctx context.Context, notice adapter.PaymentLinkNotice) error {
	if m.SendPaymentLinkFunc != nil {
		return m.SendPaymentLinkFunc(ctx, notice)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, notice)
	return nil
}

// ---- Tx manager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately without a real transaction unless a test
// overrides WithTxFunc.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}
