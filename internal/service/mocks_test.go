package service_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"
)

// --- Mocks ---

type mockRegistry struct {
	grant      *domain.AccessGrant
	grantErr   error
	profile    *domain.UserProfile
	profileErr error

	emails        []string
	profileTokens []string
}

func (m *mockRegistry) SyncUsernameAccess(_ context.Context, email string) (*domain.AccessGrant, error) {
	m.emails = append(m.emails, email)
	return m.grant, m.grantErr
}

func (m *mockRegistry) GetRegistry(_ context.Context, token string) (*domain.UserProfile, error) {
	m.profileTokens = append(m.profileTokens, token)
	return m.profile, m.profileErr
}

type mockBundleAPI struct {
	mu sync.Mutex

	pages     map[int]*domain.BundlePage
	listErr   error
	listCalls []int

	saveResult domain.Result
	saveErr    error
	saved      []*domain.BundleSave
}

func (m *mockBundleAPI) ListBundles(_ context.Context, _ string, page, pageSize int) (*domain.BundlePage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls = append(m.listCalls, page)
	if m.listErr != nil {
		return nil, m.listErr
	}
	if p, ok := m.pages[page]; ok {
		cp := *p
		cp.Page = page
		cp.PageSize = pageSize
		return &cp, nil
	}
	return &domain.BundlePage{Page: page, PageSize: pageSize}, nil
}

func (m *mockBundleAPI) SaveBundle(_ context.Context, _ string, save *domain.BundleSave) (domain.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, save)
	return m.saveResult, m.saveErr
}

type mockCreditAPI struct {
	mu sync.Mutex

	vendors     []domain.Vendor
	vendorsErr  error
	vendorCalls int

	rules     map[int64][]domain.VendorRule
	rulesErr  error
	ruleCalls map[int64]int

	conditions   map[int64][]domain.RuleCondition
	conditionErr map[int64]error
	delay        time.Duration

	inFlight    int32
	maxInFlight int32
}

func (m *mockCreditAPI) ListVendors(_ context.Context, _ string) ([]domain.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vendorCalls++
	return m.vendors, m.vendorsErr
}

func (m *mockCreditAPI) ListVendorRules(_ context.Context, _ string, vendorID int64) ([]domain.VendorRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ruleCalls == nil {
		m.ruleCalls = map[int64]int{}
	}
	m.ruleCalls[vendorID]++
	if m.rulesErr != nil {
		return nil, m.rulesErr
	}
	return m.rules[vendorID], nil
}

func (m *mockCreditAPI) ListRuleConditions(_ context.Context, _ string, _, ruleID int64) ([]domain.RuleCondition, error) {
	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		cur := atomic.LoadInt32(&m.maxInFlight)
		if n <= cur || atomic.CompareAndSwapInt32(&m.maxInFlight, cur, n) {
			break
		}
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.conditionErr[ruleID]; err != nil {
		return nil, err
	}
	return m.conditions[ruleID], nil
}
