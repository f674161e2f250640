package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/infra/cache"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCreditService(t *testing.T, api *mockCreditAPI, limit int) (*service.CreditService, *observability.Metrics) {
	t.Helper()
	c := cache.New[[]domain.Vendor](time.Minute)
	t.Cleanup(c.Close)
	metrics := observability.NewMetrics()
	return service.NewCreditService(api, c, limit, metrics, zap.NewNop()), metrics
}

func creditFixture() *mockCreditAPI {
	return &mockCreditAPI{
		vendors: []domain.Vendor{
			{ID: 7, CompanyName: "Acme Books", DiscountThresholdPercent: decimal.RequireFromString("42.5")},
			{ID: 8, CompanyName: "Beta", DiscountThresholdPercent: decimal.RequireFromString("40")},
		},
		rules: map[int64][]domain.VendorRule{
			7: {{ID: 1}, {ID: 2}, {ID: 3}},
		},
		conditions: map[int64][]domain.RuleCondition{
			1: {{RuleID: 1, TypeID: "publisher", Value: "Zondervan"}},
			2: {{RuleID: 2, TypeID: "keyword", Value: "bible"}, {RuleID: 2, TypeID: "upc", Value: "123"}},
		},
	}
}

func TestSelectVendor(t *testing.T) {
	api := creditFixture()
	svc, _ := newCreditService(t, api, 4)

	sel, err := svc.SelectVendor(context.Background(), "", 7)
	require.NoError(t, err)

	assert.Equal(t, map[int64]int{7: 1}, api.ruleCalls, "exactly one rules fetch for the selected vendor")
	assert.Equal(t, "42.5", sel.DefaultPercentage.String())
	assert.Len(t, sel.Rules, 3)
	assert.Len(t, sel.Conditions[1], 1)
	assert.Len(t, sel.Conditions[2], 2)
	assert.NotNil(t, sel.Conditions[3])
	assert.Empty(t, sel.Conditions[3])
	assert.Empty(t, sel.ConditionsUnavailable)
	assert.Equal(t, domain.VendorSummary{
		VendorName:        "Acme Books",
		DefaultPercentage: decimal.RequireFromString("42.5"),
		RuleCount:         3,
	}, sel.Summary)
}

func TestSelectVendor_ConditionFailureIsLocal(t *testing.T) {
	api := creditFixture()
	api.conditionErr = map[int64]error{2: errors.New("boom"), 3: errors.New("boom")}
	svc, _ := newCreditService(t, api, 4)

	sel, err := svc.SelectVendor(context.Background(), "", 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, sel.ConditionsUnavailable)
	assert.Len(t, sel.Conditions[1], 1)
	assert.NotContains(t, sel.Conditions, int64(2))
}

func TestSelectVendor_UnknownVendor(t *testing.T) {
	api := creditFixture()
	svc, _ := newCreditService(t, api, 4)

	_, err := svc.SelectVendor(context.Background(), "", 99)

	var nf *domain.ErrNotFound
	require.ErrorAs(t, err, &nf)
	assert.Empty(t, api.ruleCalls)
}

func TestSelectVendor_RulesFailure(t *testing.T) {
	api := creditFixture()
	api.rulesErr = &domain.ErrExternalService{Service: "voyager", Err: errors.New("502")}
	svc, _ := newCreditService(t, api, 4)

	_, err := svc.SelectVendor(context.Background(), "", 7)

	var ext *domain.ErrExternalService
	assert.ErrorAs(t, err, &ext)
}

func TestSelectVendor_ConcurrencyLimit(t *testing.T) {
	api := creditFixture()
	rules := make([]domain.VendorRule, 12)
	for i := range rules {
		rules[i] = domain.VendorRule{ID: int64(i + 1)}
	}
	api.rules[7] = rules
	api.delay = 10 * time.Millisecond
	svc, _ := newCreditService(t, api, 3)

	sel, err := svc.SelectVendor(context.Background(), "", 7)
	require.NoError(t, err)
	assert.Len(t, sel.Conditions, 12)
	assert.LessOrEqual(t, api.maxInFlight, int32(3))
	assert.Greater(t, api.maxInFlight, int32(1), "conditions are fetched concurrently")
}

func TestListVendors_Cached(t *testing.T) {
	api := creditFixture()
	svc, metrics := newCreditService(t, api, 4)

	for i := 0; i < 3; i++ {
		vendors, err := svc.ListVendors(context.Background(), "")
		require.NoError(t, err)
		assert.Len(t, vendors, 2)
	}
	assert.Equal(t, 1, api.vendorCalls)
	assert.InDelta(t, 2.0/3.0, metrics.Snapshot().CacheHitRate, 0.0001)
}

func TestListVendors_ErrorNotCached(t *testing.T) {
	api := creditFixture()
	api.vendorsErr = errors.New("down")
	svc, _ := newCreditService(t, api, 4)

	_, err := svc.ListVendors(context.Background(), "")
	require.Error(t, err)

	api.vendorsErr = nil
	vendors, err := svc.ListVendors(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, vendors, 2)
	assert.Equal(t, 2, api.vendorCalls)
}

func TestListRulesAndConditions(t *testing.T) {
	api := creditFixture()
	svc, _ := newCreditService(t, api, 4)

	rules, err := svc.ListRules(context.Background(), "", 7)
	require.NoError(t, err)
	assert.Len(t, rules, 3)

	conds, err := svc.ListConditions(context.Background(), "", 7, 2)
	require.NoError(t, err)
	assert.Len(t, conds, 2)
}
