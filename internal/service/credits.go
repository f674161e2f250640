package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var creditTracer = otel.Tracer("service/credits")

const vendorsCacheKey = "vendors"

// CreditService backs the vendor backend-credit manager. Read-only.
type CreditService struct {
	api            port.CreditAPI
	cache          port.Cache[[]domain.Vendor]
	maxConcurrency int
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// NewCreditService creates the credit service.
func NewCreditService(
	api port.CreditAPI,
	cache port.Cache[[]domain.Vendor],
	maxConcurrency int,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *CreditService {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &CreditService{
		api:            api,
		cache:          cache,
		maxConcurrency: maxConcurrency,
		metrics:        metrics,
		logger:         logger,
	}
}

// ListVendors returns all vendors, cached for the configured TTL.
func (s *CreditService) ListVendors(ctx context.Context, token string) ([]domain.Vendor, error) {
	ctx, span := creditTracer.Start(ctx, "CreditService.ListVendors")
	defer span.End()

	if cached, ok := s.cache.Get(vendorsCacheKey); ok {
		s.metrics.IncrCacheHit(vendorsCacheKey)
		return cached, nil
	}
	s.metrics.IncrCacheMiss(vendorsCacheKey)

	vendors, err := s.api.ListVendors(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	s.cache.Set(vendorsCacheKey, vendors)
	return vendors, nil
}

// SelectVendor loads everything the credit manager shows for one vendor:
// one rules fetch, then the conditions of every rule fetched concurrently.
// A rule whose conditions fail to load is listed in ConditionsUnavailable.
func (s *CreditService) SelectVendor(ctx context.Context, token string, vendorID int64) (*domain.VendorSelection, error) {
	ctx, span := creditTracer.Start(ctx, "CreditService.SelectVendor")
	defer span.End()
	span.SetAttributes(attribute.Int64("vendor.id", vendorID))

	vendors, err := s.ListVendors(ctx, token)
	if err != nil {
		return nil, err
	}
	vendor, ok := domain.FindVendor(vendors, vendorID)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "vendor", ID: strconv.FormatInt(vendorID, 10)}
	}

	rules, err := s.api.ListVendorRules(ctx, token, vendorID)
	if err != nil {
		return nil, fmt.Errorf("list rules for vendor %d: %w", vendorID, err)
	}

	var (
		mu          sync.Mutex
		conditions  = make(map[int64][]domain.RuleCondition, len(rules))
		unavailable []int64
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)

	for _, rule := range rules {
		ruleID := rule.ID
		g.Go(func() error {
			conds, err := s.api.ListRuleConditions(gCtx, token, vendorID, ruleID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("rule conditions unavailable",
					zap.Int64("vendor_id", vendorID),
					zap.Int64("rule_id", ruleID),
					zap.Error(err),
				)
				unavailable = append(unavailable, ruleID)
				return nil
			}
			if conds == nil {
				conds = []domain.RuleCondition{}
			}
			conditions[ruleID] = conds
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Slice(unavailable, func(i, j int) bool { return unavailable[i] < unavailable[j] })

	if rules == nil {
		rules = []domain.VendorRule{}
	}
	return &domain.VendorSelection{
		Vendor:                *vendor,
		DefaultPercentage:     vendor.DiscountThresholdPercent,
		Rules:                 rules,
		Conditions:            conditions,
		ConditionsUnavailable: unavailable,
		Summary: domain.VendorSummary{
			VendorName:        vendor.CompanyName,
			DefaultPercentage: vendor.DiscountThresholdPercent,
			RuleCount:         len(rules),
		},
	}, nil
}

// ListRules returns the rules of one vendor.
func (s *CreditService) ListRules(ctx context.Context, token string, vendorID int64) ([]domain.VendorRule, error) {
	ctx, span := creditTracer.Start(ctx, "CreditService.ListRules")
	defer span.End()

	rules, err := s.api.ListVendorRules(ctx, token, vendorID)
	if err != nil {
		return nil, fmt.Errorf("list rules for vendor %d: %w", vendorID, err)
	}
	return rules, nil
}

// ListConditions returns the sub-conditions of one rule.
func (s *CreditService) ListConditions(ctx context.Context, token string, vendorID, ruleID int64) ([]domain.RuleCondition, error) {
	ctx, span := creditTracer.Start(ctx, "CreditService.ListConditions")
	defer span.End()

	conds, err := s.api.ListRuleConditions(ctx, token, vendorID, ruleID)
	if err != nil {
		return nil, fmt.Errorf("list conditions for rule %d: %w", ruleID, err)
	}
	return conds, nil
}
