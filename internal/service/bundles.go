package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var bundleTracer = otel.Tracer("service/bundles")

const maxBundlePageSize = 500

// BundleConfig tunes listing and the fallback actor ids for writes.
type BundleConfig struct {
	PageSize          int
	MaxPages          int
	DefaultCompanyID  int64
	DefaultEmployeeID int64
}

// BundleService lists and edits item bundles.
type BundleService struct {
	api     port.BundleAPI
	cfg     BundleConfig
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewBundleService creates the bundle service.
func NewBundleService(api port.BundleAPI, cfg BundleConfig, metrics *observability.Metrics, logger *zap.Logger) *BundleService {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1
	}
	return &BundleService{api: api, cfg: cfg, metrics: metrics, logger: logger}
}

// List returns one page of bundles. Zero values select page 1 and the configured size.
func (s *BundleService) List(ctx context.Context, token string, page, pageSize int) (*domain.BundlePage, error) {
	ctx, span := bundleTracer.Start(ctx, "BundleService.List")
	defer span.End()

	if token == "" {
		return nil, &domain.ErrUnauthorized{Message: "Authentication required. Please sign in again."}
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = s.cfg.PageSize
	}
	if pageSize > maxBundlePageSize {
		pageSize = maxBundlePageSize
	}
	span.SetAttributes(attribute.Int("bundle.page", page), attribute.Int("bundle.page_size", pageSize))

	p, err := s.api.ListBundles(ctx, token, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	return p, nil
}

// Get scans pages until it finds bundle id, up to the configured page limit.
func (s *BundleService) Get(ctx context.Context, token string, id int64) (*domain.ItemBundle, error) {
	ctx, span := bundleTracer.Start(ctx, "BundleService.Get")
	defer span.End()
	span.SetAttributes(attribute.Int64("bundle.id", id))

	for page := 1; page <= s.cfg.MaxPages; page++ {
		p, err := s.List(ctx, token, page, s.cfg.PageSize)
		if err != nil {
			return nil, err
		}
		if b, ok := p.Find(id); ok {
			return b, nil
		}
		if page >= p.TotalPages || len(p.Bundles) == 0 {
			break
		}
	}
	return nil, &domain.ErrNotFound{Resource: "bundle", ID: strconv.FormatInt(id, 10)}
}

// Save writes edit to bundle id and returns the record as the vendor now has it.
// "Unexpected error" from the vendor counts as success (see domain.SaveResult).
// If the refetch fails the submitted values are returned with Reconciled=false.
func (s *BundleService) Save(ctx context.Context, sess *domain.Session, id int64, edit *domain.BundleEdit) (*domain.SaveOutcome, error) {
	ctx, span := bundleTracer.Start(ctx, "BundleService.Save")
	defer span.End()
	span.SetAttributes(attribute.Int64("bundle.id", id))

	if !sess.HasToken() {
		return nil, &domain.ErrUnauthorized{Message: "Authentication required. Please sign in again."}
	}
	if id <= 0 {
		return nil, &domain.ErrValidation{Field: "bundleId", Message: "bundle id must be positive"}
	}
	if err := edit.Validate(); err != nil {
		return nil, err
	}

	save := &domain.BundleSave{
		BundleID:    id,
		ItemID:      edit.ItemID,
		Name:        edit.Title,
		Description: edit.Description,
		ImageURL:    edit.ImageURL,
		Actor:       sess.Actor(s.cfg.DefaultCompanyID, s.cfg.DefaultEmployeeID),
	}

	res, err := s.api.SaveBundle(ctx, sess.Token, save)
	if err != nil {
		s.metrics.IncrBundleSave(observability.OutcomeFailed)
		s.logger.Error("bundle save failed", zap.Int64("bundle_id", id), zap.Error(err))
		return nil, fmt.Errorf("save bundle %d: %w", id, err)
	}
	if !res.Accepted {
		s.metrics.IncrBundleSave(observability.OutcomeRejected)
		s.logger.Warn("bundle save rejected",
			zap.Int64("bundle_id", id),
			zap.String("vendor_message", res.Message),
		)
		return nil, &domain.ErrVendorRejected{Operation: domain.OpBundleSave, Message: res.Message}
	}
	s.metrics.IncrBundleSave(observability.OutcomeAccepted)
	s.logger.Info("bundle saved",
		zap.Int64("bundle_id", id),
		zap.Int64("company_id", save.Actor.CompanyID),
		zap.Int64("employee_id", save.Actor.EmployeeID),
	)

	out := &domain.SaveOutcome{Message: res.Message}
	fresh, err := s.Get(ctx, sess.Token, id)
	if err != nil {
		s.logger.Warn("bundle saved but refetch failed",
			zap.Int64("bundle_id", id),
			zap.Error(err),
		)
		out.Bundle = edit.Apply(id)
		return out, nil
	}
	out.Bundle = *fresh
	out.Reconciled = true
	return out, nil
}
