package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/service"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/session"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Item bundles
// ============================================================

func listBundlesHandler(svc *service.BundleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/bundles")
		defer span.End()

		page, pageSize := parsePagination(r)
		result, err := svc.List(ctx, session.FromContext(ctx).Token, page, pageSize)
		if err != nil {
			handleServiceError(ctx, w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func getBundleHandler(svc *service.BundleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/bundles/{bundleId}")
		defer span.End()

		id, err := parseID(r, "bundleId")
		if err != nil {
			handleServiceError(ctx, w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int64("bundle.id", id))

		bundle, err := svc.Get(ctx, session.FromContext(ctx).Token, id)
		if err != nil {
			handleServiceError(ctx, w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, bundle)
	}
}

func saveBundleHandler(svc *service.BundleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/bundles/{bundleId}")
		defer span.End()

		id, err := parseID(r, "bundleId")
		if err != nil {
			handleServiceError(ctx, w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int64("bundle.id", id))

		var edit domain.BundleEdit
		if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		outcome, err := svc.Save(ctx, session.FromContext(ctx), id, &edit)
		if err != nil {
			handleServiceError(ctx, w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, outcome)
	}
}
