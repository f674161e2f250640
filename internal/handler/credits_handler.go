package handler

import (
	"net/http"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/service"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/session"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Vendor backend credits
// ============================================================

// The token is attached when the caller has a session; these reads do not require one.

func listVendorsHandler(svc *service.CreditService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/vendors")
		defer span.End()

		vendors, err := svc.ListVendors(ctx, session.FromContext(ctx).Token)
		if err != nil {
			handleServiceError(ctx, w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.NewListResponse(vendors))
	}
}

func selectVendorHandler(svc *service.CreditService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/vendors/{vendorId}")
		defer span.End()

		vendorID, err := parseID(r, "vendorId")
		if err != nil {
			handleServiceError(ctx, w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int64("vendor.id", vendorID))

		selection, err := svc.SelectVendor(ctx, session.FromContext(ctx).Token, vendorID)
		if err != nil {
			handleServiceError(ctx, w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, selection)
	}
}

func listRulesHandler(svc *service.CreditService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/vendors/{vendorId}/rules")
		defer span.End()

		vendorID, err := parseID(r, "vendorId")
		if err != nil {
			handleServiceError(ctx, w, err, logger)
			return
		}

		rules, err := svc.ListRules(ctx, session.FromContext(ctx).Token, vendorID)
		if err != nil {
			handleServiceError(ctx, w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.NewListResponse(rules))
	}
}

func listConditionsHandler(svc *service.CreditService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/vendors/{vendorId}/rules/{ruleId}/conditions")
		defer span.End()

		vendorID, err := parseID(r, "vendorId")
		if err != nil {
			handleServiceError(ctx, w, err, logger)
			return
		}
		ruleID, err := parseID(r, "ruleId")
		if err != nil {
			handleServiceError(ctx, w, err, logger)
			return
		}

		conditions, err := svc.ListConditions(ctx, session.FromContext(ctx).Token, vendorID, ruleID)
		if err != nil {
			handleServiceError(ctx, w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.NewListResponse(conditions))
	}
}
