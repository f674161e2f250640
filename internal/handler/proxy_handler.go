package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/port"

	"go.uber.org/zap"
)

// ============================================================
// Raw proxies: POST /api/auth, GET /api/registry
// ============================================================

func authProxyHandler(relay port.RegistryRelay, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/auth")
		defer span.End()

		var req domain.SignInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		raw, err := relay.RelaySyncUsernameAccess(ctx, strings.TrimSpace(req.Email))
		if err != nil {
			span.RecordError(err)
			logger.Error("auth proxy failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Authentication failed")
			return
		}

		writeRaw(w, raw)
	}
}

func registryProxyHandler(relay port.RegistryRelay, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/registry")
		defer span.End()

		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "No token provided")
			return
		}

		raw, err := relay.RelayRegistry(ctx, token)
		if err != nil {
			span.RecordError(err)
			logger.Error("registry proxy failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to fetch registry data")
			return
		}

		writeRaw(w, raw)
	}
}
