package handler

import (
	"net/http"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/session"

	"go.uber.org/zap"
)

// sessionRequiredMessage is returned when a route needs a vendor token and the session has none.
const sessionRequiredMessage = "Authentication required. Please sign in again."

// RequireSession rejects requests whose session carries no vendor token.
// It must run after session.Middleware.
func RequireSession(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !session.FromContext(r.Context()).HasToken() {
				logger.Warn("session: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, sessionRequiredMessage)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
