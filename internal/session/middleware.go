package session

import (
	"context"
	"net/http"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"
)

type contextKey string

const sessionKey contextKey = "session"

// Middleware derives the session on every request and stores it in the context.
func Middleware(m *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithSession(r.Context(), m.Load(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// FromContext returns the request session, or an empty signed-out session.
func FromContext(ctx context.Context) *domain.Session {
	if sess, ok := ctx.Value(sessionKey).(*domain.Session); ok && sess != nil {
		return sess
	}
	return &domain.Session{}
}
