package handler

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/service"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/session"

	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// ============================================================
// Session: GET/POST/DELETE /api/session, GET /api/csrf
// ============================================================

func getSessionHandler(authSvc *service.AuthService, sessions *session.Manager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/session")
		defer span.End()

		sess := session.FromContext(ctx)

		// Token but no profile: the registry was unreachable at sign-in. Try again.
		if sess.HasToken() && sess.Profile == nil {
			profile, err := authSvc.Profile(ctx, sess.Token)
			if err != nil {
				logger.Debug("session: profile still unavailable", zap.Error(err))
			} else {
				filled := *sess
				filled.Profile = profile
				if err := sessions.Save(w, &filled); err != nil {
					logger.Error("session: save failed", zap.Error(err))
				} else {
					sess = &filled
				}
			}
		}

		writeJSON(w, http.StatusOK, sess.View())
	}
}

func signInHandler(authSvc *service.AuthService, sessions *session.Manager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/session")
		defer span.End()

		email, err := readEmail(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		res, err := authSvc.SignIn(ctx, session.FromContext(ctx), email)
		if err != nil {
			handleServiceError(ctx, w, err, logger)
			return
		}

		if err := sessions.Save(w, res.Session); err != nil {
			handleServiceError(ctx, w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.SessionView{
			State:      res.State,
			RegistryID: res.Session.RegistryID,
			Profile:    res.Session.Profile,
		})
	}
}

func signOutHandler(authSvc *service.AuthService, sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/session")
		defer span.End()

		state := authSvc.SignOut(ctx, session.FromContext(ctx))
		sessions.Clear(w)

		writeJSON(w, http.StatusOK, domain.SessionView{State: state})
	}
}

func csrfTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := csrf.Token(r)
		w.Header().Set(csrfHeader, token)
		writeJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
	}
}

// readEmail accepts a JSON body or a submitted form.
func readEmail(r *http.Request) (string, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil && err != http.ErrNotMultipart {
			return "", err
		}
		return r.PostFormValue("email"), nil
	default:
		var req domain.SignInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", err
		}
		return req.Email, nil
	}
}
