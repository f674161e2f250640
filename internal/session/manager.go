// Package session owns the browser session: three cookies holding the vendor
// token, the registry id and a signed copy of the registry profile.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"

	"go.uber.org/zap"
)

// Cookie names shared with the browser front end.
const (
	TokenCookie    = "auth_token"
	RegistryCookie = "registry_id"
	ProfileCookie  = "user_details"
)

// Options configures cookie attributes.
type Options struct {
	MaxAge time.Duration
	Secure bool
}

// Manager reads and writes the session cookies.
type Manager struct {
	codec  *ProfileCodec
	maxAge time.Duration
	secure bool
	logger *zap.Logger
}

// NewManager creates a cookie session manager.
func NewManager(keys Keys, opts Options, logger *zap.Logger) *Manager {
	return &Manager{
		codec:  NewProfileCodec(keys.Signing, opts.MaxAge),
		maxAge: opts.MaxAge,
		secure: opts.Secure,
		logger: logger,
	}
}

// Load derives the session from the request cookies. It never fails:
// missing or tampered cookies produce a signed-out session.
func (m *Manager) Load(r *http.Request) *domain.Session {
	sess := &domain.Session{
		Token:      cookieValue(r, TokenCookie),
		RegistryID: cookieValue(r, RegistryCookie),
	}

	raw := cookieValue(r, ProfileCookie)
	if raw == "" || sess.Token == "" {
		return sess
	}

	profile, registryID, err := m.codec.Decode(raw)
	if err != nil {
		m.logger.Debug("session: discarding user details cookie", zap.Error(err))
		return sess
	}
	if registryID != "" && sess.RegistryID != "" && registryID != sess.RegistryID {
		m.logger.Debug("session: user details bound to another registry id")
		return sess
	}
	sess.Profile = profile
	return sess
}

// Save writes the token, registry id and (when present) profile cookies.
func (m *Manager) Save(w http.ResponseWriter, sess *domain.Session) error {
	if !sess.HasToken() {
		return errors.New("session: cannot save a session without a token")
	}

	var profileValue string
	if sess.Profile != nil {
		v, err := m.codec.Encode(sess.Profile, sess.RegistryID)
		if err != nil {
			return fmt.Errorf("session: encode user details: %w", err)
		}
		profileValue = v
	}

	http.SetCookie(w, m.cookie(TokenCookie, url.QueryEscape(sess.Token)))
	http.SetCookie(w, m.cookie(RegistryCookie, url.QueryEscape(sess.RegistryID)))
	if profileValue != "" {
		http.SetCookie(w, m.cookie(ProfileCookie, profileValue))
	}
	return nil
}

// Clear expires all three cookies, whatever state the session was in.
func (m *Manager) Clear(w http.ResponseWriter) {
	for _, name := range []string{TokenCookie, RegistryCookie, ProfileCookie} {
		c := m.cookie(name, "")
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}

func (m *Manager) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	if v, err := url.QueryUnescape(c.Value); err == nil {
		return v
	}
	return c.Value
}
