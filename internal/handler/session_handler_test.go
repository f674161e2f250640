package handler_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/config"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/service"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	syncPath     = "/api/RegistryAPI/ExecuteSyncUsernameAccess"
	registryPath = "/api/RegistryAPI/GetApiRegistry"
)

func TestSignIn_SetsAllCookies(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/api/session", map[string]string{"email": " jdoe@example.com "}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	view := decode[domain.SessionView](t, rec)
	assert.Equal(t, domain.AuthSignedIn, view.State)
	require.NotNil(t, view.Profile)
	assert.Equal(t, "jdoe", view.Profile.Username)

	cookies := cookieMap(rec)
	require.Contains(t, cookies, session.TokenCookie)
	require.Contains(t, cookies, session.RegistryCookie)
	require.Contains(t, cookies, session.ProfileCookie)
	assert.Equal(t, "tok-1", cookies[session.TokenCookie].Value)
	assert.Equal(t, "r-1", cookies[session.RegistryCookie].Value)
	assert.True(t, cookies[session.TokenCookie].HttpOnly)

	queries := app.vendor.queriesFor(syncPath)
	require.Len(t, queries, 1)
	q, err := url.ParseQuery(queries[0])
	require.NoError(t, err)
	assert.Equal(t, "jdoe@example.com", q.Get("pUsername"))
	assert.Equal(t, "365", q.Get("pExpireInDays"))
	assert.Equal(t, []string{"Bearer tok-1"}, app.vendor.authFor(registryPath))

	// the cookies alone restore the signed-in session
	rec = app.do(http.MethodGet, "/api/session", nil, liveCookies(rec))
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[domain.SessionView](t, rec)
	assert.Equal(t, domain.AuthSignedIn, view.State)
	assert.Equal(t, "r-1", view.RegistryID)
	assert.Equal(t, "jdoe", view.Profile.Username)
}

func TestSignIn_FormBody(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/api/session", "email=jdoe%40example.com", nil,
		"Content-Type", "application/x-www-form-urlencoded")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.AuthSignedIn, decode[domain.SessionView](t, rec).State)
}

func TestSignIn_Rejected(t *testing.T) {
	replies := []string{
		`{"P_TOKEN":"","P_ERROR_MESSAGE":"User not found"}`,
		`{"P_TOKEN":"tok","P_ERROR_MESSAGE":null}`,
		`{"P_TOKEN":"tok"}`,
	}

	for _, body := range replies {
		t.Run(body, func(t *testing.T) {
			app := newTestApp(t)
			app.vendor.set(syncPath, ok(body))

			rec := app.do(http.MethodPost, "/api/session", map[string]string{"email": "a@b.c"}, nil)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, service.SignInRejectedMessage, decode[errorBody](t, rec).Error)
			assert.Empty(t, rec.Result().Cookies(), "no cookies on a rejected sign-in")
			assert.Zero(t, app.vendor.count(registryPath))
		})
	}
}

func TestSignIn_TransportFailure(t *testing.T) {
	app := newTestApp(t)
	app.vendor.set(syncPath, vendorReply{status: http.StatusBadGateway, body: `{}`})

	rec := app.do(http.MethodPost, "/api/session", map[string]string{"email": "a@b.c"}, nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "An error occurred. Please try again later.", decode[errorBody](t, rec).Error)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, 1, app.vendor.count(syncPath), "sign-in is never retried")
}

func TestSignIn_BadInput(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/api/session", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(http.MethodPost, "/api/session", map[string]string{"email": "  "}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Zero(t, app.vendor.count(syncPath))
}

func TestSignOut_ClearsAllCookies(t *testing.T) {
	app := newTestApp(t)

	for name, cookies := range map[string][]*http.Cookie{
		"signed in":  app.signedInCookies(t),
		"signed out": nil,
	} {
		t.Run(name, func(t *testing.T) {
			rec := app.do(http.MethodDelete, "/api/session", nil, cookies)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, domain.AuthSignedOut, decode[domain.SessionView](t, rec).State)

			cleared := cookieMap(rec)
			for _, name := range []string{session.TokenCookie, session.RegistryCookie, session.ProfileCookie} {
				require.Contains(t, cleared, name)
				assert.Less(t, cleared[name].MaxAge, 0, name)
				assert.Empty(t, cleared[name].Value, name)
			}
		})
	}
}

func TestGetSession_SignedOut(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/api/session", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.SessionView{State: domain.AuthSignedOut}, decode[domain.SessionView](t, rec))
	assert.Zero(t, app.vendor.count(registryPath))
}

func TestGetSession_FillsMissingProfile(t *testing.T) {
	app := newTestApp(t)
	app.vendor.set(registryPath, vendorReply{status: http.StatusInternalServerError, body: `{}`})

	rec := app.do(http.MethodPost, "/api/session", map[string]string{"email": "a@b.c"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[domain.SessionView](t, rec)
	assert.Equal(t, domain.AuthSignedIn, view.State)
	assert.Nil(t, view.Profile)
	assert.NotContains(t, cookieMap(rec), session.ProfileCookie)

	jar := cookieJar{}
	jar.update(rec)

	app.vendor.set(registryPath, ok(registryOK))
	rec = app.do(http.MethodGet, "/api/session", nil, jar.list())
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[domain.SessionView](t, rec)
	assert.Equal(t, domain.AuthSignedIn, view.State)
	require.NotNil(t, view.Profile)
	assert.Equal(t, "jdoe", view.Profile.Username)
	assert.Contains(t, cookieMap(rec), session.ProfileCookie)
}

func TestGetSession_TamperedProfile(t *testing.T) {
	app := newTestApp(t)

	cookies := app.signedInCookies(t)
	for _, c := range cookies {
		if c.Name == session.ProfileCookie {
			c.Value += "x"
		}
	}
	app.vendor.set(registryPath, vendorReply{status: http.StatusUnauthorized, body: `{}`})

	rec := app.do(http.MethodGet, "/api/session", nil, cookies)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.AuthSignedOut, decode[domain.SessionView](t, rec).State)
}

func withCSRF(cfg *config.Config) { cfg.CSRFEnabled = true }

func TestCSRF_RejectsWritesWithoutToken(t *testing.T) {
	app := newTestApp(t, withCSRF)

	rec := app.do(http.MethodPost, "/api/session", map[string]string{"email": "a@b.c"}, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid or missing CSRF token", decode[errorBody](t, rec).Error)
	assert.Zero(t, app.vendor.count(syncPath))
}

func TestCSRF_AcceptsIssuedToken(t *testing.T) {
	app := newTestApp(t, withCSRF)
	jar := cookieJar{}

	rec := app.do(http.MethodGet, "/api/csrf", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, token)
	assert.Equal(t, token, decode[map[string]string](t, rec)["csrfToken"])
	jar.update(rec)

	rec = app.do(http.MethodPost, "/api/session", map[string]string{"email": "a@b.c"}, jar.list(), "X-CSRF-Token", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.AuthSignedIn, decode[domain.SessionView](t, rec).State)
}

func TestCSRF_SignOutWithoutToken(t *testing.T) {
	app := newTestApp(t, withCSRF)

	rec := app.do(http.MethodDelete, "/api/session", nil, app.signedInCookies(t))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.AuthSignedOut, decode[domain.SessionView](t, rec).State)
	cleared := cookieMap(rec)
	for _, name := range []string{session.TokenCookie, session.RegistryCookie, session.ProfileCookie} {
		require.Contains(t, cleared, name)
		assert.Less(t, cleared[name].MaxAge, 0, name)
	}
}
