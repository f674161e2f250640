package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/config"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/handler"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/infra/cache"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/infra/vendorapi"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/service"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/session"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Fake Voyager API ---

type vendorReply struct {
	status int
	body   string
}

func ok(body string) vendorReply { return vendorReply{status: http.StatusOK, body: body} }

const (
	syncAccepted   = `{"P_TOKEN":"tok-1","P_REGISTRY_ID":"r-1","P_ERROR_MESSAGE":"null"}`
	registryOK     = `{"P_USERNAME":"jdoe","P_EMAIL":"jdoe@example.com","P_EMPLOYEE_ID":77,"P_COMPANY_ID":3,"P_ERROR_MESSAGE":"null"}`
	bundlePageOne  = `{"pCursor":[{"ITEM_BUNDLE_SEQ_ID":10,"ITEM_SEQ_ID":500,"TITLE":"Study Bible Set","ITEM_STATUS_TYPE_SEQ_ID":{},"DESCRIPTION":{},"IMAGE_URL":{},"TOTAL_SALE_PRICE":19.99,"TOTAL_RETAIL_PRICE":29.99,"FLAG_BANNED_US":"N","TOTAL_SALE_PRICE_CA":24.99,"TOTAL_RETAIL_PRICE_CA":34.99,"FLAG_BANNED_CA":"Y"}],"P_ERROR_MESSAGE":"null","P_TOTAL_PAGES":1}`
	vendorsOK      = `{"REF_CURSOR":[{"VENDOR_SEQ_ID":7,"VENDOR_CODE":"ACM","COMPANY_NAME":"Acme Books","DISCOUNT_THRESHOLD_PERCENT":42.5,"NORMAL_BUY_DISCOUNT_PERCENT":40}],"P_ERROR_MESSAGE":"null"}`
	rulesOK        = `{"REF_CURSOR":[{"VENDOR_BACKEND_CREDIT_RULE_SEQ_ID":1,"CREDIT_PERCENT":5,"TYPE_ID":"keyword","VALUE":"bible"},{"VENDOR_BACKEND_CREDIT_RULE_SEQ_ID":2,"CREDIT_PERCENT":2.5,"TYPE_ID":"category","VALUE":"kids"}],"P_ERROR_MESSAGE":"null"}`
	conditionsOK   = `{"REF_CURSOR":[{"VENDOR_BACKEND_CREDIT_RULE_SEQ_ID":1,"TYPE_ID":"publisher","VALUE":"Zondervan"}],"P_ERROR_MESSAGE":"null"}`
	saveAccepted   = `{"P_ERROR_MESSAGE":"null"}`
	saveUnexpected = `{"P_ERROR_MESSAGE":"Unexpected error"}`
)

// fakeVoyager answers the vendor endpoints with canned replies and records what it saw.
type fakeVoyager struct {
	mu      sync.Mutex
	replies map[string]vendorReply
	calls   map[string]int
	queries map[string][]string // path -> raw query of every call
	auth    map[string][]string // path -> Authorization header of every call
}

func newFakeVoyager() *fakeVoyager {
	return &fakeVoyager{
		replies: map[string]vendorReply{
			"/api/RegistryAPI/ExecuteSyncUsernameAccess":                        ok(syncAccepted),
			"/api/RegistryAPI/GetApiRegistry":                                   ok(registryOK),
			"/api/ItemBundleAPI/GetItemBundle":                                  ok(bundlePageOne),
			"/api/ItemBundleAPI/SaveItemBundleAll":                              ok(saveAccepted),
			"/api/VendorBackendCreditAPI/ListBackendCreditVendors":              ok(vendorsOK),
			"/api/VendorBackendCreditAPI/ListBackendCreditVendorRules":          ok(rulesOK),
			"/api/VendorBackendCreditAPI/ListBackendCreditVendorRuleConditions": ok(conditionsOK),
		},
		calls:   map[string]int{},
		queries: map[string][]string{},
		auth:    map[string][]string{},
	}
}

func (f *fakeVoyager) set(path string, reply vendorReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[path] = reply
}

func (f *fakeVoyager) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeVoyager) queriesFor(path string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries[path]...)
}

func (f *fakeVoyager) authFor(path string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.auth[path]...)
}

func (f *fakeVoyager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls[r.URL.Path]++
	f.queries[r.URL.Path] = append(f.queries[r.URL.Path], r.URL.RawQuery)
	f.auth[r.URL.Path] = append(f.auth[r.URL.Path], r.Header.Get("Authorization"))
	reply, found := f.replies[r.URL.Path]
	f.mu.Unlock()

	if !found {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.status)
	_, _ = w.Write([]byte(reply.body))
}

// --- Application under test ---

type testApp struct {
	router   http.Handler
	vendor   *fakeVoyager
	sessions *session.Manager
	metrics  *observability.Metrics
}

func testConfig() *config.Config {
	return &config.Config{
		AllowedOrigins:    []string{"http://localhost:3000"},
		SessionMaxAge:     time.Hour,
		BundlePageSize:    50,
		BundleMaxPages:    3,
		DefaultCompanyID:  1,
		DefaultEmployeeID: 123,
		MaxConcurrency:    4,
	}
}

func newTestApp(t *testing.T, mutate ...func(*config.Config)) *testApp {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	fake := newFakeVoyager()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("voyager-test", logger)
	resilienceCfg := resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxConcurrency: cfg.MaxConcurrency}
	voyager := vendorapi.NewClient(srv.Client(), srv.URL, 365, cb, resilienceCfg, metrics, logger)

	vendorCache := cache.New[[]domain.Vendor](time.Minute)
	t.Cleanup(vendorCache.Close)

	metrics.RegisterGauge("voyager_vendor_in_flight", "Vendor calls currently in flight.",
		func() float64 { return float64(voyager.InFlight()) })
	metrics.RegisterGauge("voyager_vendor_cache_entries", "Entries held by the vendor list cache.",
		func() float64 { return float64(vendorCache.Len()) })

	keys, err := session.DeriveKeys("handler-test-secret")
	require.NoError(t, err)
	sessions := session.NewManager(keys, session.Options{MaxAge: cfg.SessionMaxAge}, logger)

	bundleSvc := service.NewBundleService(voyager, service.BundleConfig{
		PageSize:          cfg.BundlePageSize,
		MaxPages:          cfg.BundleMaxPages,
		DefaultCompanyID:  cfg.DefaultCompanyID,
		DefaultEmployeeID: cfg.DefaultEmployeeID,
	}, metrics, logger)

	router := handler.NewRouter(handler.Services{
		Auth:     service.NewAuthService(voyager, metrics, logger),
		Bundles:  bundleSvc,
		Credits:  service.NewCreditService(voyager, vendorCache, cfg.MaxConcurrency, metrics, logger),
		Relay:    voyager,
		Sessions: sessions,
		Breaker:  cb,
		CSRFKey:  keys.CSRF,
	}, cfg, metrics, logger)

	return &testApp{router: router, vendor: fake, sessions: sessions, metrics: metrics}
}

// do serves one request and returns the recorder.
func (a *testApp) do(method, target string, body any, cookies []*http.Cookie, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// signedInCookies returns the cookies of a session with a token and a profile.
func (a *testApp) signedInCookies(t *testing.T) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	err := a.sessions.Save(rec, &domain.Session{
		Token:      "tok-1",
		RegistryID: "r-1",
		Profile:    &domain.UserProfile{Username: "jdoe", CompanyID: "3", EmployeeID: "77"},
	})
	require.NoError(t, err)
	return rec.Result().Cookies()
}

// liveCookies keeps only cookies that were set, not expired.
func liveCookies(rec *httptest.ResponseRecorder) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 && c.Value != "" {
			out = append(out, c)
		}
	}
	return out
}

func cookieMap(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(strings.NewReader(rec.Body.String())).Decode(&v), rec.Body.String())
	return v
}

type errorBody struct {
	Error string `json:"error"`
}

// cookieJar mimics the browser: set cookies replace, expired cookies are dropped.
type cookieJar map[string]*http.Cookie

func (j cookieJar) update(rec *httptest.ResponseRecorder) {
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(j, c.Name)
			continue
		}
		j[c.Name] = c
	}
}

func (j cookieJar) list() []*http.Cookie {
	out := make([]*http.Cookie, 0, len(j))
	for _, c := range j {
		out = append(out, c)
	}
	return out
}
