package handler

import (
	"net/http"
	"net/url"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/config"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/port"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/service"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/csrf"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// csrfHeader carries the CSRF token on reads (GET /api/csrf) and writes.
const csrfHeader = "X-CSRF-Token"

// Services groups everything the routes call into.
type Services struct {
	Auth     *service.AuthService
	Bundles  *service.BundleService
	Credits  *service.CreditService
	Relay    port.RegistryRelay
	Sessions *session.Manager
	Breaker  *gobreaker.CircuitBreaker

	// CSRFKey is the 32-byte key gorilla/csrf signs its cookie with.
	CSRFKey []byte
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", csrfHeader},
		ExposedHeaders:   []string{csrfHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc.Breaker))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {

		// =============================================
		// Raw vendor proxies
		// =============================================
		r.Post("/auth", authProxyHandler(svc.Relay, logger))
		r.Get("/registry", registryProxyHandler(svc.Relay, logger))

		// =============================================
		// Static options & counters
		// =============================================
		r.Get("/pricing/options", pricingOptionsHandler())
		r.Get("/metrics/summary", metricsSummaryHandler(metrics))

		r.Group(func(r chi.Router) {
			r.Use(session.Middleware(svc.Sessions))

			// =============================================
			// Vendor backend credits (read-only, session optional)
			// =============================================
			r.Get("/vendors", listVendorsHandler(svc.Credits, logger))
			r.Get("/vendors/{vendorId}", selectVendorHandler(svc.Credits, logger))
			r.Get("/vendors/{vendorId}/rules", listRulesHandler(svc.Credits, logger))
			r.Get("/vendors/{vendorId}/rules/{ruleId}/conditions", listConditionsHandler(svc.Credits, logger))

			// Sign-out only expires cookies, so it stays reachable without a CSRF token.
			r.Delete("/session", signOutHandler(svc.Auth, svc.Sessions))

			// =============================================
			// Cookie-authenticated routes
			// =============================================
			r.Group(func(r chi.Router) {
				if cfg.CSRFEnabled {
					r.Use(plaintextUnlessSecure(cfg.CookieSecure))
					r.Use(csrf.Protect(svc.CSRFKey,
						csrf.Path("/"),
						csrf.Secure(cfg.CookieSecure),
						csrf.HttpOnly(true),
						csrf.SameSite(csrf.SameSiteLaxMode),
						csrf.RequestHeader(csrfHeader),
						csrf.TrustedOrigins(originHosts(cfg.AllowedOrigins)),
						csrf.ErrorHandler(csrfErrorHandler(logger)),
					))
				}

				r.Get("/csrf", csrfTokenHandler())

				r.Get("/session", getSessionHandler(svc.Auth, svc.Sessions, logger))
				r.Post("/session", signInHandler(svc.Auth, svc.Sessions, logger))

				r.Group(func(r chi.Router) {
					r.Use(RequireSession(logger))
					r.Get("/bundles", listBundlesHandler(svc.Bundles, logger))
					r.Get("/bundles/{bundleId}", getBundleHandler(svc.Bundles, logger))
					r.Put("/bundles/{bundleId}", saveBundleHandler(svc.Bundles, logger))
				})
			})
		})
	})

	return r
}

// plaintextUnlessSecure tells gorilla/csrf to skip its HTTPS-only referer check
// on plain-HTTP deployments (local development).
func plaintextUnlessSecure(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !secure && r.TLS == nil {
				r = csrf.PlaintextHTTPRequest(r)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func csrfErrorHandler(logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Warn("csrf: request rejected",
			zap.String("path", r.URL.Path),
			zap.Error(csrf.FailureReason(r)),
		)
		writeError(w, http.StatusForbidden, "Invalid or missing CSRF token")
	})
}

// originHosts turns CORS origins ("http://localhost:3000") into the host list csrf expects.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}
