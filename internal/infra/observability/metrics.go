package observability

import (
	"time"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Outcome labels shared by the sign-in and bundle-save counters.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	vendorDuration *prometheus.HistogramVec
	vendorErrors   *prometheus.CounterVec
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	signIns        *prometheus.CounterVec
	bundleSaves    *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		vendorDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voyager_vendor_request_duration_seconds",
				Help:    "Duration of vendor API calls by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		vendorErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voyager_vendor_errors_total",
				Help: "Total failed vendor API calls.",
			},
			[]string{"operation"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voyager_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voyager_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		signIns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voyager_sign_ins_total",
				Help: "Sign-in attempts by outcome.",
			},
			[]string{"outcome"},
		),
		bundleSaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voyager_bundle_saves_total",
				Help: "Bundle saves by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

// RegisterGauge exposes fn as a gauge sampled on every scrape.
func (m *Metrics) RegisterGauge(name, help string, fn func() float64) {
	m.Registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn))
}

// RecordVendorCall records the duration of a vendor call.
func (m *Metrics) RecordVendorCall(operation string, d time.Duration) {
	m.vendorDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrVendorError increments the vendor error counter.
func (m *Metrics) IncrVendorError(operation string) {
	m.vendorErrors.WithLabelValues(operation).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrSignIn counts a sign-in attempt.
func (m *Metrics) IncrSignIn(outcome string) {
	m.signIns.WithLabelValues(outcome).Inc()
}

// IncrBundleSave counts a bundle save.
func (m *Metrics) IncrBundleSave(outcome string) {
	m.bundleSaves.WithLabelValues(outcome).Inc()
}

// Snapshot returns the counters behind GET /api/metrics/summary.
func (m *Metrics) Snapshot() *domain.AdminMetrics {
	hits := getCounterValue(m.cacheHits, "vendors")
	misses := getCounterValue(m.cacheMisses, "vendors")

	cacheHitRate := float64(0)
	if hits+misses > 0 {
		cacheHitRate = hits / (hits + misses)
	}

	return &domain.AdminMetrics{
		SignInsAccepted:     int64(getCounterValue(m.signIns, OutcomeAccepted)),
		SignInsRejected:     int64(getCounterValue(m.signIns, OutcomeRejected)),
		SignInsFailed:       int64(getCounterValue(m.signIns, OutcomeFailed)),
		BundleSavesAccepted: int64(getCounterValue(m.bundleSaves, OutcomeAccepted)),
		BundleSavesRejected: int64(getCounterValue(m.bundleSaves, OutcomeRejected)),
		CacheHitRate:        cacheHitRate,
		Period:              "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
