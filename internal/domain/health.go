package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual service.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
	LastChecked string `json:"lastChecked"`
}

// AdminMetrics is returned by GET /api/metrics/summary.
type AdminMetrics struct {
	SignInsAccepted     int64   `json:"signInsAccepted"`
	SignInsRejected     int64   `json:"signInsRejected"`
	SignInsFailed       int64   `json:"signInsFailed"`
	BundleSavesAccepted int64   `json:"bundleSavesAccepted"`
	BundleSavesRejected int64   `json:"bundleSavesRejected"`
	CacheHitRate        float64 `json:"cacheHitRate"`
	Period              string  `json:"period"`
}

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// NewListResponse wraps items, never encoding a null data array.
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Data: items, Total: len(items)}
}

// RawResponse is an upstream response relayed without interpretation.
type RawResponse struct {
	StatusCode int
	Body       []byte
}
