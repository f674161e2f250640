// Package vendorapi is the HTTP adapter for the Voyager vendor REST API.
// Every call goes through the shared circuit breaker and bulkhead. Only typed GETs
// retry; relayed calls are single attempts whose answer is passed through.
package vendorapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/voyager-admin-bfa-go/internal/infra/resilience"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("vendorapi")

const (
	serviceName  = "voyager"
	maxBodyBytes = 8 << 20
)

// Client talks to the vendor API.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	tokenExpireDays int
	cb              *gobreaker.CircuitBreaker
	cfg             resilience.Config
	bulkhead        *resilience.Bulkhead
	metrics         *observability.Metrics
	logger          *zap.Logger
}

// NewClient creates a vendor API client.
func NewClient(httpClient *http.Client, baseURL string, tokenExpireDays int, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *Client {
	return &Client{
		httpClient:      httpClient,
		baseURL:         baseURL,
		tokenExpireDays: tokenExpireDays,
		cb:              cb,
		cfg:             cfg,
		bulkhead:        resilience.NewBulkhead(cfg.MaxConcurrency),
		metrics:         metrics,
		logger:          logger,
	}
}

// InFlight returns the number of vendor calls currently holding a bulkhead slot.
func (c *Client) InFlight() int {
	return c.bulkhead.InUse()
}

type request struct {
	operation string
	method    string
	path      string
	query     url.Values
	token     string

	// passthrough marks a relayed call: one attempt, and any vendor answer
	// (even 5xx) is returned to the caller instead of failing.
	passthrough bool
}

type response struct {
	status int
	body   []byte
}

// statusError is a non-2xx vendor answer.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("vendor returned status %d", e.status)
}

// send executes req under the breaker. 5xx and transport errors are retried for
// GETs; 4xx answers are final and do not count against the breaker.
// Passthrough requests never retry and only transport errors fail them.
// The last response seen is returned even when err is non-nil.
func (c *Client) send(ctx context.Context, req request) (*response, error) {
	start := time.Now()
	defer func() { c.metrics.RecordVendorCall(req.operation, time.Since(start)) }()

	cfg := c.cfg
	if req.method != http.MethodGet || req.passthrough {
		cfg.MaxRetries = 0
	}

	var last *response
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, cfg, func() error {
			last = nil
			resp, err := c.roundTrip(ctx, req)
			if err != nil {
				return err
			}
			last = resp
			switch {
			case req.passthrough:
				return nil
			case resp.status >= 500:
				return &statusError{status: resp.status}
			case resp.status >= 400:
				return resilience.Permanent(&statusError{status: resp.status})
			}
			return nil
		})
	})
	if err != nil {
		c.metrics.IncrVendorError(req.operation)
		c.logger.Warn("vendorapi: request failed",
			zap.String("operation", req.operation),
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Error(err),
		)
	}
	return last, err
}

// roundTrip performs a single attempt.
func (c *Client) roundTrip(ctx context.Context, req request) (*response, error) {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.bulkhead.Release()

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, nil)
	if err != nil {
		return nil, resilience.Permanent(err)
	}

	httpReq.Header.Set("Accept", "*/*")
	if req.method != http.MethodGet {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	reqID := middleware.GetReqID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	httpReq.Header.Set("X-Request-ID", reqID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	c.logger.Debug("vendorapi: response",
		zap.String("operation", req.operation),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
	)
	return &response{status: resp.StatusCode, body: body}, nil
}

// fetchJSON sends req and decodes a 2xx body into out.
func (c *Client) fetchJSON(ctx context.Context, req request, out any) error {
	resp, err := c.send(ctx, req)
	if err != nil {
		return c.mapError(req, err)
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return &domain.ErrExternalService{
			Service: serviceName + "/" + req.operation,
			Err:     fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

// relay sends req once and returns the raw answer. Any status is relayed as long as
// the body is JSON.
func (c *Client) relay(ctx context.Context, req request) (*domain.RawResponse, error) {
	req.passthrough = true
	resp, err := c.send(ctx, req)
	if err != nil || resp == nil {
		return nil, c.mapError(req, err)
	}
	if !json.Valid(resp.body) {
		return nil, &domain.ErrExternalService{
			Service: serviceName + "/" + req.operation,
			Err:     fmt.Errorf("non-JSON response (status %d)", resp.status),
		}
	}
	return &domain.RawResponse{StatusCode: resp.status, Body: resp.body}, nil
}

func (c *Client) mapError(req request, err error) error {
	var se *statusError
	if errors.As(err, &se) {
		switch se.status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &domain.ErrUnauthorized{Message: "Authentication required. Please sign in again."}
		case http.StatusNotFound:
			return &domain.ErrNotFound{Resource: req.operation, ID: req.path}
		}
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ErrCircuitOpen{Service: serviceName}
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &domain.ErrTimeout{Operation: req.operation}
	}
	return &domain.ErrExternalService{Service: serviceName + "/" + req.operation, Err: err}
}
