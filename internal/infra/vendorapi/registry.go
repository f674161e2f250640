package vendorapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

const (
	syncAccessPath = "/api/RegistryAPI/ExecuteSyncUsernameAccess"
	registryPath   = "/api/RegistryAPI/GetApiRegistry"
)

type accessResponse struct {
	Token        flexString           `json:"P_TOKEN"`
	RegistryID   flexString           `json:"P_REGISTRY_ID"`
	ErrorMessage domain.VendorMessage `json:"P_ERROR_MESSAGE"`
}

type registryResponse struct {
	Username                flexString           `json:"P_USERNAME"`
	Email                   flexString           `json:"P_EMAIL"`
	EmployeeID              flexString           `json:"P_EMPLOYEE_ID"`
	CompanyID               flexString           `json:"P_COMPANY_ID"`
	PositionLevelID         flexString           `json:"P_POSITION_LEVEL_ID"`
	LastSignIn              flexString           `json:"P_LAST_SIGN_IN"`
	LastTokenAuthentication flexString           `json:"P_LAST_TOKEN_AUTHENTICATION"`
	TokenExpires            flexString           `json:"P_TOKEN_EXPIRES"`
	ErrorMessage            domain.VendorMessage `json:"P_ERROR_MESSAGE"`
}

func (r *registryResponse) toDomain() *domain.UserProfile {
	return &domain.UserProfile{
		Username:                string(r.Username),
		Email:                   string(r.Email),
		EmployeeID:              string(r.EmployeeID),
		CompanyID:               string(r.CompanyID),
		PositionLevelID:         string(r.PositionLevelID),
		LastSignIn:              string(r.LastSignIn),
		LastTokenAuthentication: string(r.LastTokenAuthentication),
		TokenExpires:            string(r.TokenExpires),
	}
}

func (c *Client) syncAccessRequest(email string) request {
	q := url.Values{}
	q.Set("pUsername", email)
	q.Set("pExpireInDays", strconv.Itoa(c.tokenExpireDays))
	return request{
		operation: "sync_username_access",
		method:    http.MethodPost,
		path:      syncAccessPath,
		query:     q,
	}
}

func registryRequest(token string) request {
	return request{
		operation: "get_registry",
		method:    http.MethodGet,
		path:      registryPath,
		token:     token,
	}
}

// SyncUsernameAccess exchanges an email for a vendor token.
// The returned grant carries the interpreted P_ERROR_MESSAGE; callers decide what a rejection means.
func (c *Client) SyncUsernameAccess(ctx context.Context, email string) (*domain.AccessGrant, error) {
	ctx, span := tracer.Start(ctx, "VendorAPI.SyncUsernameAccess")
	defer span.End()

	var resp accessResponse
	if err := c.fetchJSON(ctx, c.syncAccessRequest(email), &resp); err != nil {
		return nil, err
	}

	grant := &domain.AccessGrant{
		Token:      string(resp.Token),
		RegistryID: string(resp.RegistryID),
		Result:     domain.AccessResult(resp.ErrorMessage),
	}
	span.SetAttributes(attribute.Bool("access.accepted", grant.Result.Accepted))
	return grant, nil
}

// GetRegistry fetches the profile tied to token.
func (c *Client) GetRegistry(ctx context.Context, token string) (*domain.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "VendorAPI.GetRegistry")
	defer span.End()

	var resp registryResponse
	if err := c.fetchJSON(ctx, registryRequest(token), &resp); err != nil {
		return nil, err
	}
	if res := domain.ReadResult(resp.ErrorMessage); !res.Accepted {
		return nil, &domain.ErrVendorRejected{Operation: "registry", Message: res.Message}
	}
	return resp.toDomain(), nil
}

// RelaySyncUsernameAccess forwards the sign-in call and returns the vendor answer as-is.
func (c *Client) RelaySyncUsernameAccess(ctx context.Context, email string) (*domain.RawResponse, error) {
	ctx, span := tracer.Start(ctx, "VendorAPI.RelaySyncUsernameAccess")
	defer span.End()

	return c.relay(ctx, c.syncAccessRequest(email))
}

// RelayRegistry forwards the registry call and returns the vendor answer as-is.
func (c *Client) RelayRegistry(ctx context.Context, token string) (*domain.RawResponse, error) {
	ctx, span := tracer.Start(ctx, "VendorAPI.RelayRegistry")
	defer span.End()

	return c.relay(ctx, registryRequest(token))
}
