// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"
)

// RegistryAPI exchanges an email for a vendor token and fetches the registry profile.
type RegistryAPI interface {
	SyncUsernameAccess(ctx context.Context, email string) (*domain.AccessGrant, error)
	GetRegistry(ctx context.Context, token string) (*domain.UserProfile, error)
}

// RegistryRelay forwards registry calls and returns the upstream response untouched.
// Used by the /api/auth and /api/registry proxy routes.
type RegistryRelay interface {
	RelaySyncUsernameAccess(ctx context.Context, email string) (*domain.RawResponse, error)
	RelayRegistry(ctx context.Context, token string) (*domain.RawResponse, error)
}

// BundleAPI reads and writes item bundles.
type BundleAPI interface {
	ListBundles(ctx context.Context, token string, page, pageSize int) (*domain.BundlePage, error)
	SaveBundle(ctx context.Context, token string, save *domain.BundleSave) (domain.Result, error)
}

// CreditAPI reads vendor backend-credit data.
type CreditAPI interface {
	ListVendors(ctx context.Context, token string) ([]domain.Vendor, error)
	ListVendorRules(ctx context.Context, token string, vendorID int64) ([]domain.VendorRule, error)
	ListRuleConditions(ctx context.Context, token string, vendorID, ruleID int64) ([]domain.RuleCondition, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
}
