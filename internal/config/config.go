package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultVoyagerDomain is the production vendor API host.
const DefaultVoyagerDomain = "https://voyagerwebapi.anchordistributors.com"

// DefaultSessionSecret is only meant for local development.
const DefaultSessionSecret = "voyager-default-dev-secret-change-me"

// Config holds all application configuration.
// Values are loaded from environment variables, then an optional .env file, then defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Vendor API
	VoyagerAPIDomain string
	TokenExpireDays  int

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Session
	SessionSecret string
	SessionMaxAge time.Duration
	CookieSecure  bool
	CSRFEnabled   bool

	// CORS
	AllowedOrigins []string

	// Bundles
	BundlePageSize    int
	BundleMaxPages    int
	DefaultCompanyID  int64
	DefaultEmployeeID int64
}

// Load reads configuration. envFile may be empty; a missing file is not an error.
func Load(envFile string) *Config {
	v := viper.New()

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		// a missing .env is fine; env vars and defaults still apply
		_ = v.ReadInConfig()
	}

	v.AutomaticEnv()
	setDefaults(v)

	return &Config{
		Port:     v.GetInt("PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),

		VoyagerAPIDomain: strings.TrimRight(v.GetString("VOYAGER_API_DOMAIN"), "/"),
		TokenExpireDays:  v.GetInt("TOKEN_EXPIRE_DAYS"),

		HTTPTimeout: v.GetDuration("HTTP_TIMEOUT"),

		MaxRetries:     v.GetInt("MAX_RETRIES"),
		InitialBackoff: v.GetDuration("INITIAL_BACKOFF"),
		MaxConcurrency: v.GetInt("MAX_CONCURRENCY"),

		CacheTTL: v.GetDuration("CACHE_TTL"),

		OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),

		SessionSecret: v.GetString("SESSION_SECRET"),
		SessionMaxAge: v.GetDuration("SESSION_MAX_AGE"),
		CookieSecure:  v.GetBool("COOKIE_SECURE"),
		CSRFEnabled:   v.GetBool("CSRF_ENABLED"),

		AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		BundlePageSize:    v.GetInt("BUNDLE_PAGE_SIZE"),
		BundleMaxPages:    v.GetInt("BUNDLE_MAX_PAGES"),
		DefaultCompanyID:  v.GetInt64("DEFAULT_COMPANY_ID"),
		DefaultEmployeeID: v.GetInt64("DEFAULT_EMPLOYEE_ID"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("VOYAGER_API_DOMAIN", DefaultVoyagerDomain)
	v.SetDefault("TOKEN_EXPIRE_DAYS", 365)

	v.SetDefault("HTTP_TIMEOUT", 10*time.Second)

	v.SetDefault("MAX_RETRIES", 2)
	v.SetDefault("INITIAL_BACKOFF", 100*time.Millisecond)
	v.SetDefault("MAX_CONCURRENCY", 16)

	v.SetDefault("CACHE_TTL", time.Minute)

	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	v.SetDefault("SESSION_SECRET", DefaultSessionSecret)
	v.SetDefault("SESSION_MAX_AGE", 365*24*time.Hour)
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("CSRF_ENABLED", true)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	v.SetDefault("BUNDLE_PAGE_SIZE", 50)
	v.SetDefault("BUNDLE_MAX_PAGES", 20)
	v.SetDefault("DEFAULT_COMPANY_ID", 1)
	v.SetDefault("DEFAULT_EMPLOYEE_ID", 123)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
