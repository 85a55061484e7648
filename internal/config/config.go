package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	// Token verification for the external identity provider.
	AuthJWTSecret string
	AuthIssuer    string
	AuthAudience  string

	// Catalog defaults.
	CatalogCacheTTL     time.Duration
	CatalogDefaultLimit int
	CatalogMaxLimit     int

	// Cart and checkout.
	CartTTL            time.Duration
	CheckoutSessionTTL time.Duration
	IdempotencyTTL     time.Duration

	// Pricing policy. Deposit is expressed in basis points of rental value.
	DepositRateBps      int
	HomeDeliveryFee     int64
	DamageProtectionFee int64
	CurrencyCode        string

	// Compare tray.
	CompareMaxItems int

	// Analytics.
	AnalyticsCacheTTL    time.Duration
	AnalyticsDefaultDays int

	// Background queue.
	QueueRedisPrefix     string
	QueueConcurrency     int
	QueuePollInterval    time.Duration
	NotifyEmailEnabled   bool
	NotifyEmailFrom      string
	WebhookEnabled       bool
	WebhookEndpoints     []string
	WebhookSecret        string
	WebhookTimeout       time.Duration
	RateLimitPerMinute   int
	RequestBodyLimit     int64
	SecurityHeadersOn    bool

	// Observability.
	LogLevel         string
	LogFormat        string
	MetricsNamespace string
	OtelEndpoint     string
	OtelInsecure     bool
	TraceSampleRatio float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		AuthJWTSecret: k.String("AUTH_JWT_SECRET"),
		AuthIssuer:    strings.TrimSpace(k.String("AUTH_ISSUER")),
		AuthAudience:  strings.TrimSpace(k.String("AUTH_AUDIENCE")),

		CatalogCacheTTL:     parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		CatalogDefaultLimit: intOrDefault(k.Int("CATALOG_DEFAULT_LIMIT"), 20),
		CatalogMaxLimit:     intOrDefault(k.Int("CATALOG_MAX_LIMIT"), 100),

		CartTTL:            parseDuration(k.String("CART_TTL"), "168h"),
		CheckoutSessionTTL: parseDuration(k.String("CHECKOUT_SESSION_TTL"), "30m"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),

		DepositRateBps:      intOrDefault(k.Int("PRICING_DEPOSIT_RATE_BPS"), 3000),
		HomeDeliveryFee:     int64OrDefault(k.Int64("PRICING_HOME_DELIVERY_FEE"), 99),
		DamageProtectionFee: int64OrDefault(k.Int64("PRICING_DAMAGE_PROTECTION_FEE"), 149),
		CurrencyCode:        valueOrDefault(k.String("CURRENCY_CODE"), "INR"),

		CompareMaxItems: intOrDefault(k.Int("COMPARE_MAX_ITEMS"), 4),

		AnalyticsCacheTTL:    parseDuration(k.String("ANALYTICS_CACHE_TTL"), "10m"),
		AnalyticsDefaultDays: intOrDefault(k.Int("ANALYTICS_DEFAULT_DAYS"), 30),

		QueueRedisPrefix:   valueOrDefault(k.String("QUEUE_REDIS_PREFIX"), "trek"),
		QueueConcurrency:   intOrDefault(k.Int("QUEUE_CONCURRENCY"), 4),
		QueuePollInterval:  parseDuration(k.String("QUEUE_POLL_INTERVAL"), "2s"),
		NotifyEmailEnabled: parseBool(valueOrDefault(k.String("NOTIFY_EMAIL_ENABLED"), "true")),
		NotifyEmailFrom:    valueOrDefault(k.String("NOTIFY_EMAIL_FROM"), "no-reply@trek.example"),
		WebhookEnabled:     parseBool(k.String("WEBHOOK_ENABLED")),
		WebhookEndpoints:   splitAndTrim(k.String("WEBHOOK_ENDPOINTS")),
		WebhookSecret:      k.String("WEBHOOK_SECRET"),
		WebhookTimeout:     parseDuration(k.String("WEBHOOK_TIMEOUT"), "5s"),
		RateLimitPerMinute: intOrDefault(k.Int("RATE_LIMIT_PER_MINUTE"), 300),
		RequestBodyLimit:   int64OrDefault(k.Int64("REQUEST_BODY_LIMIT"), 1<<20),
		SecurityHeadersOn:  parseBool(valueOrDefault(k.String("SECURITY_HEADERS_ENABLED"), "true")),

		LogLevel:         valueOrDefault(k.String("LOG_LEVEL"), "info"),
		LogFormat:        valueOrDefault(k.String("LOG_FORMAT"), "json"),
		MetricsNamespace: valueOrDefault(k.String("METRICS_NAMESPACE"), "trek"),
		OtelEndpoint:     strings.TrimSpace(k.String("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OtelInsecure:     parseBool(valueOrDefault(k.String("OTEL_EXPORTER_OTLP_INSECURE"), "true")),
		TraceSampleRatio: floatOrDefault(k.Float64("TRACE_SAMPLE_RATIO"), 1.0),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.AuthJWTSecret == "" {
		return nil, errors.New("AUTH_JWT_SECRET is required")
	}
	if cfg.DepositRateBps < 0 || cfg.DepositRateBps > 10000 {
		return nil, fmt.Errorf("PRICING_DEPOSIT_RATE_BPS out of range: %d", cfg.DepositRateBps)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func intOrDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func int64OrDefault(value, fallback int64) int64 {
	if value > 0 {
		return value
	}
	return fallback
}

func floatOrDefault(value, fallback float64) float64 {
	if value > 0 {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
