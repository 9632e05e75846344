package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
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
	JWTSecret          string
	CORSAllowedOrigins []string
	PublicBaseURL      string
	BodyLimitBytes     int64

	AccessTokenTTL        time.Duration
	RefreshTokenTTL       time.Duration
	PasswordResetTTL      time.Duration
	RefreshCookieName     string
	RefreshCookieDomain   string
	RefreshCookieSecure   bool
	RefreshCookieSameSite http.SameSite
	LoginRateLimit        string

	IdempotencyTTL    time.Duration
	DashboardCacheTTL time.Duration
	DefaultCurrency   string

	PaymentProvider     string
	CloverBaseURL       string
	CloverMerchantID    string
	CloverPrivateKey    string
	CloverWebhookSecret string
	PaymentLinkTTL      time.Duration
	WebhookReplayTTL    time.Duration

	EmailEnabled bool
	ResendAPIKey string
	EmailFrom    string
	EmailReplyTo string

	PDFArchiveBucket   string
	PDFArchiveRegion   string
	PDFArchiveEndpoint string
	PDFArchivePrefix   string
	PDFArchiveKeyID    string
	PDFArchiveSecret   string

	OutboundTimeout    time.Duration
	RetryBase          time.Duration
	RetryMaxAttempts   int
	RetryJitterPercent int
	CircuitMinRequests int
	CircuitFailureRate float64
	CircuitOpenFor     time.Duration
	LockTTL            time.Duration
	LockRetryBackoff   time.Duration
	WorkerConcurrency  int
	TaskMaxRetry       int
	AuditEnabled       bool
	LogRingSize        int

	LogFormat          string
	LogLevel           string
	MetricsEnabled     bool
	MetricsNamespace   string
	TracingEnabled     bool
	TracingExporter    string
	OTLPEndpoint       string
	TracingSampling    float64
	PprofEnabled       bool
	PprofUser          string
	PprofPass          string
	HealthDBTimeout    time.Duration
	HealthRedisTimeout time.Duration
	ShutdownTimeout    time.Duration
	DBMaxConns         int
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
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		PublicBaseURL:      strings.TrimRight(valueOrDefault(k.String("PUBLIC_BASE_URL"), "http://localhost:5173"), "/"),
		BodyLimitBytes:     int64(parseInt(k.String("BODY_LIMIT_BYTES"), 1<<20)),

		AccessTokenTTL:        parseDuration(k.String("ACCESS_TOKEN_TTL"), "15m"),
		RefreshTokenTTL:       parseDuration(k.String("REFRESH_TOKEN_TTL"), "720h"),
		PasswordResetTTL:      parseDuration(k.String("PASSWORD_RESET_TTL"), "1h"),
		RefreshCookieName:     valueOrDefault(k.String("REFRESH_COOKIE_NAME"), "refresh_token"),
		RefreshCookieDomain:   strings.TrimSpace(k.String("REFRESH_COOKIE_DOMAIN")),
		RefreshCookieSecure:   parseBool(k.String("REFRESH_COOKIE_SECURE")),
		RefreshCookieSameSite: parseSameSite(k.String("REFRESH_COOKIE_SAMESITE")),
		LoginRateLimit:        valueOrDefault(k.String("RATE_LIMIT_LOGIN"), "10-M"),

		IdempotencyTTL:    parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		DashboardCacheTTL: parseDuration(k.String("DASHBOARD_CACHE_TTL"), "60s"),
		DefaultCurrency:   strings.ToUpper(valueOrDefault(k.String("DEFAULT_CURRENCY"), "USD")),

		PaymentProvider:     strings.ToLower(valueOrDefault(k.String("PAYMENT_PROVIDER"), "clover-mock")),
		CloverBaseURL:       strings.TrimRight(valueOrDefault(k.String("CLOVER_BASE_URL"), "https://apisandbox.dev.clover.com"), "/"),
		CloverMerchantID:    k.String("CLOVER_MERCHANT_ID"),
		CloverPrivateKey:    k.String("CLOVER_PRIVATE_KEY"),
		CloverWebhookSecret: k.String("CLOVER_WEBHOOK_SECRET"),
		PaymentLinkTTL:      parseDuration(k.String("PAYMENT_LINK_TTL"), "24h"),
		WebhookReplayTTL:    parseDuration(k.String("WEBHOOK_REPLAY_TTL"), "48h"),

		EmailEnabled: parseBool(k.String("EMAIL_ENABLED")),
		ResendAPIKey: k.String("RESEND_API_KEY"),
		EmailFrom:    valueOrDefault(k.String("EMAIL_FROM"), "Invoices <invoices@example.com>"),
		EmailReplyTo: strings.TrimSpace(k.String("EMAIL_REPLY_TO")),

		PDFArchiveBucket:   strings.TrimSpace(k.String("PDF_ARCHIVE_BUCKET")),
		PDFArchiveRegion:   valueOrDefault(k.String("PDF_ARCHIVE_REGION"), "us-east-1"),
		PDFArchiveEndpoint: strings.TrimSpace(k.String("PDF_ARCHIVE_ENDPOINT")),
		PDFArchivePrefix:   valueOrDefault(k.String("PDF_ARCHIVE_PREFIX"), "invoices"),
		PDFArchiveKeyID:    strings.TrimSpace(k.String("PDF_ARCHIVE_ACCESS_KEY_ID")),
		PDFArchiveSecret:   strings.TrimSpace(k.String("PDF_ARCHIVE_SECRET_ACCESS_KEY")),

		OutboundTimeout:    parseDuration(k.String("OUTBOUND_TIMEOUT"), "10s"),
		RetryBase:          parseDuration(k.String("RETRY_BASE"), "200ms"),
		RetryMaxAttempts:   parseInt(k.String("RETRY_MAX_ATTEMPTS"), 3),
		RetryJitterPercent: parseInt(k.String("RETRY_JITTER_PERCENT"), 20),
		CircuitMinRequests: parseInt(k.String("CIRCUIT_MIN_REQUESTS"), 10),
		CircuitFailureRate: parseFloat(k.String("CIRCUIT_FAILURE_RATE"), 0.5),
		CircuitOpenFor:     parseDuration(k.String("CIRCUIT_OPEN_FOR"), "30s"),
		LockTTL:            parseDuration(k.String("LOCK_TTL"), "10s"),
		LockRetryBackoff:   parseDuration(k.String("LOCK_RETRY_BACKOFF"), "50ms"),
		WorkerConcurrency:  parseInt(k.String("WORKER_CONCURRENCY"), 5),
		TaskMaxRetry:       parseInt(k.String("TASK_MAX_RETRY"), 5),
		AuditEnabled:       parseBoolDefault(k.String("AUDIT_ENABLED"), true),
		LogRingSize:        parseInt(k.String("OBS_LOG_RING_SIZE"), 500),

		LogFormat:          valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:           valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsEnabled:     parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
		MetricsNamespace:   valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "invoice"),
		TracingEnabled:     parseBoolDefault(k.String("OBS_ENABLE_TRACING"), false),
		TracingExporter:    valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
		OTLPEndpoint:       strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		TracingSampling:    parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1),
		PprofEnabled:       parseBool(k.String("OBS_ENABLE_PPROF")),
		PprofUser:          strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_USER")),
		PprofPass:          strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_PASS")),
		HealthDBTimeout:    parseDuration(k.String("HEALTH_READY_DB_TIMEOUT"), "500ms"),
		HealthRedisTimeout: parseDuration(k.String("HEALTH_READY_REDIS_TIMEOUT"), "300ms"),
		ShutdownTimeout:    parseDuration(k.String("SHUTDOWN_TIMEOUT"), "15s"),
		DBMaxConns:         parseInt(k.String("DB_MAX_CONNS"), 10),
	}

	if cfg.RefreshCookieSameSite == http.SameSiteDefaultMode {
		cfg.RefreshCookieSameSite = http.SameSiteLaxMode
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	switch cfg.PaymentProvider {
	case "clover":
		if cfg.CloverMerchantID == "" || cfg.CloverPrivateKey == "" {
			return nil, errors.New("CLOVER_MERCHANT_ID and CLOVER_PRIVATE_KEY are required for the clover provider")
		}
	case "clover-mock":
	default:
		return nil, fmt.Errorf("unsupported PAYMENT_PROVIDER %q", cfg.PaymentProvider)
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

// ArchiveEnabled reports whether rendered PDFs are copied to object storage.
func (c *Config) ArchiveEnabled() bool {
	return c.PDFArchiveBucket != ""
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
		return strings.TrimSpace(value)
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

func parseInt(value string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func parseFloat(value string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}

// MustLoad behaves like Load but panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
