package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	LockDriverMemory = "memory"
	LockDriverRedis  = "redis"

	RatesSourceStatic = "static"
	RatesSourceRedis  = "redis"
)

type Config struct {
	Environment string
	ServerPort  string
	ServerHost  string

	StorageDriver string
	DatabaseURL   string
	RedisURL      string
	LockDriver    string
	LockTTL       time.Duration

	JWTSecret      string
	JWTAlgorithm   string
	AccessTokenTTL time.Duration

	LogLevel               string
	LogFormat              string
	LogCorrelationIDHeader string
	LogEnableRequestLog    bool

	CORSEnabled          bool
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	StreamEnabled   bool
	StreamHeartbeat time.Duration

	// Currency
	CanonicalCurrency string
	RatesSource       string
	StaticRates       map[string]float64
	RatesRedisKey     string
	RatesCacheTTL     time.Duration

	// Workflow
	TransitionMaxRetries int
	TransitionBackoff    time.Duration
	RepositoryTimeout    time.Duration

	// Continuation
	ContinuationDefault string
	AlertDaysDefault    int
	ScanInterval        time.Duration
	ScanTimeout         time.Duration
}

var (
	ErrMissingDatabaseURL       = errors.New("DATABASE_URL is required")
	ErrMissingJWTSecret         = errors.New("JWT_SECRET is required")
	ErrInvalidJWTAlgorithm      = errors.New("invalid JWT algorithm")
	ErrInvalidTokenTTL          = errors.New("invalid token TTL format")
	ErrInvalidStorageDriver     = errors.New("STORAGE_DRIVER must be postgres or memory")
	ErrInvalidLockDriver        = errors.New("LOCK_DRIVER must be memory or redis")
	ErrInvalidRatesSource       = errors.New("RATES_SOURCE must be static or redis")
	ErrInvalidCurrencyRates     = errors.New("CURRENCY_RATES must look like USD=83,EUR=90")
	ErrInvalidContinuation      = errors.New("CONTINUATION_DEFAULT must be continued or pending")
	ErrInvalidRetryConfig       = errors.New("TRANSITION_MAX_RETRIES must be at least 1")
	ErrMissingCanonicalCurrency = errors.New("CANONICAL_CURRENCY is required")
)

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnvOrDefault("ENV", "development"),
		ServerPort:  getEnvOrDefault("SERVER_PORT", "8080"),
		ServerHost:  getEnvOrDefault("SERVER_HOST", "localhost"),

		StorageDriver: strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", StorageDriverPostgres)),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		LockDriver:    strings.ToLower(getEnvOrDefault("LOCK_DRIVER", LockDriverMemory)),
		LockTTL:       getEnvOrDefaultDuration("LOCK_TTL", 10*time.Second),

		JWTSecret:    os.Getenv("JWT_SECRET"),
		JWTAlgorithm: getEnvOrDefault("JWT_ALG", "HS256"),

		LogLevel:               getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:              getEnvOrDefault("LOG_FORMAT", "json"),
		LogCorrelationIDHeader: getEnvOrDefault("LOG_CORRELATION_ID_HEADER", "X-Correlation-ID"),
		LogEnableRequestLog:    getEnvOrDefaultBool("LOG_ENABLE_REQUEST_LOG", true),

		CORSEnabled:          getEnvOrDefaultBool("CORS_ENABLED", true),
		CORSAllowCredentials: getEnvOrDefaultBool("CORS_ALLOW_CREDENTIALS", true),
		CORSAllowedOrigins:   parseAllowedOrigins(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "")),

		RateLimitEnabled:  getEnvOrDefaultBool("RATE_LIMIT_ENABLED", false),
		RateLimitRequests: getEnvOrDefaultInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   getEnvOrDefaultDuration("RATE_LIMIT_WINDOW", time.Minute),

		StreamEnabled:   getEnvOrDefaultBool("NOTIFICATION_STREAM_ENABLED", true),
		StreamHeartbeat: getEnvOrDefaultDuration("NOTIFICATION_STREAM_HEARTBEAT", 15*time.Second),

		CanonicalCurrency: strings.ToUpper(strings.TrimSpace(getEnvOrDefault("CANONICAL_CURRENCY", "INR"))),
		RatesSource:       strings.ToLower(getEnvOrDefault("RATES_SOURCE", RatesSourceStatic)),
		RatesRedisKey:     getEnvOrDefault("RATES_REDIS_KEY", "currency:rates"),
		RatesCacheTTL:     getEnvOrDefaultDuration("RATES_CACHE_TTL", 5*time.Minute),

		TransitionMaxRetries: getEnvOrDefaultInt("TRANSITION_MAX_RETRIES", 3),
		TransitionBackoff:    getEnvOrDefaultDuration("TRANSITION_BACKOFF", 25*time.Millisecond),
		RepositoryTimeout:    getEnvOrDefaultDuration("REPOSITORY_TIMEOUT", 5*time.Second),

		ContinuationDefault: strings.ToLower(getEnvOrDefault("CONTINUATION_DEFAULT", "continued")),
		AlertDaysDefault:    getEnvOrDefaultInt("ALERT_DAYS_DEFAULT", 30),
		ScanInterval:        getEnvOrDefaultDuration("SCAN_INTERVAL", 0),
		ScanTimeout:         getEnvOrDefaultDuration("SCAN_TIMEOUT", 10*time.Minute),
	}

	rates, err := ParseRates(getEnvOrDefault("CURRENCY_RATES", "USD=83,EUR=90"))
	if err != nil {
		return nil, err
	}
	cfg.StaticRates = rates

	accessTokenTTL, err := parseTokenTTL(getEnvOrDefault("JWT_ACCESS_TOKEN_TTL", "900"))
	if err != nil {
		return nil, ErrInvalidTokenTTL
	}
	cfg.AccessTokenTTL = accessTokenTTL

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values Load cannot default
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	case StorageDriverMemory:
	default:
		return ErrInvalidStorageDriver
	}

	if c.LockDriver != LockDriverMemory && c.LockDriver != LockDriverRedis {
		return ErrInvalidLockDriver
	}
	if c.RatesSource != RatesSourceStatic && c.RatesSource != RatesSourceRedis {
		return ErrInvalidRatesSource
	}

	if c.JWTAlgorithm != "HS256" {
		return ErrInvalidJWTAlgorithm
	}
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}

	if c.CanonicalCurrency == "" {
		return ErrMissingCanonicalCurrency
	}
	if c.ContinuationDefault != "continued" && c.ContinuationDefault != "pending" {
		return ErrInvalidContinuation
	}
	if c.TransitionMaxRetries < 1 {
		return ErrInvalidRetryConfig
	}
	if c.AlertDaysDefault <= 0 {
		c.AlertDaysDefault = 30
	}
	return nil
}

// Address returns host:port for the HTTP listener
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.ServerHost, c.ServerPort)
}

// ParseRates reads "USD=83,EUR=90.5" into a code→rate map. Codes are upper-cased.
func ParseRates(value string) (map[string]float64, error) {
	rates := make(map[string]float64)
	if strings.TrimSpace(value) == "" {
		return rates, nil
	}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCurrencyRates, part)
		}
		code := strings.ToUpper(strings.TrimSpace(kv[0]))
		rate, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil || code == "" || rate <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCurrencyRates, part)
		}
		rates[code] = rate
	}
	return rates, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		// interpret as seconds if numeric, else parse like Go duration
		if n, err := strconv.Atoi(value); err == nil {
			return time.Duration(n) * time.Second
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return defaultValue
		}
		return d
	}
	return defaultValue
}

func parseTokenTTL(value string) (time.Duration, error) {
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}

func parseAllowedOrigins(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			res = append(res, trimmed)
		}
	}
	return res
}
