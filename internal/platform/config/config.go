package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config captures process-level configuration. FromEnv builds it from
// environment variables so main stays lean.
type Config struct {
	Addr        string
	HTTP        HTTPConfig
	DatabaseURL string
	Redis       RedisConfig

	// Ledger holds audit ledger configuration, including the commitment salt.
	// The salt is injected here and threaded into the ledger constructor; it
	// must never live in a package-level variable, or tests could not supply
	// deterministic salts.
	Ledger LedgerConfig

	// Classifier thresholds are policy constants with no documented
	// derivation, so they stay configurable rather than hard-coded.
	Classifier ClassifierConfig

	AdminJWTSigningKey string
	TraceExporter      string
	LogLevel           string
}

// HTTPConfig bounds how long the server waits on slow clients. Uploads are
// capped at 16MB, so a healthy client finishes a request well inside the
// defaults.
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// RedisConfig configures the optional tenant lookup cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LookupTTL    time.Duration
}

// LedgerConfig configures the audit ledger.
type LedgerConfig struct {
	// Salt is the server-held secret mixed into every commitment hash.
	Salt string
	// FallbackPath is the local append-only file that receives events when
	// the primary store is unreachable.
	FallbackPath string
}

// ClassifierConfig holds the bank origin classifier thresholds on the 0-100
// confidence scale.
type ClassifierConfig struct {
	// NameThreshold is the minimum confidence at which a non-generic parser
	// may populate the issuer name.
	NameThreshold int
	// ReliableThreshold is the minimum confidence below which the origin is
	// flagged unreliable.
	ReliableThreshold int
}

// FromEnv builds a Config from environment variables.
//
// VERIDOC_LEDGER_SALT has no default: running without a salt would make every
// commitment hash forgeable by anyone who can read the code.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr: envOr("VERIDOC_ADDR", ":8080"),
		HTTP: HTTPConfig{
			ReadTimeout:  envDurationOr("VERIDOC_HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: envDurationOr("VERIDOC_HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  envDurationOr("VERIDOC_HTTP_IDLE_TIMEOUT", 2*time.Minute),
		},
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			LookupTTL:    envDurationOr("REDIS_LOOKUP_TTL", 5*time.Minute),
		},
		Ledger: LedgerConfig{
			Salt:         os.Getenv("VERIDOC_LEDGER_SALT"),
			FallbackPath: envOr("VERIDOC_LEDGER_FALLBACK", "/var/lib/veridoc/ledger-fallback.jsonl"),
		},
		Classifier: ClassifierConfig{
			NameThreshold:     envIntOr("VERIDOC_CLASSIFIER_NAME_THRESHOLD", 40),
			ReliableThreshold: envIntOr("VERIDOC_CLASSIFIER_RELIABLE_THRESHOLD", 80),
		},
		AdminJWTSigningKey: os.Getenv("VERIDOC_ADMIN_JWT_KEY"),
		TraceExporter:      envOr("VERIDOC_TRACE_EXPORTER", "noop"),
		LogLevel:           envOr("VERIDOC_LOG_LEVEL", "info"),
	}

	if cfg.Ledger.Salt == "" {
		return Config{}, errors.New("VERIDOC_LEDGER_SALT must be set")
	}
	if cfg.AdminJWTSigningKey == "" {
		return Config{}, errors.New("VERIDOC_ADMIN_JWT_KEY must be set")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
