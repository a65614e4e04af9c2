package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string
	// AdminToken guards /admin routes. Empty disables them.
	AdminToken string
	// TrustedProxies is a comma separated CIDR list allowed to forward
	// client IPs and user ids.
	TrustedProxies string

	Redis     RedisConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
	Quota     QuotaConfig
	RateLimit RateLimitConfig
	Tracing   TracingConfig
}

// RedisConfig configures the shared counter store connection.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig configures the durable usage ledger.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// KafkaConfig configures the audit event stream. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers    string
	AuditTopic string
}

// QuotaConfig holds the quota enforcer settings.
type QuotaConfig struct {
	PlansFile       string
	AssignmentsFile string
	// StorePolicy is "fail_closed" or "fail_open"; empty means the built-in default.
	StorePolicy   string
	StoreTimeout  time.Duration
	ResetInterval time.Duration
	// LedgerBackend selects "postgres", "redis" or "memory". Empty picks
	// postgres when DATABASE_URL is set, then redis, then memory.
	LedgerBackend string
}

// RateLimitConfig holds the default sliding window applied by middleware.
type RateLimitConfig struct {
	DefaultLimit  int
	DefaultWindow time.Duration
	// LocalSweepInterval is how often idle fallback windows are dropped.
	LocalSweepInterval time.Duration
	// AllowlistCleanupInterval is how often expired allowlist entries are purged.
	AllowlistCleanupInterval time.Duration
}

// TracingConfig selects the span exporter. Empty Exporter disables tracing.
type TracingConfig struct {
	Exporter    string
	Endpoint    string
	Insecure    bool
	SampleRate  float64
	ServiceName string
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Unparseable numeric or duration values fall back to the defaults.
func FromEnv() Server {
	return Server{
		Addr:           envString("SERVER_ADDR", ":8080"),
		Environment:    envString("ENVIRONMENT", "development"),
		LogLevel:       envString("LOG_LEVEL", "info"),
		AdminToken:     os.Getenv("ADMIN_TOKEN"),
		TrustedProxies: os.Getenv("TRUSTED_PROXIES"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 50),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 5),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 200*time.Millisecond),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 200*time.Millisecond),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:    os.Getenv("KAFKA_BROKERS"),
			AuditTopic: envString("AUDIT_TOPIC", "quota-audit"),
		},
		Quota: QuotaConfig{
			PlansFile:       os.Getenv("PLANS_FILE"),
			AssignmentsFile: os.Getenv("PLAN_ASSIGNMENTS_FILE"),
			StorePolicy:     os.Getenv("QUOTA_STORE_POLICY"),
			StoreTimeout:    envDuration("STORE_TIMEOUT", 150*time.Millisecond),
			ResetInterval:   envDuration("DAILY_RESET_INTERVAL", time.Hour),
			LedgerBackend:   os.Getenv("LEDGER_BACKEND"),
		},
		RateLimit: RateLimitConfig{
			DefaultLimit:             envInt("RATE_LIMIT_DEFAULT_LIMIT", 60),
			DefaultWindow:            envDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
			LocalSweepInterval:       envDuration("RATE_LIMIT_SWEEP_INTERVAL", 30*time.Second),
			AllowlistCleanupInterval: envDuration("ALLOWLIST_CLEANUP_INTERVAL", 15*time.Minute),
		},
		Tracing: TracingConfig{
			Exporter:    os.Getenv("OTEL_TRACES_EXPORTER"),
			Endpoint:    envString("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRate:  envFloat("OTEL_TRACES_SAMPLE_RATE", 1),
			ServiceName: envString("OTEL_SERVICE_NAME", "quotagate"),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
