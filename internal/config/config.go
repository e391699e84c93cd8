package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the API and the storefront client.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Kafka      KafkaConfig
	Stripe     StripeConfig
	Storefront StorefrontConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN             string
	ApplicationName string
	MaxConns        int32
	MinConns        int32
	RunMigrations   bool
	MigrationsDir   string
	ConnMaxIdleSec  int32
	ConnMaxLifeSec  int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	PoolSize       int
	DialTimeoutSec int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level    string
	Encoding string
	Output   string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// KafkaConfig configures order event publishing. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers     []string
	OrderTopic  string
	InboxBuffer int
}

// StripeConfig configures online checkout. Empty SecretKey disables it.
type StripeConfig struct {
	SecretKey         string
	Currency          string
	SuccessURL        string
	CancelURL         string
	PendingTTLMinutes int
}

// StorefrontConfig configures the client-side session and cart core.
type StorefrontConfig struct {
	APIBaseURL           string
	TokenStore           string
	TokenFile            string
	TokenKey             string
	SyncTimeoutSeconds   int
	SyncFailureThreshold int
	DefaultAddress       string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	tokenStore := strings.ToLower(getEnv("STOREFRONT_TOKEN_STORE", "file"))
	if tokenStore != "file" && tokenStore != "redis" {
		return nil, fmt.Errorf("invalid STOREFRONT_TOKEN_STORE %q: want file or redis", tokenStore)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "grocery-storefront-api"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "5000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("POSTGRES_DSN"),
			ApplicationName: getEnv("POSTGRES_APPLICATION_NAME", "grocery-storefront-api"),
			MaxConns:        int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:        int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:   getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:   getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:           getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:       os.Getenv("REDIS_PASSWORD"),
			DB:             redisDB,
			PoolSize:       getEnvAsInt("REDIS_POOL_SIZE", 0),
			DialTimeoutSec: getEnvAsInt("REDIS_DIAL_TIMEOUT_SECONDS", 5),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
			Output:   getEnv("LOG_OUTPUT", "stdout"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 7*24*60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Kafka: KafkaConfig{
			Brokers:     splitCSV(os.Getenv("KAFKA_BROKERS")),
			OrderTopic:  getEnv("KAFKA_ORDER_TOPIC", "storefront.orders"),
			InboxBuffer: getEnvAsInt("KAFKA_INBOX_BUFFER", 256),
		},
		Stripe: StripeConfig{
			SecretKey:         os.Getenv("STRIPE_SECRET_KEY"),
			Currency:          getEnv("STRIPE_CURRENCY", "usd"),
			SuccessURL:        getEnv("STRIPE_SUCCESS_URL", "http://localhost:5173/payment-success?session_id={CHECKOUT_SESSION_ID}"),
			CancelURL:         getEnv("STRIPE_CANCEL_URL", "http://localhost:5173/payment-cancel"),
			PendingTTLMinutes: getEnvAsInt("STRIPE_PENDING_TTL_MINUTES", 24*60),
		},
		Storefront: StorefrontConfig{
			APIBaseURL:           strings.TrimRight(getEnv("STOREFRONT_API_URL", "http://127.0.0.1:5000/api"), "/"),
			TokenStore:           tokenStore,
			TokenFile:            getEnv("STOREFRONT_TOKEN_FILE", defaultTokenFile()),
			TokenKey:             getEnv("STOREFRONT_TOKEN_KEY", "token"),
			SyncTimeoutSeconds:   getEnvAsInt("STOREFRONT_SYNC_TIMEOUT_SECONDS", 10),
			SyncFailureThreshold: getEnvAsInt("STOREFRONT_SYNC_FAILURE_THRESHOLD", 3),
			DefaultAddress:       os.Getenv("STOREFRONT_DEFAULT_ADDRESS"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the lifetime of issued bearer tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// Enabled reports whether order events should be published.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// PendingTTL is how long an unpaid checkout draft is kept.
func (s StripeConfig) PendingTTL() time.Duration {
	return time.Duration(s.PendingTTLMinutes) * time.Minute
}

// SyncTimeout bounds a single cart sync call.
func (s StorefrontConfig) SyncTimeout() time.Duration {
	if s.SyncTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.SyncTimeoutSeconds) * time.Second
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".storefront-token.json"
	}
	return dir + string(os.PathSeparator) + "grocery-storefront" + string(os.PathSeparator) + "session.json"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
