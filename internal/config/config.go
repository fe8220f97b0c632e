package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/auth-service/internal/domain"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
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
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Development bool
}

// AuthConfig defines credential and token parameters.
type AuthConfig struct {
	AccessSecret    string
	RefreshSecret   string
	Algorithm       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int
	HashConcurrency int
	UserCacheTTL    time.Duration
}

const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultAlgorithm       = "HS256"
)

// Load reads configuration from environment variables, applying defaults where possible.
// A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	appEnv := getEnv("APP_ENV", "development")

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	accessTTL, err := getEnvAsMinutes("ACCESS_TOKEN_EXPIRE_MINUTES", DefaultAccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := getEnvAsMinutes("REFRESH_TOKEN_EXPIRE_MINUTES", DefaultRefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "auth-service"),
			Env:                   appEnv,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: appEnv == "development",
		},
		Auth: AuthConfig{
			AccessSecret:    os.Getenv("JWT_SECRET_KEY"),
			RefreshSecret:   os.Getenv("JWT_REFRESH_SECRET_KEY"),
			Algorithm:       getEnv("JWT_ALGORITHM", DefaultAlgorithm),
			AccessTokenTTL:  accessTTL,
			RefreshTokenTTL: refreshTTL,
			BcryptCost:      getEnvAsInt("AUTH_BCRYPT_COST", 12),
			HashConcurrency: getEnvAsInt("AUTH_HASH_CONCURRENCY", runtime.NumCPU()),
			UserCacheTTL:    time.Duration(getEnvAsInt("AUTH_USER_CACHE_TTL_SECONDS", 60)) * time.Second,
		},
	}

	return cfg, nil
}

// Validate rejects configurations the service cannot safely run with.
func (c *Config) Validate() error {
	return c.Auth.Validate()
}

// Validate checks signing secrets, algorithm, TTLs and hashing parameters.
func (a AuthConfig) Validate() error {
	if strings.TrimSpace(a.AccessSecret) == "" {
		return fmt.Errorf("%w: JWT_SECRET_KEY is not set", domain.ErrConfiguration)
	}
	if strings.TrimSpace(a.RefreshSecret) == "" {
		return fmt.Errorf("%w: JWT_REFRESH_SECRET_KEY is not set", domain.ErrConfiguration)
	}
	if a.AccessSecret == a.RefreshSecret {
		return fmt.Errorf("%w: access and refresh secrets must differ", domain.ErrConfiguration)
	}
	switch a.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("%w: unsupported JWT_ALGORITHM %q", domain.ErrConfiguration, a.Algorithm)
	}
	if a.AccessTokenTTL <= 0 || a.RefreshTokenTTL <= 0 {
		return fmt.Errorf("%w: token TTLs must be positive", domain.ErrConfiguration)
	}
	if a.BcryptCost < bcrypt.MinCost || a.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("%w: AUTH_BCRYPT_COST must be within [%d, %d]", domain.ErrConfiguration, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
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

// getEnvAsMinutes returns fallback only when key is unset; anything other
// than a positive integer is an error.
func getEnvAsMinutes(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	minutes, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s: %v", domain.ErrConfiguration, key, err)
	}
	if minutes <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %d", domain.ErrConfiguration, key, minutes)
	}
	return time.Duration(minutes) * time.Minute, nil
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
