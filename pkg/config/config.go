package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iscander13/back/pkg/auth"
	"github.com/iscander13/back/pkg/observability"
	"github.com/iscander13/back/pkg/store"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database store.Config

	// Redis configuration (optional, backs login rate limiting)
	Redis RedisConfig

	// Auth configuration
	Auth AuthConfig

	// Bootstrap accounts created at startup when missing
	Bootstrap BootstrapConfig

	// Crop catalog
	CropCatalogPath string

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// CORS allowed origins
	AllowedOrigins []string

	// Request body size cap in bytes
	MaxBodyBytes int64
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig holds token signing and resolution settings
type AuthConfig struct {
	// Secret is the HS256 signing secret. Must be at least
	// auth.MinSecretLength bytes unless AllowEphemeralKey is set.
	Secret string

	// AllowEphemeralKey permits generating a random per-process signing
	// key when the secret is absent or too short. Development only;
	// issued tokens do not survive a restart.
	AllowEphemeralKey bool

	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration

	// TrustAdminClaims enables the trusted-issuer short-circuit in the
	// resolver. Defaults to off; see auth.Resolver.
	TrustAdminClaims bool
}

// BootstrapConfig holds the seed administrator credentials
type BootstrapConfig struct {
	AdminEmail         string
	AdminPassword      string
	SuperAdminEmail    string
	SuperAdminPassword string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("FARM_HOST", "0.0.0.0"),
			Port:            getEnv("FARM_PORT", "8080"),
			ReadTimeout:     getEnvDuration("FARM_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("FARM_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("FARM_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("FARM_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  splitAndTrim(getEnv("FARM_CORS_ORIGINS", "*")),
			MaxBodyBytes:    getEnvInt64("FARM_MAX_BODY_BYTES", 1<<20),
		},
		Database: store.Config{
			URL:      getEnv("FARM_POSTGRES_URL", ""),
			MaxConns: getEnvInt("FARM_POSTGRES_MAX_CONNS", 25),
			MinConns: getEnvInt("FARM_POSTGRES_MIN_CONNS", 5),
			Timeout:  getEnvDuration("FARM_POSTGRES_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("FARM_REDIS_ADDR", ""),
			Password: getEnv("FARM_REDIS_PASSWORD", ""),
			DB:       getEnvInt("FARM_REDIS_DB", 0),
		},
		Auth: AuthConfig{
			Secret:            getEnv("FARM_JWT_SECRET", ""),
			AllowEphemeralKey: getEnvBool("FARM_JWT_ALLOW_EPHEMERAL", false),
			TokenTTL:          getEnvDuration("FARM_JWT_TTL", auth.DefaultTokenTTL),
			TrustAdminClaims:  getEnvBool("FARM_TRUST_ADMIN_CLAIMS", false),
		},
		Bootstrap: BootstrapConfig{
			AdminEmail:         getEnv("FARM_BOOTSTRAP_ADMIN_EMAIL", ""),
			AdminPassword:      getEnv("FARM_BOOTSTRAP_ADMIN_PASSWORD", ""),
			SuperAdminEmail:    getEnv("FARM_BOOTSTRAP_SUPERADMIN_EMAIL", ""),
			SuperAdminPassword: getEnv("FARM_BOOTSTRAP_SUPERADMIN_PASSWORD", ""),
		},
		CropCatalogPath: getEnv("FARM_CROP_CATALOG", ""),
		Observability: ObservabilityConfig{
			LogLevel:       observability.ParseLogLevel(getEnv("FARM_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("FARM_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}
	if !c.Auth.AllowEphemeralKey && len(c.Auth.Secret) < auth.MinSecretLength {
		return fmt.Errorf("JWT secret must be at least %d bytes (or set FARM_JWT_ALLOW_EPHEMERAL for development)", auth.MinSecretLength)
	}
	if (c.Bootstrap.AdminEmail == "") != (c.Bootstrap.AdminPassword == "") {
		return fmt.Errorf("bootstrap admin email and password must be set together")
	}
	if (c.Bootstrap.SuperAdminEmail == "") != (c.Bootstrap.SuperAdminPassword == "") {
		return fmt.Errorf("bootstrap super admin email and password must be set together")
	}
	return nil
}

// SeedAccounts returns the bootstrap accounts to ensure at startup.
func (c *Config) SeedAccounts() []store.SeedAccount {
	var accounts []store.SeedAccount
	if c.Bootstrap.AdminEmail != "" {
		accounts = append(accounts, store.SeedAccount{
			Email:    c.Bootstrap.AdminEmail,
			Password: c.Bootstrap.AdminPassword,
			Role:     auth.RoleAdmin,
		})
	}
	if c.Bootstrap.SuperAdminEmail != "" {
		accounts = append(accounts, store.SeedAccount{
			Email:    c.Bootstrap.SuperAdminEmail,
			Password: c.Bootstrap.SuperAdminPassword,
			Role:     auth.RoleSuperAdmin,
		})
	}
	return accounts
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
