package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the YAML file read when CONFIG_FILE is unset.
const DefaultConfigFile = "yardstick.yaml"

// DefaultJWTSecret is the development signing secret. It is refused in production.
const DefaultJWTSecret = "default_secret"

// Store drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	App           AppConfig           `yaml:"app"`
	Store         StoreConfig         `yaml:"store"`
	Database      DatabaseConfig      `yaml:"database"`
	Auth          AuthConfig          `yaml:"auth"`
	Plan          PlanConfig          `yaml:"plan"`
	Observability ObservabilityConfig `yaml:"observability"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`

	// TrustProxy keys clients by X-Forwarded-For. Enable only behind a proxy
	// that overwrites the header.
	TrustProxy bool `yaml:"trust_proxy"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	StaticDir    string        `yaml:"static_dir"`
	CORSOrigin   string        `yaml:"cors_origin"`
}

// AppConfig holds deployment settings
type AppConfig struct {
	Environment string `yaml:"environment"`
}

// IsDevelopment reports whether error details may be exposed to clients.
func (a AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// StoreConfig selects the repository backend
type StoreConfig struct {
	Driver   string `yaml:"driver"`
	SeedFile string `yaml:"seed_file"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"name"`
	SSLMode      string `yaml:"sslmode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// AuthConfig holds session token and password settings
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenLifetime time.Duration `yaml:"token_lifetime"`
	BcryptCost    int           `yaml:"bcrypt_cost"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
}

// PlanConfig holds subscription limits
type PlanConfig struct {
	FreeNoteLimit int `yaml:"free_note_limit"`
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	OTELEnabled    bool   `yaml:"otel_enabled"`
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
			CORSOrigin:   "*",
		},
		Store: StoreConfig{
			Driver: DriverMemory,
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         "5432",
			User:         "yardstick",
			Database:     "yardstick",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Auth: AuthConfig{
			JWTSecret:     DefaultJWTSecret,
			TokenLifetime: 24 * time.Hour,
			BcryptCost:    10,
			CacheTTL:      5 * time.Minute,
		},
		Plan: PlanConfig{
			FreeNoteLimit: 3,
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			LogFormat:      "json",
			OTELEnabled:    false,
			ServiceName:    "yardstick",
			ServiceVersion: "0.1.0",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
		},
	}
}

// Load loads configuration using the hierarchy defaults < YAML < ENV.
// The YAML file is CONFIG_FILE, or yardstick.yaml if present.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_FILE")
	required := path != ""
	if path == "" {
		path = DefaultConfigFile
	}
	return LoadFrom(path, required)
}

// LoadFrom loads configuration from the YAML file at path. A missing file is
// an error only when required is set.
func LoadFrom(path string, required bool) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, path, required); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadYAML(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// loadEnv overlays environment variables. Only non-empty values override.
func loadEnv(c *Config) {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = parseDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = parseDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = parseDuration("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.StaticDir = getEnv("SERVER_STATIC_DIR", c.Server.StaticDir)
	c.Server.CORSOrigin = getEnv("SERVER_CORS_ORIGIN", c.Server.CORSOrigin)

	c.App.Environment = getEnv("APP_ENV", c.App.Environment)

	c.Store.Driver = getEnv("STORE_DRIVER", c.Store.Driver)
	c.Store.SeedFile = getEnv("STORE_SEED_FILE", c.Store.SeedFile)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Database = getEnv("DB_NAME", c.Database.Database)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.MaxOpenConns = parseInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = parseInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.TokenLifetime = parseDuration("JWT_LIFETIME", c.Auth.TokenLifetime)
	c.Auth.BcryptCost = parseInt("BCRYPT_COST", c.Auth.BcryptCost)
	c.Auth.CacheTTL = parseDuration("AUTH_CACHE_TTL", c.Auth.CacheTTL)

	c.Plan.FreeNoteLimit = parseInt("PLAN_FREE_NOTE_LIMIT", c.Plan.FreeNoteLimit)

	c.Observability.LogLevel = getEnv("LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.LogFormat = getEnv("LOG_FORMAT", c.Observability.LogFormat)
	c.Observability.OTELEnabled = parseBool("OTEL_ENABLED", c.Observability.OTELEnabled)
	c.Observability.ServiceName = getEnv("OTEL_SERVICE_NAME", c.Observability.ServiceName)
	c.Observability.ServiceVersion = getEnv("OTEL_SERVICE_VERSION", c.Observability.ServiceVersion)

	c.RateLimit.RequestsPerSecond = parseFloat("RATELIMIT_RPS", c.RateLimit.RequestsPerSecond)
	c.RateLimit.Burst = parseInt("RATELIMIT_BURST", c.RateLimit.Burst)
	c.RateLimit.TrustProxy = parseBool("RATELIMIT_TRUST_PROXY", c.RateLimit.TrustProxy)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.App.Environment == "production" && c.Auth.JWTSecret == DefaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.Auth.TokenLifetime <= 0 {
		return fmt.Errorf("JWT_LIFETIME must be positive")
	}
	if c.Plan.FreeNoteLimit < 0 {
		return fmt.Errorf("PLAN_FREE_NOTE_LIMIT must not be negative")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func parseFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
