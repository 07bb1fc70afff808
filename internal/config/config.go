package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported values for DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverSQLX     = "sqlx"
	DriverMemory   = "memory"
)

// Config holds runtime configuration for the API server.
type Config struct {
	AppEnv      string
	Port        string
	FrontendURL string

	Database DatabaseConfig

	RateLimitMax    int
	RateLimitWindow time.Duration
	BodyLimit       int

	RabbitMQURL string
	RedisAddr   string
	CacheTTL    time.Duration

	LogLevel     string
	LogFormat    string
	SeedDemoData bool
}

// DatabaseConfig selects and locates the product store.
type DatabaseConfig struct {
	Driver   string
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

// Load reads the server configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("PORT", "3000")
	v.SetDefault("FRONTEND_URL", "http://localhost:8081")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_DSN", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "catalog")
	v.SetDefault("RATE_LIMIT_MAX", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", 15*time.Minute)
	v.SetDefault("BODY_LIMIT", 1<<20)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("CACHE_TTL", 5*time.Minute)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("SEED_DEMO_DATA", false)
	v.AutomaticEnv()

	cfg := &Config{
		AppEnv:      strings.ToLower(v.GetString("APP_ENV")),
		Port:        strings.TrimPrefix(v.GetString("PORT"), ":"),
		FrontendURL: v.GetString("FRONTEND_URL"),
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:      v.GetString("DB_DSN"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
		},
		RateLimitMax:    v.GetInt("RATE_LIMIT_MAX"),
		RateLimitWindow: v.GetDuration("RATE_LIMIT_WINDOW"),
		BodyLimit:       v.GetInt("BODY_LIMIT"),
		RabbitMQURL:     v.GetString("RABBITMQ_URL"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		CacheTTL:        v.GetDuration("CACHE_TTL"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		SeedDemoData:    v.GetBool("SEED_DEMO_DATA"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite, DriverSQLX, DriverMemory:
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("config: RATE_LIMIT_MAX must be positive, got %d", c.RateLimitMax)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("config: RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
	}
	return nil
}

// IsDevelopment reports whether internal error details may be returned to callers.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// ConnString returns the DSN for the configured driver.
func (d DatabaseConfig) ConnString() string {
	if d.DSN != "" {
		return d.DSN
	}
	switch d.Driver {
	case DriverPostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(d.User, d.Password),
			Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
			Path:     d.Name,
			RawQuery: "sslmode=disable",
		}
		return u.String()
	case DriverSQLite, DriverSQLX:
		return d.Name + ".db"
	default:
		return ""
	}
}

// ClientConfig configures the API client used by the catalog CLI.
type ClientConfig struct {
	APIURL  string
	Timeout time.Duration
}

// LoadClient reads the client configuration from the environment.
func LoadClient() ClientConfig {
	v := viper.New()
	v.SetDefault("CATALOG_API_URL", "http://localhost:3000/api")
	v.SetDefault("CATALOG_TIMEOUT", 10*time.Second)
	v.AutomaticEnv()
	return ClientConfig{
		APIURL:  strings.TrimRight(v.GetString("CATALOG_API_URL"), "/"),
		Timeout: v.GetDuration("CATALOG_TIMEOUT"),
	}
}
