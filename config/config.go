package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// HTTP front
	Server ServerConfig `mapstructure:"server"`

	// Remote REST backend
	Backend BackendConfig `mapstructure:"backend"`

	// Link collection behaviour
	Links LinksConfig `mapstructure:"links"`

	// Click-through tracking
	Clicks ClicksConfig `mapstructure:"clicks"`

	// PostgreSQL
	Postgres PostgresConfig `mapstructure:"postgres"`

	// Redis
	Redis RedisConfig `mapstructure:"redis"`

	// NATS
	NATS NATSConfig `mapstructure:"nats"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`

	// Rate limiting
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	PublicBaseURL  string        `mapstructure:"public_base_url"`
	SessionSecret  string        `mapstructure:"session_secret"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	AllowedOrigins string        `mapstructure:"allowed_origins"`
	SecureCookies  bool          `mapstructure:"secure_cookies"`
}

type BackendConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	StorageURL string        `mapstructure:"storage_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type LinksConfig struct {
	ReconcileConcurrency int           `mapstructure:"reconcile_concurrency"`
	WorkspaceIdleTTL     time.Duration `mapstructure:"workspace_idle_ttl"`
	MaxUploadBytes       int64         `mapstructure:"max_upload_bytes"`
}

type ClicksConfig struct {
	DedupWindow   time.Duration `mapstructure:"dedup_window"`
	DedupCapacity uint          `mapstructure:"dedup_capacity"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	Database          string `mapstructure:"database"`
	Port              int    `mapstructure:"port"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   string `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   string `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod string `mapstructure:"health_check_period"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	MonitorPort int    `mapstructure:"monitor_port"`
}

type PrometheusConfig struct {
	Port int `mapstructure:"port"`
}

type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

const defaultSessionSecret = "change-me-powerlink-session-secret"

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Search for config/config.yaml (plus root for overrides).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Allow environment variables to override YAML entries.
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Preserve legacy env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(os.Getenv("APP_ENV") == "production"); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the values that have no safe fallback.
func (c *Config) Validate(production bool) error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url is required")
	}
	if c.Server.SessionSecret == "" {
		return errors.New("server.session_secret is required")
	}
	if production {
		if c.Server.SessionSecret == defaultSessionSecret {
			return errors.New("server.session_secret must be changed in production")
		}
		if len(c.Server.SessionSecret) < 32 {
			return errors.New("server.session_secret must be at least 32 characters in production")
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.public_base_url", "http://localhost:8080")
	v.SetDefault("server.session_secret", defaultSessionSecret)
	v.SetDefault("server.session_ttl", 7*24*time.Hour)
	v.SetDefault("server.allowed_origins", "*")

	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.storage_url", "http://localhost:8000/storage/")
	v.SetDefault("backend.timeout", 10*time.Second)

	v.SetDefault("links.reconcile_concurrency", 4)
	v.SetDefault("links.workspace_idle_ttl", 30*time.Minute)
	v.SetDefault("links.max_upload_bytes", 2*1024*1024)

	v.SetDefault("clicks.dedup_window", 10*time.Second)
	v.SetDefault("clicks.dedup_capacity", 100000)

	v.SetDefault("prometheus.port", 9090)

	v.SetDefault("ratelimit.max_requests", 100)
	v.SetDefault("ratelimit.window", time.Minute)
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.public_base_url", "PUBLIC_BASE_URL")
	v.BindEnv("server.session_secret", "SESSION_SECRET")
	v.BindEnv("server.allowed_origins", "ALLOWED_ORIGINS")

	// Backend
	v.BindEnv("backend.base_url", "API_URL")
	v.BindEnv("backend.storage_url", "STORAGE_URL")

	// PostgreSQL
	v.BindEnv("postgres.host", "PG_HOST")
	v.BindEnv("postgres.user", "PG_USER")
	v.BindEnv("postgres.password", "PG_PASSWORD")
	v.BindEnv("postgres.database", "PG_DB")
	v.BindEnv("postgres.port", "PG_PORT")
	v.BindEnv("postgres.sslmode", "PG_SSLMODE")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// NATS
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")
	v.BindEnv("nats.monitor_port", "NATS_MONITOR_PORT")

	// Prometheus
	v.BindEnv("prometheus.port", "PROM_PORT")
}
