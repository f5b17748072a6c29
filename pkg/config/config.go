package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-redis/redis/v8"
	"github.com/platinummonkey/mockapi/pkg/auth"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Service identity reported by GET /
	App AppConfig `yaml:"app"`

	// Data file configuration
	Data DataConfig `yaml:"data"`

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`

	// Rate limiting (disabled when RequestsPerMinute is 0)
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`

	// BasePath prefixes every API route
	BasePath string `yaml:"base_path"`

	// JSONAPIPaths are path prefixes whose errors use the JSON:API envelope.
	// Empty means the catalog and login routes under BasePath.
	JSONAPIPaths []string `yaml:"jsonapi_paths"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// AppConfig describes the service
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
}

// DataConfig locates the resource table and the catalog document
type DataConfig struct {
	CSVFilePath string `yaml:"csv_file_path"`

	// JSONFilePath is a local path or an s3://bucket/key URL
	JSONFilePath string `yaml:"json_file_path"`

	// WatchCatalog reloads a local catalog document when it changes
	WatchCatalog bool `yaml:"watch_catalog"`

	// ReloadSchedule is a cron spec for periodic catalog reloads; empty disables
	ReloadSchedule string `yaml:"reload_schedule"`

	S3 S3Config `yaml:"s3"`
}

// S3Config holds object storage settings for an s3:// catalog
type S3Config struct {
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// AuthConfig holds token and API key settings
type AuthConfig struct {
	SecretKey      string        `yaml:"secret_key"`
	Algorithm      string        `yaml:"algorithm"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
	APIKeys        []string      `yaml:"api_keys"`
	APIKeyHeader   string        `yaml:"api_key_header"`
	TokenCacheSize int           `yaml:"token_cache_size"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`

	// TracingEndpoint is an OTLP/gRPC collector address; empty disables tracing
	TracingEndpoint string `yaml:"tracing_endpoint"`
	TracingInsecure bool   `yaml:"tracing_insecure"`
}

// RateLimitConfig holds per-client rate limiting settings
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`

	// RedisURL shares limits across instances when set
	RedisURL string `yaml:"redis_url"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               "8000",
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       15 * time.Second,
			IdleTimeout:        60 * time.Second,
			ShutdownTimeout:    30 * time.Second,
			HealthPort:         "9090",
			BasePath:           "/api/v1",
			CORSAllowedOrigins: []string{"*"},
		},
		App: AppConfig{
			Name:        "Mock API",
			Version:     "0.1.0",
			Description: "Mock eReserve and resource API",
		},
		Data: DataConfig{
			CSVFilePath:  "data/resources.csv",
			JSONFilePath: "data/ereserve.json",
			S3: S3Config{
				Region:       "us-east-1",
				UsePathStyle: true,
			},
		},
		Auth: AuthConfig{
			Algorithm:      string(auth.DefaultAlgorithm),
			AccessTokenTTL: 60 * time.Minute,
			APIKeyHeader:   "X-API-Key",
			TokenCacheSize: 1024,
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			LogFormat:      "json",
			MetricsEnabled: true,
		},
	}
}

// Load reads the optional YAML file at path, applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides cfg with every MOCKAPI_* variable that is set
func applyEnv(cfg *Config) {
	s := &cfg.Server
	s.Host = getEnv("MOCKAPI_HOST", s.Host)
	s.Port = getEnv("MOCKAPI_PORT", s.Port)
	s.HealthPort = getEnv("MOCKAPI_HEALTH_PORT", s.HealthPort)
	s.ReadTimeout = getEnvDuration("MOCKAPI_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvDuration("MOCKAPI_WRITE_TIMEOUT", s.WriteTimeout)
	s.IdleTimeout = getEnvDuration("MOCKAPI_IDLE_TIMEOUT", s.IdleTimeout)
	s.ShutdownTimeout = getEnvDuration("MOCKAPI_SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.BasePath = getEnv("MOCKAPI_BASE_PATH", s.BasePath)
	s.JSONAPIPaths = getEnvList("MOCKAPI_JSONAPI_PATHS", s.JSONAPIPaths)
	s.CORSAllowedOrigins = getEnvList("MOCKAPI_CORS_ALLOWED_ORIGINS", s.CORSAllowedOrigins)

	a := &cfg.App
	a.Name = getEnv("MOCKAPI_APP_NAME", a.Name)
	a.Version = getEnv("MOCKAPI_APP_VERSION", a.Version)
	a.Description = getEnv("MOCKAPI_APP_DESCRIPTION", a.Description)

	d := &cfg.Data
	d.CSVFilePath = getEnv("MOCKAPI_CSV_FILE_PATH", d.CSVFilePath)
	d.JSONFilePath = getEnv("MOCKAPI_JSON_FILE_PATH", d.JSONFilePath)
	d.WatchCatalog = getEnvBool("MOCKAPI_WATCH_CATALOG", d.WatchCatalog)
	d.ReloadSchedule = getEnv("MOCKAPI_CATALOG_RELOAD_SCHEDULE", d.ReloadSchedule)
	d.S3.Region = getEnv("MOCKAPI_S3_REGION", d.S3.Region)
	d.S3.Endpoint = getEnv("MOCKAPI_S3_ENDPOINT", d.S3.Endpoint)
	d.S3.AccessKey = getEnv("MOCKAPI_S3_ACCESS_KEY", d.S3.AccessKey)
	d.S3.SecretKey = getEnv("MOCKAPI_S3_SECRET_KEY", d.S3.SecretKey)
	d.S3.UsePathStyle = getEnvBool("MOCKAPI_S3_USE_PATH_STYLE", d.S3.UsePathStyle)

	au := &cfg.Auth
	au.SecretKey = getEnv("MOCKAPI_SECRET_KEY", au.SecretKey)
	au.Algorithm = getEnv("MOCKAPI_JWT_ALGORITHM", au.Algorithm)
	au.AccessTokenTTL = getEnvDuration("MOCKAPI_ACCESS_TOKEN_TTL", au.AccessTokenTTL)
	au.APIKeys = getEnvList("MOCKAPI_API_KEYS", au.APIKeys)
	au.APIKeyHeader = getEnv("MOCKAPI_API_KEY_HEADER", au.APIKeyHeader)
	au.TokenCacheSize = getEnvInt("MOCKAPI_TOKEN_CACHE_SIZE", au.TokenCacheSize)

	o := &cfg.Observability
	o.LogLevel = getEnv("MOCKAPI_LOG_LEVEL", o.LogLevel)
	o.LogFormat = getEnv("MOCKAPI_LOG_FORMAT", o.LogFormat)
	o.MetricsEnabled = getEnvBool("MOCKAPI_METRICS_ENABLED", o.MetricsEnabled)
	o.TracingEndpoint = getEnv("MOCKAPI_OTEL_ENDPOINT", o.TracingEndpoint)
	o.TracingInsecure = getEnvBool("MOCKAPI_OTEL_INSECURE", o.TracingInsecure)

	r := &cfg.RateLimit
	r.RequestsPerMinute = getEnvInt("MOCKAPI_RATE_LIMIT_RPM", r.RequestsPerMinute)
	r.Burst = getEnvInt("MOCKAPI_RATE_LIMIT_BURST", r.Burst)
	r.RedisURL = getEnv("MOCKAPI_RATE_LIMIT_REDIS_URL", r.RedisURL)
}

// SigningAlgorithm returns the configured token algorithm
func (c *Config) SigningAlgorithm() (jose.SignatureAlgorithm, error) {
	return auth.ParseAlgorithm(c.Auth.Algorithm)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("base path must start with '/': %q", c.Server.BasePath)
	}

	// Validate data config
	if c.Data.CSVFilePath == "" {
		return fmt.Errorf("CSV file path is required")
	}
	if c.Data.JSONFilePath == "" {
		return fmt.Errorf("JSON file path is required")
	}
	if c.Data.WatchCatalog && strings.HasPrefix(c.Data.JSONFilePath, "s3://") {
		return fmt.Errorf("catalog watching requires a local JSON file")
	}
	if c.Data.ReloadSchedule != "" {
		if _, err := cron.ParseStandard(c.Data.ReloadSchedule); err != nil {
			return fmt.Errorf("invalid catalog reload schedule: %w", err)
		}
	}

	// Validate auth config
	alg, err := c.SigningAlgorithm()
	if err != nil {
		return err
	}
	if c.Auth.SecretKey == "" {
		return errors.New("secret key is required (MOCKAPI_SECRET_KEY)")
	}
	if n := auth.MinKeyLength(alg); len(c.Auth.SecretKey) < n {
		return fmt.Errorf("secret key must be at least %d bytes for %s", n, alg)
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("access token TTL must be positive")
	}
	if len(c.Auth.APIKeys) == 0 {
		return errors.New("at least one API key is required (MOCKAPI_API_KEYS)")
	}
	if c.Auth.APIKeyHeader == "" {
		return fmt.Errorf("API key header is required")
	}
	if c.Auth.TokenCacheSize < 0 {
		return fmt.Errorf("token cache size must not be negative")
	}

	// Validate observability config
	if _, err := logrus.ParseLevel(c.Observability.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	switch c.Observability.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format %q (want json or text)", c.Observability.LogFormat)
	}

	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit values must not be negative")
	}
	if c.RateLimit.RedisURL != "" {
		if c.RateLimit.RequestsPerMinute == 0 {
			return fmt.Errorf("rate limit Redis URL needs a requests per minute limit")
		}
		if _, err := redis.ParseURL(c.RateLimit.RedisURL); err != nil {
			return fmt.Errorf("invalid rate limit Redis URL: %w", err)
		}
	}

	return nil
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

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma-separated environment variable or a default.
// Blank entries are dropped.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
