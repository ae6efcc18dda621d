package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the service configuration.
const (
	DefaultHTTPPort        = 8080
	DefaultShutdownTimeout = 10 * time.Second
	DefaultAuthHeader      = "x-api-key"
)

// DefaultDatasetPaths are tried in order when dataset.paths is empty: the
// deployment location first, then the path used when running from a checkout.
var DefaultDatasetPaths = []string{"telemetry.json", "data/telemetry.json"}

// Config holds the service configuration parsed from config.yaml.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Dataset DatasetConfig `yaml:"dataset"`
}

// ServerConfig holds the HTTP-side settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API listens on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Auth configures how the server authenticates REST clients.
	Auth AuthConfig `yaml:"auth"`

	// CORS lists the origins allowed to call the API. Empty means any origin.
	CORS CORSConfig `yaml:"cors"`

	// RateLimit throttles the API. Zero RequestsPerSecond disables it.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// AuthConfig controls client authentication.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	// Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header name to read the key from.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return DefaultAuthHeader
}

// CORSConfig controls cross-origin access.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// EffectiveOrigins returns the configured origins, or "*" when none are set.
func (c CORSConfig) EffectiveOrigins() []string {
	if len(c.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return c.AllowedOrigins
}

// RateLimitConfig is a token bucket applied to the whole API.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Enabled reports whether rate limiting is configured.
func (r RateLimitConfig) Enabled() bool { return r.RequestsPerSecond > 0 }

// DatasetConfig says where the telemetry table comes from.
type DatasetConfig struct {
	// Paths are tried in order; the first existing file is loaded.
	Paths []string `yaml:"paths"`

	// Watch reloads the dataset when the loaded file changes on disk.
	Watch bool `yaml:"watch"`

	// Object, when Bucket is set, loads the dataset from object storage
	// instead of Paths.
	Object ObjectConfig `yaml:"object"`
}

// ObjectConfig locates the dataset in an S3-compatible bucket.
type ObjectConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Bucket       string `yaml:"bucket"`
	Key          string `yaml:"key"`
	Region       string `yaml:"region"`
	UseSSL       bool   `yaml:"use_ssl"`
	AccessKeyEnv string `yaml:"access_key_env"`
	SecretKeyEnv string `yaml:"secret_key_env"`
}

// Enabled reports whether an object source is configured.
func (o ObjectConfig) Enabled() bool { return o.Bucket != "" }

// AccessKey returns the access key resolved from the environment.
func (o ObjectConfig) AccessKey() string { return envOrEmpty(o.AccessKeyEnv) }

// SecretKey returns the secret key resolved from the environment.
func (o ObjectConfig) SecretKey() string { return envOrEmpty(o.SecretKeyEnv) }

func envOrEmpty(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// Load reads and parses the config file at path. An empty path yields the
// defaults. Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if len(cfg.Dataset.Paths) == 0 {
		cfg.Dataset.Paths = append([]string(nil), DefaultDatasetPaths...)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        DefaultHTTPPort,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must not be negative")
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Server.Auth.Mode == "apikey" && cfg.Server.Auth.KeyEnv == "" {
		return fmt.Errorf("server.auth.key_env is required when mode is apikey")
	}
	if cfg.Server.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must not be negative")
	}
	if cfg.Server.RateLimit.Burst < 0 {
		return fmt.Errorf("server.rate_limit.burst must not be negative")
	}
	if o := cfg.Dataset.Object; o.Enabled() {
		if o.Endpoint == "" || o.Key == "" {
			return fmt.Errorf("dataset.object needs endpoint, bucket and key")
		}
		if cfg.Dataset.Watch {
			return fmt.Errorf("dataset.watch only applies to local files, not dataset.object")
		}
	}
	return nil
}
