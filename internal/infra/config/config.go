package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the portal.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Backend      BackendConfig      `yaml:"backend"`
	Session      SessionConfig      `yaml:"session"`
	Autocomplete AutocompleteConfig `yaml:"autocomplete"`
	Valkey       ValkeyConfig       `yaml:"valkey"`
	Storage      StorageConfig      `yaml:"storage"`
	Tokens       TokensConfig       `yaml:"tokens"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	MaxUploadBytes int64           `yaml:"maxUploadBytes"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// BackendConfig locates the scoring and auth backend.
type BackendConfig struct {
	BaseURL string `yaml:"baseUrl"`
	// Timeout bounds each backend call; zero leaves calls unbounded.
	Timeout       time.Duration `yaml:"timeout"`
	CSRFPrimePath string        `yaml:"csrfPrimePath"`
	// TokenRefreshPath is empty when the backend offers no refresh route.
	TokenRefreshPath string `yaml:"tokenRefreshPath"`
}

// SessionConfig controls the browser session cookie and state lifetime.
type SessionConfig struct {
	CookieName    string        `yaml:"cookieName"`
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
	SecureCookie  bool          `yaml:"secureCookie"`
}

// AutocompleteConfig tunes the location lookup debounce.
type AutocompleteConfig struct {
	QuietPeriod time.Duration `yaml:"quietPeriod"`
}

// ValkeyConfig contains connection information for session and token storage.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// StorageConfig points at the S3-compatible bucket for uploaded documents.
type StorageConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// TokensConfig controls token storage at rest.
type TokensConfig struct {
	SealingSecret string `yaml:"sealingSecret"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_MAX_UPLOAD_BYTES"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.HTTP.MaxUploadBytes = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("BACKEND_BASE_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("BACKEND_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Backend.Timeout = parsed
		}
	}
	if v := os.Getenv("BACKEND_CSRF_PRIME_PATH"); v != "" {
		cfg.Backend.CSRFPrimePath = v
	}
	if v := os.Getenv("BACKEND_TOKEN_REFRESH_PATH"); v != "" {
		cfg.Backend.TokenRefreshPath = v
	}
	if v := os.Getenv("SESSION_COOKIE_NAME"); v != "" {
		cfg.Session.CookieName = v
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Session.TTL = parsed
		}
	}
	if v := os.Getenv("SESSION_SWEEP_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Session.SweepInterval = parsed
		}
	}
	if v := os.Getenv("SESSION_SECURE_COOKIE"); v != "" {
		cfg.Session.SecureCookie = parseBool(v)
	}
	if v := os.Getenv("AUTOCOMPLETE_QUIET_PERIOD"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Autocomplete.QuietPeriod = parsed
		}
	}
	if v := os.Getenv("VALKEY_ENABLED"); v != "" {
		cfg.Valkey.Enabled = parseBool(v)
	}
	if v := os.Getenv("VALKEY_ADDR"); v != "" {
		cfg.Valkey.Addr = v
	}
	if v := os.Getenv("VALKEY_PREFIX"); v != "" {
		cfg.Valkey.Prefix = v
	}
	if v := os.Getenv("STORAGE_ENABLED"); v != "" {
		cfg.Storage.Enabled = parseBool(v)
	}
	if v := os.Getenv("STORAGE_ENDPOINT"); v != "" {
		cfg.Storage.Endpoint = v
	}
	if v := os.Getenv("STORAGE_ACCESS_KEY"); v != "" {
		cfg.Storage.AccessKey = v
	}
	if v := os.Getenv("STORAGE_SECRET_KEY"); v != "" {
		cfg.Storage.SecretKey = v
	}
	if v := os.Getenv("STORAGE_BUCKET"); v != "" {
		cfg.Storage.Bucket = v
	}
	if v := os.Getenv("STORAGE_REGION"); v != "" {
		cfg.Storage.Region = v
	}
	if v := os.Getenv("TOKENS_SEALING_SECRET"); v != "" {
		cfg.Tokens.SealingSecret = v
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":8080",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   0,
			MaxUploadBytes: 20 << 20,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 300,
				Burst:             60,
			},
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:8000",
		},
		Session: SessionConfig{
			CookieName:    "portal_session",
			TTL:           24 * time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Autocomplete: AutocompleteConfig{
			QuietPeriod: 300 * time.Millisecond,
		},
		Valkey: ValkeyConfig{
			Prefix: "portal",
		},
		Storage: StorageConfig{
			Bucket: "assessment-documents",
			Region: "auto",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		return errors.New("http.maxUploadBytes must be positive")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	base, err := url.Parse(strings.TrimSpace(c.Backend.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return errors.New("backend.baseUrl must be an absolute URL")
	}
	if c.Backend.Timeout < 0 {
		return errors.New("backend.timeout cannot be negative")
	}
	if p := c.Backend.TokenRefreshPath; p != "" && !strings.HasPrefix(p, "/") {
		return errors.New("backend.tokenRefreshPath must start with /")
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		return errors.New("session.cookieName cannot be empty")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		return errors.New("session.sweepInterval must be positive")
	}
	if c.Autocomplete.QuietPeriod <= 0 {
		return errors.New("autocomplete.quietPeriod must be positive")
	}
	if c.Valkey.Enabled {
		if strings.TrimSpace(c.Valkey.Addr) == "" {
			return errors.New("valkey.addr cannot be empty when valkey is enabled")
		}
		if strings.TrimSpace(c.Tokens.SealingSecret) == "" {
			return errors.New("tokens.sealingSecret is required when tokens are stored in valkey")
		}
	}
	if c.Storage.Enabled {
		if strings.TrimSpace(c.Storage.Endpoint) == "" {
			return errors.New("storage.endpoint cannot be empty when storage is enabled")
		}
		if strings.TrimSpace(c.Storage.Bucket) == "" {
			return errors.New("storage.bucket cannot be empty when storage is enabled")
		}
	}
	return nil
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
