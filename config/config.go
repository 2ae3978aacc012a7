// Package config provides configuration management for the application.
//
// Values come from, in increasing priority: built-in defaults, a YAML file
// (with ${VAR} and ${VAR:-default} placeholders), a .env file and the process
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig              `yaml:"server"`
	Logging   LoggingConfig             `yaml:"logging"`
	Cache     CacheConfig               `yaml:"cache"`
	Enhance   EnhanceConfig             `yaml:"enhance"`
	Metrics   MetricsConfig             `yaml:"metrics"`
	Providers map[string]ProviderConfig `yaml:"providers"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port          string   `yaml:"port"`
	AdminKey      string   `yaml:"admin_key"`       // protects cache administration when set
	BodySizeLimit string   `yaml:"body_size_limit"` // e.g. "10M"; empty keeps the default
	CORSOrigins   []string `yaml:"cors_origins"`
}

// LoggingConfig selects the log format ("json" or "pretty") and level
type LoggingConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// CacheConfig holds result cache configuration. Durations are in seconds.
type CacheConfig struct {
	Type          string      `yaml:"type"` // "memory" (default) or "redis"
	TTL           int         `yaml:"ttl"`
	SweepInterval int         `yaml:"sweep_interval"`
	Redis         RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings for the redis cache type
type RedisConfig struct {
	URL    string `yaml:"url"`
	Prefix string `yaml:"prefix"`
}

// EnhanceConfig holds enhancement pipeline settings
type EnhanceConfig struct {
	ValidationMode   string `yaml:"validation_mode"` // off, warn or enforce
	DocsDir          string `yaml:"docs_dir"`
	MaxAttempts      int    `yaml:"max_attempts"`
	InitialBackoffMs int    `yaml:"initial_backoff_ms"`
	MaxBackoffMs     int    `yaml:"max_backoff_ms"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// ProviderConfig overrides a provider's endpoint, keyed by provider type
type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
}

// LoadResult is the loaded configuration and the file it came from ("" when
// no file was found).
type LoadResult struct {
	Config *Config
	Path   string
}

// defaultPaths are tried in order when Load is called without a path.
var defaultPaths = []string{"config.yaml", "config/config.yaml"}

func buildDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          "4000",
			BodySizeLimit: "10M",
		},
		Logging: LoggingConfig{
			Format: "json",
			Level:  "info",
		},
		Cache: CacheConfig{
			Type:          "memory",
			TTL:           3600,
			SweepInterval: 600,
			Redis: RedisConfig{
				Prefix: "sp1assist:artifact:",
			},
		},
		Enhance: EnhanceConfig{
			ValidationMode:   "off",
			MaxAttempts:      3,
			InitialBackoffMs: 1000,
			MaxBackoffMs:     10000,
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Endpoint: "/metrics",
		},
		Providers: map[string]ProviderConfig{},
	}
}

// Load reads configuration from path (or the default locations when path is
// empty), then applies .env and environment overrides.
func Load(path string) (*LoadResult, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := buildDefaultConfig()
	result := &LoadResult{Config: cfg}

	candidates := defaultPaths
	if path != "" {
		candidates = []string{path}
	}
	for _, p := range candidates {
		data, err := os.ReadFile(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == "" {
				continue
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", p, err)
		}
		if err := yaml.Unmarshal([]byte(expandString(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", p, err)
		}
		result.Path = p
		break
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

// Validate checks enumerated and bounded settings.
func (c *Config) Validate() error {
	switch c.Cache.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid cache type %q (want memory or redis)", c.Cache.Type)
	}
	if c.Cache.Type == "redis" && c.Cache.Redis.URL == "" {
		return errors.New("cache type redis requires a redis url")
	}
	if c.Cache.TTL < 0 || c.Cache.SweepInterval < 0 {
		return errors.New("cache durations must not be negative")
	}
	switch strings.ToLower(c.Enhance.ValidationMode) {
	case "", "off", "warn", "enforce":
	default:
		return fmt.Errorf("invalid validation mode %q (want off, warn or enforce)", c.Enhance.ValidationMode)
	}
	return ValidateBodySizeLimit(c.Server.BodySizeLimit)
}

// envPattern matches ${VAR} and ${VAR:-default}.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandString replaces ${VAR} with the variable's value and ${VAR:-default}
// with the value or, when unset or empty, the default. A ${VAR} with no value
// and no default is left as is.
func expandString(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		m := envPattern.FindStringSubmatch(match)
		name, hasDefault, def := m[1], m[2] != "", m[3]
		if v := os.Getenv(name); v != "" {
			return v
		}
		if hasDefault {
			return def
		}
		return match
	})
}

func applyEnvOverrides(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}
	setBool := func(key string, dst *bool) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = b
		return nil
	}

	setString("PORT", &cfg.Server.Port)
	setString("ADMIN_KEY", &cfg.Server.AdminKey)
	setString("BODY_SIZE_LIMIT", &cfg.Server.BodySizeLimit)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	setString("LOG_FORMAT", &cfg.Logging.Format)
	setString("LOG_LEVEL", &cfg.Logging.Level)
	setString("CACHE_TYPE", &cfg.Cache.Type)
	setString("REDIS_URL", &cfg.Cache.Redis.URL)
	setString("REDIS_PREFIX", &cfg.Cache.Redis.Prefix)
	setString("VALIDATION_MODE", &cfg.Enhance.ValidationMode)
	setString("DOCS_DIR", &cfg.Enhance.DocsDir)
	setString("METRICS_ENDPOINT", &cfg.Metrics.Endpoint)

	for key, dst := range map[string]*int{
		"CACHE_TTL":            &cfg.Cache.TTL,
		"CACHE_SWEEP_INTERVAL": &cfg.Cache.SweepInterval,
		"ENHANCE_MAX_ATTEMPTS": &cfg.Enhance.MaxAttempts,
	} {
		if err := setInt(key, dst); err != nil {
			return err
		}
	}
	if err := setBool("METRICS_ENABLED", &cfg.Metrics.Enabled); err != nil {
		return err
	}

	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	for providerType, key := range map[string]string{
		"openai":    "OPENAI_BASE_URL",
		"anthropic": "ANTHROPIC_BASE_URL",
		"google":    "GOOGLE_BASE_URL",
	} {
		if v := os.Getenv(key); v != "" {
			p := cfg.Providers[providerType]
			p.BaseURL = v
			cfg.Providers[providerType] = p
		}
	}
	return nil
}

// BaseURLs returns the configured endpoint overrides by provider type.
func (c *Config) BaseURLs() map[string]string {
	out := make(map[string]string, len(c.Providers))
	for name, p := range c.Providers {
		if p.BaseURL != "" {
			out[name] = p.BaseURL
		}
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

const (
	minBodySize = 1 << 10   // 1KB
	maxBodySize = 100 << 20 // 100MB
)

var bodySizePattern = regexp.MustCompile(`^(\d+)([KkMmGg][Bb]?)?$`)

// ValidateBodySizeLimit checks a size such as "512K" or "10MB". Empty is valid
// and means the server default.
func ValidateBodySizeLimit(limit string) error {
	limit = strings.TrimSpace(limit)
	if limit == "" {
		return nil
	}
	m := bodySizePattern.FindStringSubmatch(limit)
	if m == nil {
		return fmt.Errorf("invalid body size limit %q", limit)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid body size limit %q: %w", limit, err)
	}
	switch strings.ToUpper(strings.TrimSuffix(strings.ToUpper(m[2]), "B")) {
	case "K":
		n <<= 10
	case "M":
		n <<= 20
	case "G":
		n <<= 30
	}
	if n < minBodySize || n > maxBodySize {
		return fmt.Errorf("body size limit %q must be between 1K and 100M", limit)
	}
	return nil
}
