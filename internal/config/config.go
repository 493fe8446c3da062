// Package config loads formengine settings from an optional file, a .env
// file and FORMENGINE_* environment variables.
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

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "FORMENGINE"

// Config is the resolved process configuration.
type Config struct {
	Log         LogConfig
	Cache       CacheConfig
	Registry    RegistryConfig
	Propagation PropagationConfig
	Catalog     CatalogConfig
	ClientType  string
	Submit      SubmitConfig
	Payload     PayloadConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type CacheConfig struct {
	TTL time.Duration
}

type RegistryConfig struct {
	Strict bool
}

type PropagationConfig struct {
	MaxDepth int
}

type CatalogConfig struct {
	Dir string
}

type SubmitConfig struct {
	BaseURL string
	Timeout time.Duration
}

type PayloadConfig struct {
	Sanitize bool
}

type AuditConfig struct {
	Retention time.Duration
}

type MetricsConfig struct {
	Enabled bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("registry.strict", false)
	v.SetDefault("propagation.max_depth", 64)
	v.SetDefault("catalog.dir", "")
	v.SetDefault("client_type", "FDF")
	v.SetDefault("submit.base_url", "")
	v.SetDefault("submit.timeout", 15*time.Second)
	v.SetDefault("payload.sanitize", true)
	v.SetDefault("audit.retention", 24*time.Hour)
	v.SetDefault("metrics.enabled", false)
}

// Load reads configuration. A non-empty path must name a readable YAML or
// JSON file; a .env file in the working directory is applied when present.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := Config{
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Cache:       CacheConfig{TTL: v.GetDuration("cache.ttl")},
		Registry:    RegistryConfig{Strict: v.GetBool("registry.strict")},
		Propagation: PropagationConfig{MaxDepth: v.GetInt("propagation.max_depth")},
		Catalog:     CatalogConfig{Dir: v.GetString("catalog.dir")},
		ClientType:  v.GetString("client_type"),
		Submit: SubmitConfig{
			BaseURL: v.GetString("submit.base_url"),
			Timeout: v.GetDuration("submit.timeout"),
		},
		Payload: PayloadConfig{Sanitize: v.GetBool("payload.sanitize")},
		Audit:   AuditConfig{Retention: v.GetDuration("audit.retention")},
		Metrics: MetricsConfig{Enabled: v.GetBool("metrics.enabled")},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the components cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL))
	}
	if c.Propagation.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("propagation.max_depth must be positive, got %d", c.Propagation.MaxDepth))
	}
	if c.Submit.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("submit.timeout must be positive, got %s", c.Submit.Timeout))
	}
	if c.Audit.Retention <= 0 {
		errs = append(errs, fmt.Errorf("audit.retention must be positive, got %s", c.Audit.Retention))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if strings.TrimSpace(c.ClientType) == "" {
		errs = append(errs, errors.New("client_type must not be empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
