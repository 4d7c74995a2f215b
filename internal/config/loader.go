package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the proxy and the viewer.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr             string   `json:"addr" yaml:"addr" toml:"addr"`
	UpstreamBaseURL  string   `json:"upstream_base_url" yaml:"upstream_base_url" toml:"upstream_base_url"`
	ConnectTimeoutMS int      `json:"connect_timeout_ms" yaml:"connect_timeout_ms" toml:"connect_timeout_ms"`
	ReadTimeoutMS    int      `json:"read_timeout_ms" yaml:"read_timeout_ms" toml:"read_timeout_ms"`
	MaxRetries       int      `json:"max_retries" yaml:"max_retries" toml:"max_retries"`
	BackoffUnitMS    int      `json:"backoff_unit_ms" yaml:"backoff_unit_ms" toml:"backoff_unit_ms"`
	MaxPreviewBytes  int64    `json:"max_preview_bytes" yaml:"max_preview_bytes" toml:"max_preview_bytes"`
	RequestTimeoutMS int      `json:"request_timeout_ms" yaml:"request_timeout_ms" toml:"request_timeout_ms"`
	LogLevel         string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	RateLimitRPS     float64  `json:"rate_limit_rps" yaml:"rate_limit_rps" toml:"rate_limit_rps"`
	RateLimitBurst   int      `json:"rate_limit_burst" yaml:"rate_limit_burst" toml:"rate_limit_burst"`
	CORSOrigins      []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	TokenFile        string   `json:"token_file" yaml:"token_file" toml:"token_file"`
	RestoreSelection string   `json:"restore_selection" yaml:"restore_selection" toml:"restore_selection"`
	ProxyURL         string   `json:"proxy_url" yaml:"proxy_url" toml:"proxy_url"`
}

const (
	DefaultAddr             = ":8080"
	DefaultConnectTimeoutMS = 5000
	DefaultReadTimeoutMS    = 15000
	DefaultBackoffUnitMS    = 1000
	DefaultLogLevel         = "info"
)

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyDefaults fills unspecified fields. MaxRetries is left alone since zero
// already selects the client's default and a negative value disables retries.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ConnectTimeoutMS <= 0 {
		c.ConnectTimeoutMS = DefaultConnectTimeoutMS
	}
	if c.ReadTimeoutMS <= 0 {
		c.ReadTimeoutMS = DefaultReadTimeoutMS
	}
	if c.BackoffUnitMS <= 0 {
		c.BackoffUnitMS = DefaultBackoffUnitMS
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// ApplyEnv overlays PROCPROXY_* environment variables. Malformed numbers are
// reported and leave the field unchanged.
func (c *Config) ApplyEnv() error {
	var errs []string
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv("PROCPROXY_" + key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		v, ok := os.LookupEnv("PROCPROXY_" + key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, "PROCPROXY_"+key)
			return
		}
		*dst = n
	}

	str("ADDR", &c.Addr)
	str("UPSTREAM_BASE_URL", &c.UpstreamBaseURL)
	str("LOG_LEVEL", &c.LogLevel)
	str("TOKEN_FILE", &c.TokenFile)
	str("RESTORE_SELECTION", &c.RestoreSelection)
	str("PROXY_URL", &c.ProxyURL)
	num("CONNECT_TIMEOUT_MS", &c.ConnectTimeoutMS)
	num("READ_TIMEOUT_MS", &c.ReadTimeoutMS)
	num("MAX_RETRIES", &c.MaxRetries)
	num("BACKOFF_UNIT_MS", &c.BackoffUnitMS)
	num("REQUEST_TIMEOUT_MS", &c.RequestTimeoutMS)
	num("RATE_LIMIT_BURST", &c.RateLimitBurst)
	if v := os.Getenv("PROCPROXY_MAX_PREVIEW_BYTES"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			c.MaxPreviewBytes = n
		} else {
			errs = append(errs, "PROCPROXY_MAX_PREVIEW_BYTES")
		}
	}
	if v := os.Getenv("PROCPROXY_RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			c.RateLimitRPS = f
		} else {
			errs = append(errs, "PROCPROXY_RATE_LIMIT_RPS")
		}
	}
	if v := os.Getenv("PROCPROXY_CORS_ORIGINS"); v != "" {
		c.CORSOrigins = SplitCSV(v)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid numeric environment values: %s", strings.Join(errs, ", "))
	}
	return nil
}

// SplitCSV splits a comma-separated list, trimming spaces and dropping empty
// entries.
func SplitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c Config) ConnectTimeout() time.Duration { return ms(c.ConnectTimeoutMS) }
func (c Config) ReadTimeout() time.Duration    { return ms(c.ReadTimeoutMS) }
func (c Config) BackoffUnit() time.Duration    { return ms(c.BackoffUnitMS) }
func (c Config) RequestTimeout() time.Duration { return ms(c.RequestTimeoutMS) }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
