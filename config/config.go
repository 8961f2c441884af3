// Package config holds the settings shared by every packagecloud API call.
//
// A Config is built once per process, usually with Load, and is passed by
// pointer to the client and resource services. Nothing in this module
// mutates a Config after construction.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultURLBase    = "https://packagecloud.io/api/v1"
	DefaultDomainBase = "https://packagecloud.io"
	DefaultUserAgent  = "packagecloud-go"

	DefaultTimeout     = 30 * time.Second
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 1 * time.Second
)

// Environment variables consulted by ApplyEnv.
const (
	EnvToken = "PACKAGECLOUD_TOKEN"
	EnvURL   = "PACKAGECLOUD_URL"
	EnvDebug = "PACKAGECLOUD_DEBUG"
)

// Config is the immutable configuration record.
type Config struct {
	// URLBase is the versioned API root, e.g. https://packagecloud.io/api/v1.
	URLBase string `yaml:"url-base"`
	// DomainBase is prefixed to relative links returned by the API
	// (token paths, destroy/promote/stats URLs).
	DomainBase string `yaml:"domain-base"`
	Token      string `yaml:"token"`
	Debug      bool   `yaml:"debug"`

	// RepoUser and Repo name the default repository owner and repository.
	RepoUser string `yaml:"repo-user"`
	Repo     string `yaml:"repo"`

	UserAgent   string        `yaml:"user-agent"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max-attempts"`
	RetryDelay  time.Duration `yaml:"retry-delay"`

	CacheDistributions bool `yaml:"cache-distributions"`
	CircuitBreaker     bool `yaml:"circuit-breaker"`

	Log LogConfig `yaml:"log"`
}

// LogConfig controls where diagnostics go.
type LogConfig struct {
	File       string `yaml:"file"` // empty logs to stderr
	Level      string `yaml:"level"`
	MaxSize    int    `yaml:"max-size"` // MB
	MaxBackups int    `yaml:"max-backups"`
	MaxAge     int    `yaml:"max-age"` // days
	Compress   bool   `yaml:"compress"`
}

// Defaults returns a Config pointing at the public packagecloud service
// with the standard retry policy.
func Defaults() *Config {
	return &Config{
		URLBase:     DefaultURLBase,
		DomainBase:  DefaultDomainBase,
		UserAgent:   DefaultUserAgent,
		Timeout:     DefaultTimeout,
		MaxAttempts: DefaultMaxAttempts,
		RetryDelay:  DefaultRetryDelay,
		Log: LogConfig{
			Level:      "info",
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
		},
	}
}

// Load reads a YAML config file on top of Defaults and applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvToken); ok && v != "" {
		c.Token = v
	}
	if v, ok := lookup(EnvURL); ok && v != "" {
		c.DomainBase = strings.TrimSuffix(v, "/")
		c.URLBase = c.DomainBase + "/api/v1"
	}
	if v, ok := lookup(EnvDebug); ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvDebug, v, err)
		}
		c.Debug = debug
	}
	return nil
}

func (c *Config) normalize() {
	c.URLBase = strings.TrimSuffix(c.URLBase, "/")
	c.DomainBase = strings.TrimSuffix(c.DomainBase, "/")
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	var errs []error
	if c.URLBase == "" {
		errs = append(errs, errors.New("url-base is required"))
	}
	if c.DomainBase == "" {
		errs = append(errs, errors.New("domain-base is required"))
	}
	if c.Token == "" {
		errs = append(errs, fmt.Errorf("token is required (set it in the config file or %s)", EnvToken))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// DefaultRepo returns "owner/repo" for the configured default repository.
func (c *Config) DefaultRepo() string {
	return c.RepoUser + "/" + c.Repo
}
