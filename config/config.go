// Package config holds the mcpscout configuration and its loader
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/mcuadros/go-defaults"
	"github.com/rs/zerolog/log"
)

const (
	// EnvPrefix is the prefix of environment variables read by Load
	EnvPrefix = "MCPSCOUT_"
	// envNestingDelim separates nested keys in environment variable names
	envNestingDelim = "__"
	// maxBodyCap is the largest response body any record may be derived from
	maxBodyCap = 128 * 1024
)

// Config holds the full application configuration
type Config struct {
	// DataDir is the root under which per-run output directories are created
	DataDir string `json:"data_dir" koanf:"data_dir" default:"./data"`
	// Server holds the sidecar API settings
	Server Server `json:"server" koanf:"server"`
	// Scanner holds the scan orchestrator settings
	Scanner Scanner `json:"scanner" koanf:"scanner"`
	// Resolver holds the host resolver settings
	Resolver Resolver `json:"resolver" koanf:"resolver"`
	// Fetcher holds the manifest fetcher settings
	Fetcher Fetcher `json:"fetcher" koanf:"fetcher"`
	// Remote holds the remote capability prober settings
	Remote Remote `json:"remote" koanf:"remote"`
	// Classify holds the exposure classifier settings
	Classify Classify `json:"classify" koanf:"classify"`
	// NATS holds the optional record mirror settings
	NATS NATS `json:"nats" koanf:"nats"`
	// Slack holds the optional batch notification settings
	Slack Slack `json:"slack" koanf:"slack"`
}

// Server holds the sidecar API settings
type Server struct {
	// Debug enables debug logging
	Debug bool `json:"debug" koanf:"debug" default:"false"`
	// Pretty enables human readable log output
	Pretty bool `json:"pretty" koanf:"pretty" default:"false"`
	// Listen is the address the API binds to
	Listen string `json:"listen" koanf:"listen" default:":8080"`
	// ReadTimeout bounds reading a request
	ReadTimeout time.Duration `json:"read_timeout" koanf:"read_timeout" default:"30s"`
	// WriteTimeout bounds writing a response
	WriteTimeout time.Duration `json:"write_timeout" koanf:"write_timeout" default:"60s"`
	// RequestTimeout bounds handler execution
	RequestTimeout time.Duration `json:"request_timeout" koanf:"request_timeout" default:"45s"`
	// ShutdownGracePeriod is how long in-flight requests get on shutdown
	ShutdownGracePeriod time.Duration `json:"shutdown_grace_period" koanf:"shutdown_grace_period" default:"10s"`
	// MaxBodySize caps request bodies in bytes
	MaxBodySize int64 `json:"max_body_size" koanf:"max_body_size" default:"16384"`
}

// Scanner holds the scan orchestrator settings
type Scanner struct {
	// ResolveConcurrency caps concurrent resolutions
	ResolveConcurrency int `json:"resolve_concurrency" koanf:"resolve_concurrency" default:"64"`
	// FetchConcurrency caps concurrent manifest fetches
	FetchConcurrency int `json:"fetch_concurrency" koanf:"fetch_concurrency" default:"200"`
	// FlushEvery is the record chunk size handed to the sinks
	FlushEvery int `json:"flush_every" koanf:"flush_every" default:"1000"`
	// SeedSource tags records when the CLI does not override it
	SeedSource string `json:"seed_source" koanf:"seed_source" default:"manual"`
}

// Resolver holds the host resolver settings
type Resolver struct {
	// Timeout bounds each lookup attempt
	Timeout time.Duration `json:"timeout" koanf:"timeout" default:"2s"`
	// WWWFallback retries www.<domain> when the apex does not resolve
	WWWFallback bool `json:"www_fallback" koanf:"www_fallback" default:"true"`
	// Servers are DNS servers queried directly instead of the system resolver
	Servers []string `json:"servers" koanf:"servers"`
	// CacheTTL is how long resolved addresses are reused by the fetcher
	CacheTTL time.Duration `json:"cache_ttl" koanf:"cache_ttl" default:"10m"`
}

// Fetcher holds the manifest fetcher settings
type Fetcher struct {
	// Timeout bounds each request attempt including the body read
	Timeout time.Duration `json:"timeout" koanf:"timeout" default:"8s"`
	// MaxBodyBytes caps how much of each body is read
	MaxBodyBytes int `json:"max_body_bytes" koanf:"max_body_bytes" default:"131072"`
	// MaxConnsPerHost caps connections to one host
	MaxConnsPerHost int `json:"max_conns_per_host" koanf:"max_conns_per_host" default:"4"`
	// MaxIdleConns caps the idle pool across hosts
	MaxIdleConns int `json:"max_idle_conns" koanf:"max_idle_conns" default:"256"`
	// UserAgent overrides the default User-Agent header
	UserAgent string `json:"user_agent" koanf:"user_agent"`
}

// Remote holds the remote capability prober settings
type Remote struct {
	// Concurrency caps concurrent endpoint probes
	Concurrency int `json:"concurrency" koanf:"concurrency" default:"64"`
	// FlushEvery is the record chunk size handed to the sinks
	FlushEvery int `json:"flush_every" koanf:"flush_every" default:"500"`
	// Timeout bounds each JSON-RPC call
	Timeout time.Duration `json:"timeout" koanf:"timeout" default:"10s"`
	// MaxBodyBytes caps each response body
	MaxBodyBytes int `json:"max_body_bytes" koanf:"max_body_bytes" default:"131072"`
	// DangerousNameLimit caps recorded dangerous tool names
	DangerousNameLimit int `json:"dangerous_name_limit" koanf:"dangerous_name_limit" default:"20"`
}

// Classify holds the exposure classifier settings
type Classify struct {
	// RulesFile is an optional YAML rule set replacing the built-in keywords
	RulesFile string `json:"rules_file" koanf:"rules_file"`
}

// NATS holds the optional record mirror settings
type NATS struct {
	// URL enables publishing when set
	URL string `json:"url" koanf:"url"`
	// SubjectPrefix is prepended to the scan and remote subjects
	SubjectPrefix string `json:"subject_prefix" koanf:"subject_prefix" default:"mcpscout"`
	// ClientName identifies the connection to the server
	ClientName string `json:"client_name" koanf:"client_name" default:"mcpscout"`
}

// Slack holds the optional batch notification settings
type Slack struct {
	// WebhookURL enables notifications when set
	WebhookURL string `json:"webhook_url" koanf:"webhook_url" sensitive:"true"`
	// RequestTimeout bounds the webhook call
	RequestTimeout time.Duration `json:"request_timeout" koanf:"request_timeout" default:"10s"`
}

// ScanSubject is the subject scan records are mirrored to
func (n NATS) ScanSubject() string {
	return n.SubjectPrefix + ".scan"
}

// RemoteSubject is the subject remote probe records are mirrored to
func (n NATS) RemoteSubject() string {
	return n.SubjectPrefix + ".remote"
}

// Default returns a config populated with default values only
func Default() *Config {
	conf := &Config{}
	defaults.SetDefaults(conf)

	return conf
}

// Load builds the config from defaults, the YAML file at cfgFile when it
// exists, then MCPSCOUT_ environment variables
func Load(cfgFile *string) (*Config, error) {
	k := koanf.New(".")
	conf := Default()

	if cfgFile != nil && *cfgFile != "" {
		switch _, err := os.Stat(*cfgFile); {
		case err == nil:
			if err := k.Load(file.Provider(*cfgFile), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrConfigLoad, *cfgFile, err)
			}
		case errors.Is(err, os.ErrNotExist):
			log.Debug().Str("path", *cfgFile).Msg("config file not found, using defaults and environment")
		default:
			return nil, fmt.Errorf("%w: %s: %w", ErrConfigLoad, *cfgFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigLoad, err)
	}

	if err := k.UnmarshalWithConf("", conf, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigUnmarshal, err)
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

// envKey maps MCPSCOUT_SCANNER__FLUSH_EVERY to scanner.flush_every
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), envNestingDelim, ".")
}

// Validate rejects settings the components cannot run with
func (c *Config) Validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{"scanner.resolve_concurrency", c.Scanner.ResolveConcurrency},
		{"scanner.fetch_concurrency", c.Scanner.FetchConcurrency},
		{"scanner.flush_every", c.Scanner.FlushEvery},
		{"fetcher.max_body_bytes", c.Fetcher.MaxBodyBytes},
		{"remote.concurrency", c.Remote.Concurrency},
		{"remote.flush_every", c.Remote.FlushEvery},
		{"remote.max_body_bytes", c.Remote.MaxBodyBytes},
	}

	for _, check := range checks {
		if check.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, check.name, check.value)
		}
	}

	if c.Fetcher.MaxBodyBytes > maxBodyCap {
		return fmt.Errorf("%w: fetcher.max_body_bytes must not exceed %d, got %d", ErrInvalidConfig, maxBodyCap, c.Fetcher.MaxBodyBytes)
	}

	if c.Remote.MaxBodyBytes > maxBodyCap {
		return fmt.Errorf("%w: remote.max_body_bytes must not exceed %d, got %d", ErrInvalidConfig, maxBodyCap, c.Remote.MaxBodyBytes)
	}

	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is required", ErrInvalidConfig)
	}

	return nil
}
