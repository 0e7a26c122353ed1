package fetcher

import (
	"net"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the wall-clock budget for one request including the body read
	DefaultTimeout = 8 * time.Second
	// DefaultMaxBodyBytes caps how much of a response body is kept
	DefaultMaxBodyBytes = 128 * 1024
	// DefaultMaxConnsPerHost caps concurrent connections to one host
	DefaultMaxConnsPerHost = 4
	// DefaultMaxIdleConns caps idle connections kept across all hosts
	DefaultMaxIdleConns = 256
	// DefaultUserAgent identifies the scanner to the probed hosts
	DefaultUserAgent = "mcpscout/0.1 (+https://github.com/theopenlane/mcpscout)"
	// defaultAccept prefers JSON without refusing anything else
	defaultAccept = "application/json, */*;q=0.7"
)

// WellKnownPaths are the manifest locations probed on each host, in order
var WellKnownPaths = []string{
	"/.well-known/mcp.json",
	"/.well-known/mcp/manifest.json",
}

// Options configures a Fetcher
type Options struct {
	// Timeout bounds each request attempt
	Timeout time.Duration
	// MaxBodyBytes caps body accumulation
	MaxBodyBytes int
	// MaxConnsPerHost caps connections to a single host
	MaxConnsPerHost int
	// MaxIdleConns caps the idle pool across hosts
	MaxIdleConns int
	// UserAgent is sent on every request
	UserAgent string
	// Paths are the well-known paths probed in order
	Paths []string
	// AddrLookup returns pre-resolved addresses for a host, or nil to dial normally
	AddrLookup func(host string) []net.IP
	// HTTPClient replaces the pooled client built from the other options
	HTTPClient *http.Client
}

// Option is a functional option for configuring the fetcher
type Option func(*Options)

// DefaultOptions returns default fetcher options
func DefaultOptions() *Options {
	return &Options{
		Timeout:         DefaultTimeout,
		MaxBodyBytes:    DefaultMaxBodyBytes,
		MaxConnsPerHost: DefaultMaxConnsPerHost,
		MaxIdleConns:    DefaultMaxIdleConns,
		UserAgent:       DefaultUserAgent,
		Paths:           WellKnownPaths,
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		if timeout > 0 {
			o.Timeout = timeout
		}
	}
}

// WithMaxBodyBytes sets the body cap
func WithMaxBodyBytes(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxBodyBytes = n
		}
	}
}

// WithConnLimits sets the per-host and total idle connection caps
func WithConnLimits(perHost, idle int) Option {
	return func(o *Options) {
		if perHost > 0 {
			o.MaxConnsPerHost = perHost
		}

		if idle > 0 {
			o.MaxIdleConns = idle
		}
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(o *Options) {
		if ua != "" {
			o.UserAgent = ua
		}
	}
}

// WithPaths overrides the well-known paths
func WithPaths(paths []string) Option {
	return func(o *Options) {
		if len(paths) > 0 {
			o.Paths = paths
		}
	}
}

// WithAddrLookup dials pre-resolved addresses for hosts the lookup knows about
func WithAddrLookup(lookup func(host string) []net.IP) Option {
	return func(o *Options) {
		o.AddrLookup = lookup
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(o *Options) {
		if client != nil {
			o.HTTPClient = client
		}
	}
}
