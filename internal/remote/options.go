package remote

import (
	"net/http"
	"time"

	"github.com/theopenlane/mcpscout/internal/classify"
	"github.com/theopenlane/mcpscout/internal/fetcher"
)

const (
	// DefaultConcurrency is the number of endpoints probed at once
	DefaultConcurrency = 64
	// DefaultFlushEvery is the record chunk size handed to the sink
	DefaultFlushEvery = 500
	// DefaultTimeout bounds each JSON-RPC call
	DefaultTimeout = 10 * time.Second
	// DefaultMaxBodyBytes caps each response body
	DefaultMaxBodyBytes = 128 * 1024
	// DefaultDangerousNameLimit caps dangerous_tool_names
	DefaultDangerousNameLimit = classify.DefaultDangerousNameLimit
)

// Options configures a Prober
type Options struct {
	Concurrency        int
	FlushEvery         int
	Timeout            time.Duration
	MaxBodyBytes       int
	DangerousNameLimit int
	UserAgent          string
	HTTPClient         *http.Client
}

// Option is a functional option for configuring the prober
type Option func(*Options)

// DefaultOptions returns default prober options
func DefaultOptions() *Options {
	return &Options{
		Concurrency:        DefaultConcurrency,
		FlushEvery:         DefaultFlushEvery,
		Timeout:            DefaultTimeout,
		MaxBodyBytes:       DefaultMaxBodyBytes,
		DangerousNameLimit: DefaultDangerousNameLimit,
		UserAgent:          fetcher.DefaultUserAgent,
	}
}

// WithConcurrency sets how many endpoints are probed at once
func WithConcurrency(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithFlushEvery sets the record chunk size
func WithFlushEvery(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.FlushEvery = n
		}
	}
}

// WithTimeout sets the per-call timeout
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		if timeout > 0 {
			o.Timeout = timeout
		}
	}
}

// WithMaxBodyBytes sets the response body cap
func WithMaxBodyBytes(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxBodyBytes = n
		}
	}
}

// WithDangerousNameLimit caps how many dangerous tool names are recorded
func WithDangerousNameLimit(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.DangerousNameLimit = n
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

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(o *Options) {
		if client != nil {
			o.HTTPClient = client
		}
	}
}
