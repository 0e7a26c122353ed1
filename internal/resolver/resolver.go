// Package resolver turns candidate domains into hostnames with usable addresses,
// falling back to the www-prefixed name when the apex does not resolve.
package resolver

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	// DefaultTimeout bounds each resolution attempt
	DefaultTimeout = 2 * time.Second
	// wwwPrefix is prepended for the fallback attempt
	wwwPrefix = "www."
	// defaultDNSPort is appended to configured servers without a port
	defaultDNSPort = "53"
)

// Resolution is a successful lookup
type Resolution struct {
	// Host is the hostname that resolved; the fetcher must use this name
	Host string
	// Addrs are the resolved addresses
	Addrs []net.IP
	// Fallback is true when Host is the www-prefixed alternate
	Fallback bool
}

// Resolver resolves domains with a per-attempt timeout and an optional www fallback
type Resolver struct {
	timeout     time.Duration
	wwwFallback bool
	servers     []string
	cacheTTL    time.Duration
	lookup      lookupFunc
	cache       *dnsCache
}

// Option configures the Resolver
type Option func(*Resolver)

// WithTimeout overrides the per-attempt resolution timeout
func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithWWWFallback enables or disables the www-prefixed retry
func WithWWWFallback(enabled bool) Option {
	return func(r *Resolver) {
		r.wwwFallback = enabled
	}
}

// WithServers queries the given DNS servers directly instead of the system resolver
func WithServers(servers []string) Option {
	return func(r *Resolver) {
		r.servers = lo.FilterMap(servers, func(s string, _ int) (string, bool) {
			s = strings.TrimSpace(s)
			if s == "" {
				return "", false
			}

			if _, _, err := net.SplitHostPort(s); err != nil {
				s = net.JoinHostPort(s, defaultDNSPort)
			}

			return s, true
		})
	}
}

// WithCacheTTL sets how long successful resolutions stay available to Cached
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cacheTTL = ttl
	}
}

// New creates a Resolver
func New(opts ...Option) *Resolver {
	r := &Resolver{
		timeout:     DefaultTimeout,
		wwwFallback: true,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.cache = newDNSCache(r.cacheTTL)

	if len(r.servers) > 0 {
		r.lookup = dnsLookup(r.servers, r.timeout)
	} else {
		r.lookup = systemLookup(&net.Resolver{PreferGo: true})
	}

	return r
}

// candidates returns the hostnames to try for domain, in order
func (r *Resolver) candidates(domain string) []string {
	hosts := []string{domain}

	if r.wwwFallback && !strings.HasPrefix(domain, wwwPrefix) {
		hosts = append(hosts, wwwPrefix+domain)
	}

	return hosts
}

// Resolve resolves domain, then its www-prefixed variant when enabled.
// Each attempt is bounded by the resolver timeout. On failure the returned
// error is a *ResolutionError wrapping ErrResolution and the last cause.
func (r *Resolver) Resolve(ctx context.Context, domain string) (*Resolution, error) {
	hosts := r.candidates(domain)

	var lastErr error

	for i, host := range hosts {
		ips, err := r.attempt(ctx, host)
		if err == nil {
			r.cache.put(host, ips)

			return &Resolution{Host: host, Addrs: ips, Fallback: i > 0}, nil
		}

		log.Debug().Str("host", host).Str("kind", Kind(err)).Err(err).Msg("resolution attempt failed")

		lastErr = err
	}

	return nil, &ResolutionError{Attempts: hosts, Err: lastErr}
}

// attempt performs one bounded lookup
func (r *Resolver) attempt(ctx context.Context, host string) ([]net.IP, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.lookup(attemptCtx, host)
}

// Cached returns the addresses from a recent successful Resolve of host, or nil
func (r *Resolver) Cached(host string) []net.IP {
	return r.cache.get(host)
}

// Sweep drops expired cache entries and reports how many were removed
func (r *Resolver) Sweep() int {
	return r.cache.sweep()
}

// Forget drops the cached addresses for host once its fetch is done
func (r *Resolver) Forget(host string) {
	r.cache.forget(host)
}

// CacheLen reports how many hosts are currently cached
func (r *Resolver) CacheLen() int {
	return r.cache.len()
}
