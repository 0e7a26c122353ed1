package resolver

import (
	"net"
	"sync"
	"time"
)

// defaultCacheTTL is the fallback TTL used when a non-positive value is supplied
const defaultCacheTTL = 10 * time.Minute

// dnsCache provides a concurrency-safe TTL cache of successful lookups
type dnsCache struct {
	// mu guards concurrent access to the cache data
	mu sync.RWMutex
	// ttl is the time-to-live for cached entries
	ttl time.Duration
	// data maps hostnames to their cached addresses
	data map[string]dnsCacheEntry
	// now is the clock, replaceable in tests
	now func() time.Time
}

// dnsCacheEntry holds the cached addresses and expiry for a single hostname
type dnsCacheEntry struct {
	ips     []net.IP
	expires time.Time
}

// newDNSCache creates a cache with the given TTL, falling back to a default if non-positive
func newDNSCache(ttl time.Duration) *dnsCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &dnsCache{
		ttl:  ttl,
		data: make(map[string]dnsCacheEntry),
		now:  time.Now,
	}
}

// get returns a copy of the cached addresses for host, or nil when missing or expired
func (c *dnsCache) get(host string) []net.IP {
	c.mu.RLock()
	entry, ok := c.data[host]
	c.mu.RUnlock()

	if !ok || !entry.expires.After(c.now()) {
		return nil
	}

	return cloneIPs(entry.ips)
}

// put stores addresses for host
func (c *dnsCache) put(host string, ips []net.IP) {
	if len(ips) == 0 {
		return
	}

	c.mu.Lock()
	c.data[host] = dnsCacheEntry{
		ips:     cloneIPs(ips),
		expires: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// forget drops the entry for host
func (c *dnsCache) forget(host string) {
	c.mu.Lock()
	delete(c.data, host)
	c.mu.Unlock()
}

// len reports how many entries are held, expired or not
func (c *dnsCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}

// sweep drops expired entries
func (c *dnsCache) sweep() int {
	now := c.now()
	removed := 0

	c.mu.Lock()
	for host, entry := range c.data {
		if !entry.expires.After(now) {
			delete(c.data, host)
			removed++
		}
	}
	c.mu.Unlock()

	return removed
}

// cloneIPs returns a deep copy of the provided IP slice to prevent mutation of cached data
func cloneIPs(src []net.IP) []net.IP {
	if len(src) == 0 {
		return nil
	}

	dst := make([]net.IP, 0, len(src))

	for _, ip := range src {
		if ip == nil {
			continue
		}

		copyIP := make(net.IP, len(ip))
		copy(copyIP, ip)
		dst = append(dst, copyIP)
	}

	return dst
}
