package fetcher

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// dialKeepAlive is the TCP keep-alive period for pooled connections
const dialKeepAlive = 30 * time.Second

// newTransport builds the shared pooled transport with explicit connection caps
func newTransport(o *Options) *http.Transport {
	t := cleanhttp.DefaultPooledTransport()

	dialer := &net.Dialer{
		Timeout:   o.Timeout,
		KeepAlive: dialKeepAlive,
	}

	t.DialContext = cachedDial(dialer, o.AddrLookup)
	t.MaxConnsPerHost = o.MaxConnsPerHost
	t.MaxIdleConnsPerHost = o.MaxConnsPerHost
	t.MaxIdleConns = o.MaxIdleConns
	t.TLSHandshakeTimeout = o.Timeout
	t.ResponseHeaderTimeout = o.Timeout

	return t
}

// cachedDial dials the addresses the lookup already knows for a host before falling back to a normal dial
func cachedDial(dialer *net.Dialer, lookup func(string) []net.IP) func(context.Context, string, string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if lookup == nil {
			return dialer.DialContext(ctx, network, addr)
		}

		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return dialer.DialContext(ctx, network, addr)
		}

		ips := lookup(host)
		if len(ips) == 0 {
			return dialer.DialContext(ctx, network, addr)
		}

		var lastErr error

		for _, ip := range ips {
			conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip.String(), port))
			if err == nil {
				return conn, nil
			}

			lastErr = err

			if ctx.Err() != nil {
				break
			}
		}

		return nil, lastErr
	}
}
