package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// lookupFunc resolves a hostname to its addresses
type lookupFunc func(ctx context.Context, host string) ([]net.IP, error)

// systemLookup resolves through net.Resolver
func systemLookup(res *net.Resolver) lookupFunc {
	if res == nil {
		res = net.DefaultResolver
	}

	return func(ctx context.Context, host string) ([]net.IP, error) {
		addrs, err := res.LookupIPAddr(ctx, host)
		if err != nil {
			return nil, err
		}

		ips := make([]net.IP, 0, len(addrs))

		for _, addr := range addrs {
			if addr.IP != nil {
				ips = append(ips, addr.IP)
			}
		}

		if len(ips) == 0 {
			return nil, ErrNoAddresses
		}

		return cloneIPs(ips), nil
	}
}

// dnsLookup queries A and AAAA records directly against the given servers.
// Servers are tried in order until one answers.
func dnsLookup(servers []string, timeout time.Duration) lookupFunc {
	client := &dns.Client{Timeout: timeout}

	return func(ctx context.Context, host string) ([]net.IP, error) {
		if len(servers) == 0 {
			return nil, ErrNoServers
		}

		var lastErr error

		for _, server := range servers {
			ips, err := queryServer(ctx, client, server, host)
			if err == nil {
				return ips, nil
			}

			lastErr = err

			// an authoritative negative answer ends the lookup
			if errors.Is(err, ErrNXDomain) || errors.Is(err, ErrNoAddresses) || ctx.Err() != nil {
				break
			}
		}

		return nil, lastErr
	}
}

// queryServer asks one server for A and AAAA records of host
func queryServer(ctx context.Context, client *dns.Client, server, host string) ([]net.IP, error) {
	var ips []net.IP

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(host), qtype)
		msg.RecursionDesired = true

		resp, _, err := client.ExchangeContext(ctx, msg, server)
		if err != nil {
			return nil, fmt.Errorf("query %s %s: %w", dns.TypeToString[qtype], server, err)
		}

		switch resp.Rcode {
		case dns.RcodeSuccess:
		case dns.RcodeNameError:
			return nil, ErrNXDomain
		default:
			return nil, fmt.Errorf("%w: %s", ErrServFail, dns.RcodeToString[resp.Rcode])
		}

		for _, rr := range resp.Answer {
			switch rec := rr.(type) {
			case *dns.A:
				ips = append(ips, rec.A)
			case *dns.AAAA:
				ips = append(ips, rec.AAAA)
			}
		}
	}

	if len(ips) == 0 {
		return nil, ErrNoAddresses
	}

	return cloneIPs(ips), nil
}
