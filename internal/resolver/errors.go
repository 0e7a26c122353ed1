package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrResolution is returned when neither the domain nor its fallback resolved
	ErrResolution = errors.New("host resolution failed")
	// ErrNXDomain is returned when a DNS server reports the name does not exist
	ErrNXDomain = errors.New("no such domain")
	// ErrServFail is returned when a DNS server answers with a non-success rcode
	ErrServFail = errors.New("dns server failure")
	// ErrNoAddresses is returned when a lookup succeeds but yields no A or AAAA records
	ErrNoAddresses = errors.New("no addresses found")
	// ErrNoServers is returned when the dns backend is configured with an empty server list
	ErrNoServers = errors.New("no dns servers configured")
)

// ResolutionError carries the hostnames attempted and the last underlying cause
type ResolutionError struct {
	// Attempts lists the hostnames tried, in order
	Attempts []string
	// Err is the cause reported by the final attempt
	Err error
}

// Error implements the error interface
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s (%s): %v", ErrResolution, strings.Join(e.Attempts, ", "), e.Err)
}

// Unwrap exposes both ErrResolution and the underlying cause to errors.Is
func (e *ResolutionError) Unwrap() []error {
	return []error{ErrResolution, e.Err}
}

// Kind names the failure class of a resolution error for record notes
func Kind(err error) string {
	var dnsErr *net.DNSError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrNXDomain):
		return "nxdomain"
	case errors.Is(err, ErrServFail):
		return "servfail"
	case errors.Is(err, ErrNoAddresses):
		return "no_addresses"
	case errors.As(err, &dnsErr):
		switch {
		case dnsErr.IsTimeout:
			return "timeout"
		case dnsErr.IsNotFound:
			return "nxdomain"
		default:
			return "lookup_error"
		}
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "timeout"
		}

		return "lookup_error"
	}
}
