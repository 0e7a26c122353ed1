package fetcher

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"
)

var (
	// ErrEmptyHost is returned when Fetch is called without a hostname
	ErrEmptyHost = errors.New("empty host")
)

// ErrorKind names the failure class of a transport error for record notes
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var (
		urlErr      *url.Error
		dnsErr      *net.DNSError
		certErr     *tls.CertificateVerificationError
		unknownAuth x509.UnknownAuthorityError
		hostErr     x509.HostnameError
		recordErr   tls.RecordHeaderError
		netErr      net.Error
	)

	if errors.As(err, &urlErr) && strings.Contains(urlErr.Err.Error(), "stopped after") {
		return "too_many_redirects"
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &dnsErr):
		return "dns"
	case errors.As(err, &certErr), errors.As(err, &unknownAuth), errors.As(err, &hostErr), errors.As(err, &recordErr):
		return "tls"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection_refused"
	case errors.Is(err, syscall.ECONNRESET):
		return "connection_reset"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case strings.Contains(err.Error(), "tls:"):
		return "tls"
	default:
		return "transport"
	}
}
