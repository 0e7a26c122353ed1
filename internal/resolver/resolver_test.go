package resolver

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestDNSServer launches a local DNS server answering from a fixed zone
func startTestDNSServer(t *testing.T, handler dns.Handler) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	server := &dns.Server{
		PacketConn: pc,
		Handler:    handler,
	}

	go func() { _ = server.ActivateAndServe() }()

	t.Cleanup(func() { _ = server.Shutdown() })

	return pc.LocalAddr().String()
}

// zoneHandler answers A queries from a name->ip map and NXDOMAIN otherwise
type zoneHandler struct {
	records map[string]string
	queries atomic.Int32
}

func (h *zoneHandler) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	h.queries.Add(1)

	msg := new(dns.Msg)
	msg.SetReply(r)
	msg.Authoritative = true

	if len(r.Question) == 0 {
		_ = w.WriteMsg(msg)
		return
	}

	q := r.Question[0]
	name := strings.ToLower(q.Name)

	ip, ok := h.records[name]
	if !ok {
		msg.Rcode = dns.RcodeNameError
		_ = w.WriteMsg(msg)

		return
	}

	if q.Qtype == dns.TypeA {
		msg.Answer = append(msg.Answer, &dns.A{
			Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
			A:   net.ParseIP(ip),
		})
	}

	_ = w.WriteMsg(msg)
}

func TestResolveApex(t *testing.T) {
	addr := startTestDNSServer(t, &zoneHandler{records: map[string]string{
		"example.test.": "192.0.2.10",
	}})

	r := New(WithServers([]string{addr}))

	res, err := r.Resolve(context.Background(), "example.test")
	require.NoError(t, err)
	assert.Equal(t, "example.test", res.Host)
	assert.False(t, res.Fallback)
	require.Len(t, res.Addrs, 1)
	assert.Equal(t, "192.0.2.10", res.Addrs[0].String())

	cached := r.Cached("example.test")
	require.Len(t, cached, 1)
	assert.Equal(t, "192.0.2.10", cached[0].String())
}

func TestForgetDropsCachedHost(t *testing.T) {
	addr := startTestDNSServer(t, &zoneHandler{records: map[string]string{
		"a.test.": "192.0.2.10",
		"b.test.": "192.0.2.11",
	}})

	r := New(WithServers([]string{addr}))

	for _, d := range []string{"a.test", "b.test"} {
		_, err := r.Resolve(context.Background(), d)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, r.CacheLen())

	r.Forget("a.test")
	assert.Nil(t, r.Cached("a.test"))
	assert.NotNil(t, r.Cached("b.test"))
	assert.Equal(t, 1, r.CacheLen())

	r.Forget("missing.test")
	assert.Equal(t, 1, r.CacheLen())
}

func TestResolveWWWFallback(t *testing.T) {
	addr := startTestDNSServer(t, &zoneHandler{records: map[string]string{
		"www.example.test.": "192.0.2.20",
	}})

	r := New(WithServers([]string{addr}))

	res, err := r.Resolve(context.Background(), "example.test")
	require.NoError(t, err)
	assert.Equal(t, "www.example.test", res.Host)
	assert.True(t, res.Fallback)
	assert.Nil(t, r.Cached("example.test"))
	assert.NotNil(t, r.Cached("www.example.test"))
}

func TestResolveFallbackDisabled(t *testing.T) {
	handler := &zoneHandler{records: map[string]string{
		"www.example.test.": "192.0.2.20",
	}}
	addr := startTestDNSServer(t, handler)

	r := New(WithServers([]string{addr}), WithWWWFallback(false))

	_, err := r.Resolve(context.Background(), "example.test")
	require.ErrorIs(t, err, ErrResolution)
	require.ErrorIs(t, err, ErrNXDomain)
	assert.Equal(t, "nxdomain", Kind(err))
}

func TestResolveBothFail(t *testing.T) {
	addr := startTestDNSServer(t, &zoneHandler{records: map[string]string{}})

	r := New(WithServers([]string{addr}))

	_, err := r.Resolve(context.Background(), "example.invalid")
	require.Error(t, err)

	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, []string{"example.invalid", "www.example.invalid"}, resErr.Attempts)
	assert.ErrorIs(t, err, ErrResolution)
}

func TestResolveSkipsFallbackForWWW(t *testing.T) {
	r := New()
	assert.Equal(t, []string{"www.example.test"}, r.candidates("www.example.test"))
	assert.Equal(t, []string{"example.test", "www.example.test"}, r.candidates("example.test"))
}

func TestResolveTimeoutPerAttempt(t *testing.T) {
	r := New(WithTimeout(20 * time.Millisecond))

	var attempts atomic.Int32

	r.lookup = func(ctx context.Context, _ string) ([]net.IP, error) {
		attempts.Add(1)
		<-ctx.Done()

		return nil, ctx.Err()
	}

	start := time.Now()
	_, err := r.Resolve(context.Background(), "slow.test")
	elapsed := time.Since(start)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "timeout", Kind(err))
	assert.Equal(t, int32(2), attempts.Load())
	assert.Less(t, elapsed, time.Second)
}

func TestWithServersAddsPort(t *testing.T) {
	r := New(WithServers([]string{"9.9.9.9", " ", "1.1.1.1:5353"}))
	assert.Equal(t, []string{"9.9.9.9:53", "1.1.1.1:5353"}, r.servers)
}

func TestCacheExpiry(t *testing.T) {
	c := newDNSCache(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.put("a.test", []net.IP{net.ParseIP("192.0.2.1")})
	require.NotNil(t, c.get("a.test"))

	now = now.Add(2 * time.Minute)
	assert.Nil(t, c.get("a.test"))
	assert.Equal(t, 1, c.sweep())
	assert.Equal(t, 0, c.sweep())
}

func TestCachedReturnsCopy(t *testing.T) {
	c := newDNSCache(time.Minute)
	c.put("a.test", []net.IP{net.ParseIP("192.0.2.1").To4()})

	got := c.get("a.test")
	got[0][3] = 99

	assert.Equal(t, "192.0.2.1", c.get("a.test")[0].String())
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", Kind(nil))
	assert.Equal(t, "servfail", Kind(ErrServFail))
	assert.Equal(t, "no_addresses", Kind(ErrNoAddresses))
	assert.Equal(t, "nxdomain", Kind(&net.DNSError{Err: "no such host", IsNotFound: true}))
	assert.Equal(t, "timeout", Kind(&net.DNSError{Err: "i/o timeout", IsTimeout: true}))
	assert.Equal(t, "lookup_error", Kind(errors.New("boom")))
}
