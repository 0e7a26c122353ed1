// Package fetcher retrieves MCP discovery manifests from well-known paths with
// bounded, streamed HTTP requests.
package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// readChunk is the size of each body read
	readChunk = 32 * 1024
	// htmlSniffBytes is how much of the body is inspected for an HTML prefix
	htmlSniffBytes = 512
)

// Note values recorded on a Result
const (
	NoteHTMLBody         = "html_body"
	NoteNotJSON          = "not_json"
	NoteJSONParseError   = "json_parse_error"
	NoteNonContainerJSON = "non_container_json"
	NoteTruncated        = "truncated"
	NoteHTTPFallback     = "http_fallback"
)

// Result is the outcome of fetching a host's manifest
type Result struct {
	// URL is the final URL after redirects, or the attempted URL when no response arrived
	URL string
	// Scheme is the scheme of URL
	Scheme string
	// Status is the HTTP status, 0 when no response was obtained
	Status int
	// Header holds the response headers
	Header http.Header
	// Body holds at most MaxBodyBytes of the response body
	Body []byte
	// Truncated reports that the body hit the cap
	Truncated bool
	// Manifest is the compacted manifest JSON when one was found
	Manifest json.RawMessage
	// TTFB is the time until response headers arrived
	TTFB time.Duration
	// Total is the time until the body read finished
	Total time.Duration
	// Notes are ordered classification and failure notes
	Notes []string
	// Err is the transport error when Status is 0
	Err error
}

// Responded reports whether any HTTP response was obtained
func (r *Result) Responded() bool {
	return r.Status != 0
}

// Fetcher performs manifest fetches over a shared connection pool
type Fetcher struct {
	opts   *Options
	client *http.Client
}

// New creates a Fetcher
func New(opts ...Option) *Fetcher {
	o := DefaultOptions()

	for _, opt := range opts {
		opt(o)
	}

	client := o.HTTPClient
	if client == nil {
		client = &http.Client{Transport: newTransport(o)}
	}

	return &Fetcher{opts: o, client: client}
}

// Close releases idle pooled connections
func (f *Fetcher) Close() {
	f.client.CloseIdleConnections()
}

// Fetch probes each well-known path on host. The first path that yields a
// manifest wins; otherwise the first attempt with any response is returned,
// otherwise the last failure.
func (f *Fetcher) Fetch(ctx context.Context, host string) *Result {
	if host == "" {
		return &Result{Err: ErrEmptyHost, Notes: []string{"fetch_error: " + ErrEmptyHost.Error()}}
	}

	var firstResponse, last *Result

	for _, path := range f.opts.Paths {
		res := f.fetchPath(ctx, host, path)
		if res.Manifest != nil {
			return res
		}

		if firstResponse == nil && res.Responded() {
			firstResponse = res
		}

		last = res
	}

	if firstResponse != nil {
		return firstResponse
	}

	return last
}

// fetchPath tries HTTPS and falls back to HTTP only when HTTPS produced no response
func (f *Fetcher) fetchPath(ctx context.Context, host, path string) *Result {
	res := f.get(ctx, "https", host, path)
	if res.Responded() {
		return res
	}

	log.Debug().Str("host", host).Str("path", path).Str("kind", ErrorKind(res.Err)).Msg("https attempt failed, trying http")

	fallback := f.get(ctx, "http", host, path)
	fallback.Notes = append(append([]string{}, res.Notes...), append([]string{NoteHTTPFallback}, fallback.Notes...)...)

	return fallback
}

// get performs a single bounded GET
func (f *Fetcher) get(ctx context.Context, scheme, host, path string) *Result {
	target := scheme + "://" + host + path
	res := &Result{URL: target, Scheme: scheme}

	reqCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		res.Err = err
		res.Notes = append(res.Notes, "fetch_error: "+scheme+": invalid_request")

		return res
	}

	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", defaultAccept)

	start := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		res.Err = err
		res.Total = time.Since(start)
		res.Notes = append(res.Notes, "fetch_error: "+scheme+": "+ErrorKind(err))

		return res
	}
	defer resp.Body.Close() //nolint:errcheck

	res.TTFB = time.Since(start)
	res.Status = resp.StatusCode
	res.Header = resp.Header.Clone()

	if resp.Request != nil && resp.Request.URL != nil {
		res.URL = resp.Request.URL.String()
		res.Scheme = resp.Request.URL.Scheme
	}

	body, truncated, readErr := readCapped(resp.Body, f.opts.MaxBodyBytes)
	res.Total = time.Since(start)
	res.Body = body
	res.Truncated = truncated

	if truncated {
		res.Notes = append(res.Notes, NoteTruncated)
	}

	if readErr != nil {
		res.Notes = append(res.Notes, "body_error: "+ErrorKind(readErr))
	}

	manifest, note := sniff(resp.StatusCode, resp.Header.Get("Content-Type"), body)
	res.Manifest = manifest

	if note != "" {
		res.Notes = append(res.Notes, note)
	}

	return res
}

// readCapped streams r into memory, stopping once limit bytes are held.
// It reads one byte past the limit to tell a full body from a truncated one.
func readCapped(r io.Reader, limit int) ([]byte, bool, error) {
	buf := make([]byte, 0, min(limit, readChunk))
	chunk := make([]byte, readChunk)
	lr := io.LimitReader(r, int64(limit)+1)

	for {
		n, err := lr.Read(chunk)
		buf = append(buf, chunk[:n]...)

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return capBody(buf, limit), len(buf) > limit, err
		}
	}

	return capBody(buf, limit), len(buf) > limit, nil
}

// capBody trims buf to limit
func capBody(buf []byte, limit int) []byte {
	if len(buf) > limit {
		return buf[:limit]
	}

	return buf
}

// sniff decides whether a 200 body is a manifest. It returns the compacted
// JSON or a classification note explaining why the body was not accepted.
func sniff(status int, contentType string, body []byte) (json.RawMessage, string) {
	if status != http.StatusOK {
		return nil, ""
	}

	trimmed := bytes.TrimLeft(body, " \t\r\n\ufeff")

	if looksHTML(trimmed) {
		return nil, NoteHTMLBody
	}

	leading := byte(0)
	if len(trimmed) > 0 {
		leading = trimmed[0]
	}

	isContainer := leading == '{' || leading == '['

	if !strings.Contains(strings.ToLower(contentType), "json") && !isContainer {
		return nil, NoteNotJSON
	}

	if !json.Valid(trimmed) {
		return nil, NoteJSONParseError
	}

	if !isContainer {
		return nil, NoteNonContainerJSON
	}

	var out bytes.Buffer
	if err := json.Compact(&out, trimmed); err != nil {
		return nil, NoteJSONParseError
	}

	return out.Bytes(), ""
}

// looksHTML reports whether the start of a left-trimmed body is an HTML document
func looksHTML(trimmed []byte) bool {
	head := strings.ToLower(string(trimmed[:min(len(trimmed), htmlSniffBytes)]))

	return strings.HasPrefix(head, "<html") || strings.HasPrefix(head, "<!doctype html")
}
