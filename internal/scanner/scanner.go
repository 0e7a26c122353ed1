// Package scanner drives domain lists through resolution, manifest fetch and
// classification, emitting exactly one ScanRecord per domain.
package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/semaphore"

	"github.com/theopenlane/mcpscout/internal/classify"
	"github.com/theopenlane/mcpscout/internal/domain"
	"github.com/theopenlane/mcpscout/internal/fetcher"
	"github.com/theopenlane/mcpscout/internal/resolver"
	"github.com/theopenlane/mcpscout/internal/sink"
	"github.com/theopenlane/mcpscout/internal/types"
)

// Note prefixes recorded for failed domains
const (
	NoteInvalidDomain = "invalid_domain: "
	NoteDNSError      = "dns_error: "
	NoteWWWFallback   = "www_fallback"
)

// Batch identifies one scan run
type Batch struct {
	// RunTS is the batch timestamp stamped on every record
	RunTS time.Time
	// SeedSource tags where the domain list came from
	SeedSource string
}

// Summary holds aggregate counts for a finished batch. It carries no identifiers.
type Summary struct {
	Domains        int           `json:"domains"`
	Manifests      int           `json:"manifests"`
	Anonymous      int           `json:"anonymous_access"`
	DangerousTools int           `json:"dangerous_tools"`
	NoTLS          int           `json:"no_tls"`
	InvalidDomains int           `json:"invalid_domains"`
	DNSErrors      int           `json:"dns_errors"`
	FetchErrors    int           `json:"fetch_errors"`
	Written        int           `json:"written"`
	Flushes        int           `json:"flushes"`
	Elapsed        time.Duration `json:"elapsed"`
}

// add folds one record into the summary
func (s *Summary) add(rec types.ScanRecord) {
	s.Domains++

	if rec.HasManifest {
		s.Manifests++
	}

	for _, flag := range rec.ExposureFlags {
		switch flag {
		case types.FlagAnonymousAccess:
			s.Anonymous++
		case types.FlagDangerousTools:
			s.DangerousTools++
		case types.FlagNoTLS:
			s.NoTLS++
		}
	}

	switch {
	case hasNotePrefix(rec.Notes, NoteInvalidDomain):
		s.InvalidDomains++
	case hasNotePrefix(rec.Notes, NoteDNSError):
		s.DNSErrors++
	case rec.Status == 0:
		s.FetchErrors++
	}
}

// hasNotePrefix reports whether any note starts with prefix
func hasNotePrefix(notes []string, prefix string) bool {
	return lo.ContainsBy(notes, func(n string) bool {
		return strings.HasPrefix(n, prefix)
	})
}

// Scanner is the scan orchestrator
type Scanner struct {
	// options holds the configuration for scan behavior
	options    *ScanOptions
	resolver   HostResolver
	fetcher    ManifestFetcher
	classifier *classify.Classifier
}

// New creates a new scanner with the given stages and options
func New(res HostResolver, f ManifestFetcher, c *classify.Classifier, opts ...ScanOption) (*Scanner, error) {
	if res == nil || f == nil || c == nil {
		return nil, ErrMissingDependency
	}

	options := DefaultScanOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &Scanner{
		options:    options,
		resolver:   res,
		fetcher:    f,
		classifier: c,
	}, nil
}

// gates are the admission semaphores of one batch
type gates struct {
	resolve *semaphore.Weighted
	fetch   *semaphore.Weighted
}

// Run scans every domain and writes one record per domain to out in chunks.
// Per-domain work is detached from ctx cancellation so the batch always
// completes; only per-operation timeouts bound it. The returned error reports
// flush failures and is set only after every domain has been processed.
func (s *Scanner) Run(ctx context.Context, batch Batch, domains []string, out sink.Sink[types.ScanRecord]) (Summary, error) {
	if out == nil {
		return Summary{}, ErrNilSink
	}

	start := time.Now()
	workCtx := context.WithoutCancel(ctx)

	g := &gates{
		resolve: semaphore.NewWeighted(int64(s.options.ResolveConcurrency)),
		fetch:   semaphore.NewWeighted(int64(s.options.FetchConcurrency)),
	}

	// bounds goroutines so a large list never spawns one per domain up front
	inflight := semaphore.NewWeighted(int64(s.options.ResolveConcurrency + s.options.FetchConcurrency))

	results := make(chan types.ScanRecord, s.options.FetchConcurrency)
	done := make(chan struct{})

	var summary Summary

	buf := sink.NewBuffer(out, s.options.FlushEvery)

	go func() {
		defer close(done)

		for rec := range results {
			summary.add(rec)

			flushes := buf.Flushes()
			buf.Add(workCtx, rec)

			if buf.Flushes() != flushes {
				log.Info().Int("completed", summary.Domains).Int("total", len(domains)).Int("manifests", summary.Manifests).Msg("scan progress")
			}
		}

		buf.Flush(workCtx)
	}()

	log.Info().Int("domains", len(domains)).Str("seed_source", batch.SeedSource).
		Int("resolve_concurrency", s.options.ResolveConcurrency).Int("fetch_concurrency", s.options.FetchConcurrency).
		Msg("starting scan batch")

	var wg sync.WaitGroup

	for _, d := range domains {
		// workCtx is never cancelled so Acquire only returns once a slot is free
		_ = inflight.Acquire(workCtx, 1)

		wg.Go(func() {
			defer inflight.Release(1)

			results <- s.scan(workCtx, batch, d, g)
		})
	}

	wg.Wait()
	close(results)
	<-done

	summary.Written = buf.Written()
	summary.Flushes = buf.Flushes()
	summary.Elapsed = time.Since(start)

	if sw, ok := s.resolver.(interface{ Sweep() int }); ok {
		sw.Sweep()
	}

	log.Info().Int("domains", summary.Domains).Int("manifests", summary.Manifests).
		Int("anonymous_access", summary.Anonymous).Int("dangerous_tools", summary.DangerousTools).
		Int("dns_errors", summary.DNSErrors).Int("fetch_errors", summary.FetchErrors).
		Int("written", summary.Written).Dur("elapsed", summary.Elapsed).Msg("scan batch complete")

	if err := buf.Err(); err != nil {
		return summary, fmt.Errorf("%w: %w", ErrFlush, err)
	}

	return summary, nil
}

// ScanDomain scans a single domain without admission gates
func (s *Scanner) ScanDomain(ctx context.Context, batch Batch, d string) types.ScanRecord {
	return s.scan(ctx, batch, d, nil)
}

// scan produces the record for one domain; every failure ends in a record
func (s *Scanner) scan(ctx context.Context, batch Batch, raw string, g *gates) types.ScanRecord {
	rec := types.ScanRecord{
		RunTS:      types.FormatRunTS(batch.RunTS),
		SeedSource: batch.SeedSource,
		Domain:     domain.Normalize(raw),
		TLSGrade:   lo.ToPtr(types.TLSGradeF),
	}

	if _, err := domain.Parse(rec.Domain); err != nil {
		rec.AddNote(NoteInvalidDomain + err.Error())
		return rec
	}

	res, err := s.resolve(ctx, rec.Domain, g)
	if err != nil {
		log.Debug().Str("domain", rec.Domain).Err(err).Msg("resolution failed")
		rec.URL = attemptedURL(rec.Domain)
		rec.AddNote(NoteDNSError + resolver.Kind(err))

		return rec
	}

	if res.Fallback {
		rec.AddNote(NoteWWWFallback)
	}

	result := s.fetch(ctx, res.Host, g)

	// cached addresses are only needed while this host's fetch dials
	if hf, ok := s.resolver.(hostForgetter); ok {
		hf.Forget(res.Host)
	}

	s.fill(&rec, result)

	return rec
}

// attemptedURL is the first manifest location a resolvable domain would have been fetched from
func attemptedURL(d string) string {
	return "https://" + d + fetcher.WellKnownPaths[0]
}

// resolve runs the resolver under the resolution gate
func (s *Scanner) resolve(ctx context.Context, d string, g *gates) (*resolver.Resolution, error) {
	if g != nil {
		if err := g.resolve.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer g.resolve.Release(1)
	}

	return s.resolver.Resolve(ctx, d)
}

// fetch runs the fetcher under the fetch gate
func (s *Scanner) fetch(ctx context.Context, host string, g *gates) *fetcher.Result {
	if g != nil {
		if err := g.fetch.Acquire(ctx, 1); err != nil {
			return &fetcher.Result{Err: err, Notes: []string{"fetch_error: " + fetcher.ErrorKind(err)}}
		}
		defer g.fetch.Release(1)
	}

	return s.fetcher.Fetch(ctx, host)
}

// fill copies a fetch outcome and its classification onto the record
func (s *Scanner) fill(rec *types.ScanRecord, result *fetcher.Result) {
	rec.URL = result.URL
	rec.Status = result.Status

	for _, note := range result.Notes {
		rec.AddNote(note)
	}

	if !result.Responded() {
		return
	}

	sum := sha256.Sum256(result.Body)

	rec.Bytes = lo.ToPtr(len(result.Body))
	rec.SHA256 = lo.ToPtr(hex.EncodeToString(sum[:]))
	rec.TTFBMillis = lo.ToPtr(result.TTFB.Milliseconds())
	rec.TotalMillis = lo.ToPtr(result.Total.Milliseconds())

	if etag := result.Header.Get("ETag"); etag != "" {
		rec.ETag = lo.ToPtr(etag)
	}

	if lm := result.Header.Get("Last-Modified"); lm != "" {
		rec.LastModified = lo.ToPtr(lm)
	}

	rec.TLSGrade = lo.ToPtr(classify.TLSGrade(result.Scheme == "https"))

	if result.Manifest != nil {
		rec.HasManifest = true
		rec.ManifestSample = result.Manifest
	}

	auth, flags := s.classifier.Classify(result.Manifest, result.Status, result.Scheme)
	rec.Auth = lo.ToPtr(auth)
	rec.ExposureFlags = flags
}
