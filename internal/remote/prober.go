// Package remote probes the endpoints advertised by discovered manifests with a
// fixed, read-only JSON-RPC sequence and records their posture.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/theopenlane/mcpscout/internal/classify"
	"github.com/theopenlane/mcpscout/internal/sink"
	"github.com/theopenlane/mcpscout/internal/types"
)

// Methods issued by the probe sequence, in order
const (
	MethodToolsList     = "tools/list"
	MethodPromptsList   = "prompts/list"
	MethodResourcesList = "resources/list"
)

// Summary holds aggregate counts for a finished probe batch
type Summary struct {
	Endpoints          int           `json:"endpoints"`
	RPCOK              int           `json:"rpc_ok"`
	Anonymous          int           `json:"accepts_anonymous"`
	AuthRequired       int           `json:"auth_required"`
	DangerousEndpoints int           `json:"dangerous_endpoints"`
	TransportErrors    int           `json:"transport_errors"`
	Written            int           `json:"written"`
	Flushes            int           `json:"flushes"`
	Elapsed            time.Duration `json:"elapsed"`
}

// add folds one record into the summary
func (s *Summary) add(rec types.RemoteProbeRecord) {
	s.Endpoints++

	if rec.RPCOK {
		s.RPCOK++
	}

	if rec.AcceptsAnonymous {
		s.Anonymous++
	}

	if rec.DangerousToolsCount != nil && *rec.DangerousToolsCount > 0 {
		s.DangerousEndpoints++
	}

	switch {
	case rec.StatusHTTP == 0:
		s.TransportErrors++
	case !rec.AcceptsAnonymous && isAuthStatus(rec):
		s.AuthRequired++
	}
}

// isAuthStatus reports whether a finished record shows an authentication refusal
func isAuthStatus(rec types.RemoteProbeRecord) bool {
	r := reply{Status: rec.StatusHTTP, Err: rec.RPCError}

	return r.authRefused()
}

// Prober runs the remote capability probe
type Prober struct {
	options    *Options
	client     *http.Client
	classifier *classify.Classifier
	now        func() time.Time
}

// NewProber creates a prober sharing the classifier's dangerous tool rules
func NewProber(c *classify.Classifier, opts ...Option) *Prober {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	if c == nil {
		c = classify.MustDefault()
	}

	client := options.HTTPClient
	if client == nil {
		client = cleanhttp.DefaultPooledClient()
		client.Transport.(*http.Transport).MaxIdleConnsPerHost = options.Concurrency
	}

	return &Prober{
		options:    options,
		client:     client,
		classifier: c,
		now:        time.Now,
	}
}

// Probe runs the JSON-RPC sequence against one endpoint. It never returns an
// error; failures are recorded on the returned record.
func (p *Prober) Probe(ctx context.Context, t Task) types.RemoteProbeRecord {
	rec := types.RemoteProbeRecord{
		RunTS:     t.RunTS,
		Domain:    t.Domain,
		Endpoint:  t.Endpoint,
		Transport: types.TransportHTTPJSONRPC,
	}

	if rec.RunTS == "" {
		rec.RunTS = types.FormatRunTS(p.now())
	}

	first := p.call(ctx, t.Endpoint, MethodToolsList, 1)
	rec.Calls = append(rec.Calls, MethodToolsList)
	rec.StatusHTTP = first.Status
	rec.RPCError = first.Err

	if !first.ok() {
		return rec
	}

	rec.RPCOK = true
	rec.AcceptsAnonymous = true

	if tools, ok := listMember(first.Result, "tools"); ok {
		matched, total := p.classifier.DangerousNames(toolNames(tools), p.options.DangerousNameLimit)

		rec.ToolsCount = lo.ToPtr(len(tools))
		rec.DangerousToolsCount = lo.ToPtr(total)
		rec.DangerousToolNames = matched
	}

	rec.PromptsCount = p.count(ctx, &rec, MethodPromptsList, 2, "prompts")
	rec.ResourcesCount = p.count(ctx, &rec, MethodResourcesList, 3, "resources")

	return rec
}

// count issues a follow-up list call and returns the array length when one came back
func (p *Prober) count(ctx context.Context, rec *types.RemoteProbeRecord, method string, id int, key string) *int {
	r := p.call(ctx, rec.Endpoint, method, id)
	rec.Calls = append(rec.Calls, method)

	if !r.ok() {
		return nil
	}

	n, ok := listLen(r.Result, key)
	if !ok {
		return nil
	}

	return &n
}

// Run probes every task and writes one record per task to out in chunks.
// Probes are detached from ctx cancellation so the batch always completes.
func (p *Prober) Run(ctx context.Context, tasks []Task, out sink.Sink[types.RemoteProbeRecord]) (Summary, error) {
	if out == nil {
		return Summary{}, ErrNilSink
	}

	start := time.Now()
	workCtx := context.WithoutCancel(ctx)

	results := make(chan types.RemoteProbeRecord, p.options.Concurrency)
	done := make(chan struct{})

	var summary Summary

	buf := sink.NewBuffer(out, p.options.FlushEvery)

	go func() {
		defer close(done)

		for rec := range results {
			summary.add(rec)

			flushes := buf.Flushes()
			buf.Add(workCtx, rec)

			if buf.Flushes() != flushes {
				log.Info().Int("completed", summary.Endpoints).Int("total", len(tasks)).Int("rpc_ok", summary.RPCOK).Msg("remote probe progress")
			}
		}

		buf.Flush(workCtx)
	}()

	log.Info().Int("endpoints", len(tasks)).Int("concurrency", p.options.Concurrency).Msg("starting remote probe batch")

	var g errgroup.Group

	g.SetLimit(p.options.Concurrency)

	for _, t := range tasks {
		g.Go(func() error {
			results <- p.Probe(workCtx, t)
			return nil
		})
	}

	_ = g.Wait()

	close(results)
	<-done

	summary.Written = buf.Written()
	summary.Flushes = buf.Flushes()
	summary.Elapsed = time.Since(start)

	log.Info().Int("endpoints", summary.Endpoints).Int("rpc_ok", summary.RPCOK).
		Int("accepts_anonymous", summary.Anonymous).Int("auth_required", summary.AuthRequired).
		Int("dangerous_endpoints", summary.DangerousEndpoints).Int("transport_errors", summary.TransportErrors).
		Int("written", summary.Written).Dur("elapsed", summary.Elapsed).Msg("remote probe batch complete")

	if err := buf.Err(); err != nil {
		return summary, fmt.Errorf("%w: %w", ErrFlush, err)
	}

	return summary, nil
}
