// Package api serves ad-hoc single-domain scans and single-endpoint probes over HTTP
package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/theopenlane/mcpscout/internal/domain"
	"github.com/theopenlane/mcpscout/internal/remote"
	"github.com/theopenlane/mcpscout/internal/scanner"
	"github.com/theopenlane/mcpscout/internal/types"
)

// defaultSeedSource tags records produced through the API
const defaultSeedSource = "api"

// Prober probes a single remote endpoint
type Prober interface {
	Probe(ctx context.Context, t remote.Task) types.RemoteProbeRecord
}

// Handler manages API endpoints
type Handler struct {
	scanner     scanner.Interface
	prober      Prober
	maxBodySize int64
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   "mcpscout",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// ScanRequest represents a single-domain scan request
type ScanRequest struct {
	// Domain is the bare domain to probe
	Domain string `json:"domain"`
	// SeedSource tags the record; defaults to "api"
	SeedSource string `json:"seed_source,omitempty"`
}

// ScanResponse represents the scan response
type ScanResponse struct {
	Success bool              `json:"success"`
	Data    *types.ScanRecord `json:"data,omitempty"`
	Error   *Error            `json:"error,omitempty"`
}

// handleScan scans one domain. Invalid domains still produce a record, the
// same way they do in a batch.
func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	r.Body = limitBody(w, r, h.maxBodySize)

	var req ScanRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ScanResponse{Error: &Error{Code: errCodeInvalidRequest, Message: ErrInvalidRequestBody.Error()}})
		return
	}

	if domain.Normalize(req.Domain) == "" {
		writeJSON(w, http.StatusBadRequest, ScanResponse{Error: &Error{Code: errCodeValidation, Message: ErrDomainRequired.Error()}})
		return
	}

	seed := req.SeedSource
	if seed == "" {
		seed = defaultSeedSource
	}

	rec := h.scanner.ScanDomain(r.Context(), scanner.Batch{RunTS: time.Now(), SeedSource: seed}, req.Domain)

	writeJSON(w, http.StatusOK, ScanResponse{Success: true, Data: &rec})
}

// ProbeRequest represents a single-endpoint probe request
type ProbeRequest struct {
	// Endpoint is the absolute http(s) URL to probe
	Endpoint string `json:"endpoint"`
	// Domain is recorded on the result; defaults to the endpoint host
	Domain string `json:"domain,omitempty"`
}

// ProbeResponse represents the probe response
type ProbeResponse struct {
	Success bool                     `json:"success"`
	Data    *types.RemoteProbeRecord `json:"data,omitempty"`
	Error   *Error                   `json:"error,omitempty"`
}

func (h *Handler) handleProbe(w http.ResponseWriter, r *http.Request) {
	if h.prober == nil {
		writeJSON(w, http.StatusServiceUnavailable, ProbeResponse{Error: &Error{Code: errCodeUnavailable, Message: ErrProberNotConfigured.Error()}})
		return
	}

	r.Body = limitBody(w, r, h.maxBodySize)

	var req ProbeRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ProbeResponse{Error: &Error{Code: errCodeInvalidRequest, Message: ErrInvalidRequestBody.Error()}})
		return
	}

	if req.Endpoint == "" {
		writeJSON(w, http.StatusBadRequest, ProbeResponse{Error: &Error{Code: errCodeValidation, Message: ErrEndpointRequired.Error()}})
		return
	}

	u, err := url.Parse(req.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		writeJSON(w, http.StatusBadRequest, ProbeResponse{Error: &Error{Code: errCodeValidation, Message: ErrInvalidEndpoint.Error()}})
		return
	}

	d := domain.Normalize(req.Domain)
	if d == "" {
		d = domain.Normalize(u.Hostname())
	}

	rec := h.prober.Probe(r.Context(), remote.Task{
		RunTS:    types.FormatRunTS(time.Now()),
		Domain:   d,
		Endpoint: req.Endpoint,
	})

	writeJSON(w, http.StatusOK, ProbeResponse{Success: true, Data: &rec})
}
