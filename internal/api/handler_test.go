package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/theopenlane/mcpscout/internal/remote"
	"github.com/theopenlane/mcpscout/internal/scanner"
	"github.com/theopenlane/mcpscout/internal/types"
)

// MockScanner implements the scanner interface for testing
type MockScanner struct {
	lastBatch  scanner.Batch
	lastDomain string
}

func (m *MockScanner) ScanDomain(_ context.Context, batch scanner.Batch, d string) types.ScanRecord {
	m.lastBatch = batch
	m.lastDomain = d

	return types.ScanRecord{
		RunTS:       types.FormatRunTS(batch.RunTS),
		SeedSource:  batch.SeedSource,
		Domain:      d,
		URL:         "https://" + d + "/.well-known/mcp.json",
		Status:      http.StatusOK,
		HasManifest: true,
	}
}

// MockProber implements the prober interface for testing
type MockProber struct {
	lastTask remote.Task
}

func (m *MockProber) Probe(_ context.Context, task remote.Task) types.RemoteProbeRecord {
	m.lastTask = task

	return types.RemoteProbeRecord{
		RunTS:      task.RunTS,
		Domain:     task.Domain,
		Endpoint:   task.Endpoint,
		Transport:  types.TransportHTTPJSONRPC,
		StatusHTTP: http.StatusUnauthorized,
		Calls:      []string{remote.MethodToolsList},
	}
}

func newTestRouter() (http.Handler, *MockScanner, *MockProber) {
	s := &MockScanner{}
	p := &MockProber{}

	return NewRouter(s, p, 1024, 60*time.Second), s, p
}

func TestHandleHealth(t *testing.T) {
	handler, _, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "healthy" || resp.Service != "mcpscout" {
		t.Errorf("Unexpected health response %+v", resp)
	}
}

func TestHandleScan(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantSeed   string
		wantCode   string
	}{
		{
			name:       "valid domain",
			body:       `{"domain":"example.com"}`,
			wantStatus: http.StatusOK,
			wantSeed:   "api",
		},
		{
			name:       "seed source passed through",
			body:       `{"domain":"example.com","seed_source":"manual"}`,
			wantStatus: http.StatusOK,
			wantSeed:   "manual",
		},
		{
			name:       "missing domain",
			body:       `{"domain":"  "}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   errCodeValidation,
		},
		{
			name:       "unknown field",
			body:       `{"email":"user@example.com"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   errCodeInvalidRequest,
		},
		{
			name:       "trailing object",
			body:       `{"domain":"example.com"}{"domain":"example.org"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   errCodeInvalidRequest,
		},
		{
			name:       "not json",
			body:       `domain=example.com`,
			wantStatus: http.StatusBadRequest,
			wantCode:   errCodeInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, s, _ := newTestRouter()

			req := httptest.NewRequest(http.MethodPost, "/api/scan", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}

			var resp ScanResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}

			if tt.wantCode != "" {
				if resp.Success || resp.Error == nil || resp.Error.Code != tt.wantCode {
					t.Errorf("Expected error code %s, got %+v", tt.wantCode, resp.Error)
				}

				return
			}

			if !resp.Success || resp.Data == nil {
				t.Fatalf("Expected successful response, got %+v", resp)
			}

			if resp.Data.SeedSource != tt.wantSeed || s.lastBatch.SeedSource != tt.wantSeed {
				t.Errorf("Expected seed source %s, got %s", tt.wantSeed, resp.Data.SeedSource)
			}

			if s.lastDomain != "example.com" {
				t.Errorf("Expected scanner to receive example.com, got %s", s.lastDomain)
			}
		})
	}
}

func TestHandleScanBodyTooLarge(t *testing.T) {
	handler := NewRouter(&MockScanner{}, nil, 16, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/scan", bytes.NewBufferString(`{"domain":"a-very-long-domain-name.example.com"}`))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestHandleProbe(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantDomain string
	}{
		{
			name:       "domain defaults to endpoint host",
			body:       `{"endpoint":"https://MCP.Example.com/rpc"}`,
			wantStatus: http.StatusOK,
			wantDomain: "mcp.example.com",
		},
		{
			name:       "explicit domain",
			body:       `{"endpoint":"https://mcp.example.com/rpc","domain":"example.com"}`,
			wantStatus: http.StatusOK,
			wantDomain: "example.com",
		},
		{
			name:       "missing endpoint",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "relative endpoint",
			body:       `{"endpoint":"/rpc"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unsupported scheme",
			body:       `{"endpoint":"ws://mcp.example.com/rpc"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _, p := newTestRouter()

			req := httptest.NewRequest(http.MethodPost, "/api/probe", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}

			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp ProbeResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}

			if resp.Data == nil || resp.Data.Domain != tt.wantDomain {
				t.Errorf("Expected domain %s, got %+v", tt.wantDomain, resp.Data)
			}

			if p.lastTask.RunTS == "" {
				t.Error("Expected run_ts to be stamped on the task")
			}
		})
	}
}

func TestHandleProbeWithoutProber(t *testing.T) {
	handler := NewRouter(&MockScanner{}, nil, 1024, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/probe", bytes.NewBufferString(`{"endpoint":"https://mcp.example.com"}`))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}
