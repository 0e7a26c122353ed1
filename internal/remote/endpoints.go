package remote

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/theopenlane/mcpscout/internal/sink"
	"github.com/theopenlane/mcpscout/internal/types"
)

// remoteURLKeys are the members of a remotes entry that may carry an endpoint, in order
var remoteURLKeys = []string{"endpoint", "url", "url_direct"}

// Task is one (domain, endpoint) pair to probe
type Task struct {
	RunTS    string
	Domain   string
	Endpoint string
}

// manifestShape is the subset of a manifest that can advertise endpoints
type manifestShape struct {
	Endpoint  json.RawMessage   `json:"endpoint"`
	Endpoints []json.RawMessage `json:"endpoints"`
	Remotes   []json.RawMessage `json:"remotes"`
}

// ExtractEndpoints returns the endpoint URLs a manifest advertises, deduplicated
// in first-seen order. Only object manifests are inspected and only values
// starting with "http" are kept.
func ExtractEndpoints(manifest json.RawMessage) []string {
	var m manifestShape
	if err := json.Unmarshal(manifest, &m); err != nil {
		return nil
	}

	var eps []string

	if s, ok := asString(m.Endpoint); ok {
		eps = append(eps, s)
	}

	for _, raw := range m.Endpoints {
		if s, ok := asString(raw); ok {
			eps = append(eps, s)
		}
	}

	for _, raw := range m.Remotes {
		var entry map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}

		for _, key := range remoteURLKeys {
			if s, ok := asString(entry[key]); ok {
				eps = append(eps, s)
			}
		}
	}

	return lo.Uniq(lo.Filter(eps, func(e string, _ int) bool {
		return strings.HasPrefix(e, "http")
	}))
}

// asString decodes a non-empty JSON string
func asString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}

	return s, true
}

// TasksFromRecord returns the probe tasks for one scan record
func TasksFromRecord(rec types.ScanRecord) []Task {
	if rec.Status != http.StatusOK || !rec.HasManifest {
		return nil
	}

	return lo.Map(ExtractEndpoints(rec.ManifestSample), func(ep string, _ int) Task {
		return Task{RunTS: rec.RunTS, Domain: rec.Domain, Endpoint: ep}
	})
}

// BuildTasks returns the probe tasks for a set of scan records
func BuildTasks(records []types.ScanRecord) []Task {
	return lo.FlatMap(records, func(rec types.ScanRecord, _ int) []Task {
		return TasksFromRecord(rec)
	})
}

// LoadTasks reads scan records as JSONL and builds probe tasks, skipping malformed lines
func LoadTasks(r io.Reader) ([]Task, error) {
	var tasks []Task

	_, err := sink.ReadJSONL(r, func(rec types.ScanRecord) error {
		tasks = append(tasks, TasksFromRecord(rec)...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadTasks, err)
	}

	return tasks, nil
}

// LoadTasksFile opens a scan results file and builds probe tasks
func LoadTasksFile(path string) ([]Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadTasks, err)
	}
	defer f.Close() //nolint:errcheck

	return LoadTasks(f)
}
