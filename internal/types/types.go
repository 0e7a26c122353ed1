package types

import (
	"encoding/json"
	"time"
)

// TimestampFormat is the layout used for run_ts values
const TimestampFormat = "2006-01-02T15:04:05Z"

// TransportHTTPJSONRPC is the only transport the remote prober speaks
const TransportHTTPJSONRPC = "http-jsonrpc"

// AuthHint is the coarse authentication scheme inferred from a manifest
type AuthHint string

const (
	// AuthNone means the manifest declares no authentication
	AuthNone AuthHint = "none"
	// AuthAPIKey means the manifest mentions an api key or token
	AuthAPIKey AuthHint = "api_key"
	// AuthOAuth2 means the manifest mentions oauth
	AuthOAuth2 AuthHint = "oauth2"
	// AuthUnknown means no manifest or an unrecognised auth declaration
	AuthUnknown AuthHint = "unknown"
)

// ExposureFlag is a coarse risk label attached to a scan record
type ExposureFlag string

const (
	// FlagAnonymousAccess marks a manifest served with status 200 and no auth challenge
	FlagAnonymousAccess ExposureFlag = "anonymous_access"
	// FlagDangerousTools marks a manifest whose tools match a dangerous keyword
	FlagDangerousTools ExposureFlag = "dangerous_tools"
	// FlagNoTLS marks a response obtained over plain http
	FlagNoTLS ExposureFlag = "no_tls"
)

const (
	// TLSGradeA is recorded when the response was served over https
	TLSGradeA = "A"
	// TLSGradeF is recorded otherwise
	TLSGradeF = "F"
)

// FormatRunTS renders a batch timestamp in UTC
func FormatRunTS(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// ScanRecord is the observation emitted once per input domain
type ScanRecord struct {
	RunTS          string          `json:"run_ts"`
	SeedSource     string          `json:"seed_source"`
	Domain         string          `json:"domain"`
	URL            string          `json:"url"`
	Status         int             `json:"status"`
	HasManifest    bool            `json:"has_manifest"`
	Bytes          *int            `json:"bytes"`
	ETag           *string         `json:"etag"`
	LastModified   *string         `json:"last_modified"`
	SHA256         *string         `json:"sha256"`
	Auth           *AuthHint       `json:"auth"`
	TLSGrade       *string         `json:"tls_grade"`
	ExposureFlags  []ExposureFlag  `json:"exposure_flags,omitempty"`
	ManifestSample json.RawMessage `json:"manifest_sample,omitempty"`
	TTFBMillis     *int64          `json:"ttfb_ms"`
	TotalMillis    *int64          `json:"total_ms"`
	Notes          []string        `json:"notes,omitempty"`
}

// AddNote appends a note, creating the slice on first use
func (r *ScanRecord) AddNote(note string) {
	r.Notes = append(r.Notes, note)
}

// RPCError is the code and message of a failed JSON-RPC exchange
type RPCError struct {
	Code    *int   `json:"code"`
	Message string `json:"message"`
}

// RemoteProbeRecord is the posture observation for one remote endpoint
type RemoteProbeRecord struct {
	RunTS               string    `json:"run_ts"`
	Domain              string    `json:"domain"`
	Endpoint            string    `json:"endpoint"`
	Transport           string    `json:"transport"`
	StatusHTTP          int       `json:"status_http"`
	AcceptsAnonymous    bool      `json:"accepts_anonymous"`
	RPCOK               bool      `json:"rpc_ok"`
	ToolsCount          *int      `json:"tools_count"`
	DangerousToolsCount *int      `json:"dangerous_tools_count"`
	DangerousToolNames  []string  `json:"dangerous_tool_names,omitempty"`
	PromptsCount        *int      `json:"prompts_count"`
	ResourcesCount      *int      `json:"resources_count"`
	RPCError            *RPCError `json:"rpc_error"`
	Calls               []string  `json:"calls"`
}

