package classify

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theopenlane/mcpscout/internal/types"
)

func TestClassify(t *testing.T) {
	c := MustDefault()

	testCases := []struct {
		name      string
		manifest  string
		status    int
		scheme    string
		wantAuth  types.AuthHint
		wantFlags []types.ExposureFlag
	}{
		{
			name:      "endpoint only over https",
			manifest:  `{"endpoint":"https://x.example/rpc"}`,
			status:    200,
			scheme:    "https",
			wantAuth:  types.AuthNone,
			wantFlags: []types.ExposureFlag{types.FlagAnonymousAccess},
		},
		{
			name:      "oauth declared",
			manifest:  `{"auth":{"type":"OAuth2","authorization_url":"https://x.example/authorize"}}`,
			status:    200,
			scheme:    "https",
			wantAuth:  types.AuthOAuth2,
			wantFlags: []types.ExposureFlag{types.FlagAnonymousAccess},
		},
		{
			name:      "api key under authentication",
			manifest:  `{"authentication":{"scheme":"bearer token"}}`,
			status:    200,
			scheme:    "https",
			wantAuth:  types.AuthAPIKey,
			wantFlags: []types.ExposureFlag{types.FlagAnonymousAccess},
		},
		{
			name:      "unrecognised auth",
			manifest:  `{"auth":"mutual-tls"}`,
			status:    200,
			scheme:    "https",
			wantAuth:  types.AuthUnknown,
			wantFlags: []types.ExposureFlag{types.FlagAnonymousAccess},
		},
		{
			name:     "dangerous tools over http",
			manifest: `{"tools":[{"name":"run_shell"},{"name":"list_items"}]}`,
			status:   200,
			scheme:   "http",
			wantAuth: types.AuthNone,
			wantFlags: []types.ExposureFlag{
				types.FlagAnonymousAccess,
				types.FlagDangerousTools,
				types.FlagNoTLS,
			},
		},
		{
			name:      "array manifest",
			manifest:  `[{"name":"server"}]`,
			status:    200,
			scheme:    "https",
			wantAuth:  types.AuthNone,
			wantFlags: []types.ExposureFlag{types.FlagAnonymousAccess},
		},
		{
			name:     "no manifest over https",
			status:   404,
			scheme:   "https",
			wantAuth: types.AuthUnknown,
		},
		{
			name:      "no manifest over http",
			status:    200,
			scheme:    "http",
			wantAuth:  types.AuthUnknown,
			wantFlags: []types.ExposureFlag{types.FlagNoTLS},
		},
		{
			name:     "no response",
			status:   0,
			wantAuth: types.AuthUnknown,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var manifest json.RawMessage
			if tc.manifest != "" {
				manifest = json.RawMessage(tc.manifest)
			}

			auth, flags := c.Classify(manifest, tc.status, tc.scheme)
			assert.Equal(t, tc.wantAuth, auth)
			assert.Equal(t, tc.wantFlags, flags)

			if tc.wantFlags == nil {
				assert.Nil(t, flags, "flags must be absent rather than empty")
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := MustDefault()
	manifest := json.RawMessage(`{"tools":["git_push","read"],"auth":{"api_key":"header"}}`)

	auth1, flags1 := c.Classify(manifest, 200, "http")
	for range 10 {
		auth, flags := c.Classify(manifest, 200, "http")
		assert.Equal(t, auth1, auth)
		assert.Equal(t, flags1, flags)
	}
}

func TestDangerousNames(t *testing.T) {
	c := MustDefault()

	names, total := c.DangerousNames([]string{"file.write", "list_items"}, DefaultDangerousNameLimit)
	assert.Equal(t, []string{"file.write"}, names)
	assert.Equal(t, 1, total)

	names, total = c.DangerousNames([]string{"Docker_Run", "ssh-exec", "search", "overwrite"}, DefaultDangerousNameLimit)
	assert.Equal(t, []string{"Docker_Run", "ssh-exec"}, names)
	assert.Equal(t, 2, total)
}

func TestDangerousNamesLimit(t *testing.T) {
	c := MustDefault()

	var input []string
	for range 30 {
		input = append(input, "exec_cmd")
	}

	names, total := c.DangerousNames(input, DefaultDangerousNameLimit)
	assert.Len(t, names, DefaultDangerousNameLimit)
	assert.Equal(t, 30, total)
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: test-1\ndangerous_patterns:\n  - '\\bdrop\\b'\n"), 0o600))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, "test-1", rules.Version)

	c, err := New(rules)
	require.NoError(t, err)
	assert.Equal(t, "test-1", c.Version())

	names, _ := c.DangerousNames([]string{"drop table", "file.write"}, 0)
	assert.Equal(t, []string{"drop table"}, names)
}

func TestNewRejectsBadRules(t *testing.T) {
	_, err := New(Rules{Version: "empty"})
	require.ErrorIs(t, err, ErrEmptyRuleSet)

	_, err = New(Rules{DangerousPatterns: []string{"(unclosed"}})
	require.ErrorIs(t, err, ErrInvalidPattern)
}

func TestLoadRulesMissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, ErrLoadRules)
}
