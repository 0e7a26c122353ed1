package classify

import (
	"bytes"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/theopenlane/mcpscout/internal/types"
)

// DefaultDangerousNameLimit caps recorded dangerous tool names
const DefaultDangerousNameLimit = 20

// authFields are the manifest members inspected for an auth declaration, in order
var authFields = []string{"auth", "authentication"}

// authRule maps a substring of the lowercased auth declaration to a hint; first match wins
type authRule struct {
	hint     types.AuthHint
	keywords []string
}

// authRules is the ordered list of auth hint rules
var authRules = []authRule{
	{hint: types.AuthOAuth2, keywords: []string{"oauth"}},
	{hint: types.AuthAPIKey, keywords: []string{"api", "token"}},
}

// Classifier derives auth hints and exposure flags from fetched manifests.
// It holds only the compiled rule set and is safe for concurrent use.
type Classifier struct {
	rules     Rules
	dangerous *regexp.Regexp
}

// New compiles a rule set into a Classifier
func New(rules Rules) (*Classifier, error) {
	re, err := rules.compile()
	if err != nil {
		return nil, err
	}

	return &Classifier{rules: rules, dangerous: re}, nil
}

// MustDefault returns a Classifier over the built-in rules
func MustDefault() *Classifier {
	c, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}

	return c
}

// Version reports the version of the compiled rule set
func (c *Classifier) Version() string {
	return c.rules.Version
}

// Classify returns the auth hint and exposure flags for a fetch outcome.
// A nil manifest means none was obtained. Flags are nil when none apply.
func (c *Classifier) Classify(manifest json.RawMessage, status int, scheme string) (types.AuthHint, []types.ExposureFlag) {
	var flags []types.ExposureFlag

	obj, hasManifest := decodeManifest(manifest)

	if status == http.StatusOK && hasManifest {
		flags = append(flags, types.FlagAnonymousAccess)
	}

	if hasManifest && c.toolsLookDangerous(obj) {
		flags = append(flags, types.FlagDangerousTools)
	}

	if scheme != "" && scheme != "https" {
		flags = append(flags, types.FlagNoTLS)
	}

	if !hasManifest {
		return types.AuthUnknown, flags
	}

	return authHint(obj), flags
}

// DangerousNames returns up to limit names matching the dangerous pattern, in input order,
// together with the total number of matches
func (c *Classifier) DangerousNames(names []string, limit int) ([]string, int) {
	var matched []string

	total := 0

	for _, name := range names {
		if !c.dangerous.MatchString(name) {
			continue
		}

		total++

		if limit <= 0 || len(matched) < limit {
			matched = append(matched, name)
		}
	}

	return matched, total
}

// toolsLookDangerous serializes the manifest's tools member and matches it against the pattern
func (c *Classifier) toolsLookDangerous(obj map[string]json.RawMessage) bool {
	tools, ok := obj["tools"]
	if !ok || isNull(tools) {
		return false
	}

	return c.dangerous.Match(tools)
}

// decodeManifest reports whether raw is a manifest and returns its members when it is an object
func decodeManifest(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false
	}

	switch trimmed[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, false
		}

		return obj, true
	case '[':
		return nil, json.Valid(trimmed)
	default:
		return nil, false
	}
}

// authHint inspects the auth declaration of a manifest object
func authHint(obj map[string]json.RawMessage) types.AuthHint {
	for _, field := range authFields {
		raw, ok := obj[field]
		if !ok || isNull(raw) {
			continue
		}

		text := strings.ToLower(string(raw))

		for _, rule := range authRules {
			if containsAny(text, rule.keywords) {
				return rule.hint
			}
		}

		return types.AuthUnknown
	}

	return types.AuthNone
}

// containsAny reports whether s contains any of the keywords
func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}

	return false
}

// isNull reports whether raw is the JSON null literal
func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// TLSGrade returns the placeholder grade for the scheme that produced a response
func TLSGrade(httpsResponded bool) string {
	if httpsResponded {
		return types.TLSGradeA
	}

	return types.TLSGradeF
}
