package classify

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// DefaultRulesVersion identifies the built-in keyword list
const DefaultRulesVersion = "2025-09.1"

// defaultDangerousPatterns cover destructive, process, network and VCS operations
var defaultDangerousPatterns = []string{
	`\bwrite\b`,
	`\bdelete\b`,
	`\bremove\b`,
	`\bchmod\b`,
	`\bchown\b`,
	`shell`,
	`exec`,
	`spawn`,
	`process`,
	`sudo`,
	`system`,
	`http`,
	`fetch`,
	`curl`,
	`request`,
	`docker`,
	`kube`,
	`kubectl`,
	`git`,
	`ssh`,
}

// Rules is a versioned, replaceable heuristic rule set
type Rules struct {
	// Version labels the rule set so records can be compared across tuning changes
	Version string `yaml:"version" json:"version"`
	// DangerousPatterns are case-insensitive regular expressions matched against tool names
	DangerousPatterns []string `yaml:"dangerous_patterns" json:"dangerous_patterns"`
}

// DefaultRules returns the built-in rule set
func DefaultRules() Rules {
	return Rules{
		Version:           DefaultRulesVersion,
		DangerousPatterns: append([]string(nil), defaultDangerousPatterns...),
	}
}

// LoadRules reads a YAML rule set from path
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("%w: %w", ErrLoadRules, err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("%w: %s: %w", ErrLoadRules, path, err)
	}

	if rules.Version == "" {
		rules.Version = "custom"
	}

	return rules, nil
}

// compile joins the patterns into one case-insensitive alternation
func (r Rules) compile() (*regexp.Regexp, error) {
	patterns := lo.Filter(r.DangerousPatterns, func(p string, _ int) bool {
		return strings.TrimSpace(p) != ""
	})
	if len(patterns) == 0 {
		return nil, ErrEmptyRuleSet
	}

	for _, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, p, err)
		}
	}

	groups := lo.Map(patterns, func(p string, _ int) string {
		return `(?:` + p + `)`
	})

	return regexp.Compile(`(?i)` + strings.Join(groups, `|`))
}
