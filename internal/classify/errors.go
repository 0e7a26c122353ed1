package classify

import "errors"

var (
	// ErrEmptyRuleSet is returned when a rule set declares no dangerous patterns
	ErrEmptyRuleSet = errors.New("rule set has no dangerous patterns")
	// ErrInvalidPattern is returned when a rule set pattern does not compile
	ErrInvalidPattern = errors.New("invalid rule pattern")
	// ErrLoadRules is returned when a rule set file cannot be read or parsed
	ErrLoadRules = errors.New("failed to load rule set")
)
