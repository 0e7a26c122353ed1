package domain

import (
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Info contains parsed domain information
type Info struct {
	Domain    string `json:"domain"`
	Subdomain string `json:"subdomain,omitempty"`
	TLD       string `json:"tld"`
	SLD       string `json:"sld"`
}

// Normalize lowercases and trims a domain, dropping a trailing root dot
func Normalize(input string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(input)), ".")
}

// Parse validates a bare domain name against the public suffix list
func Parse(input string) (*Info, error) {
	input = Normalize(input)

	if input == "" || !strings.Contains(input, ".") {
		return nil, ErrInvalidDomainFormat
	}

	if strings.ContainsAny(input, "/@: \t") {
		return nil, ErrNotBareDomain
	}

	for _, label := range strings.Split(input, ".") {
		if label == "" || len(label) > 63 || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return nil, fmt.Errorf("%w: bad label %q", ErrInvalidDomainFormat, label)
		}
	}

	etld1, err := publicsuffix.EffectiveTLDPlusOne(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDomainFormat, err)
	}

	tld, _ := publicsuffix.PublicSuffix(input)
	sld := strings.TrimSuffix(etld1, "."+tld)

	subdomain := ""
	if etld1 != input {
		subdomain = strings.TrimSuffix(input, "."+etld1)
	}

	return &Info{
		Domain:    input,
		Subdomain: subdomain,
		TLD:       tld,
		SLD:       sld,
	}, nil
}
