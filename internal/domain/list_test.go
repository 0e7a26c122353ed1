package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadList(t *testing.T) {
	input := "example.com\n\n  Foo.ORG  \n# comment\nbar.net.\n\nexample.com\n"

	domains, err := LoadList(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com", "foo.org", "bar.net", "example.com"}, domains)
	assert.Equal(t, []string{"example.com", "foo.org", "bar.net"}, Dedupe(domains))
}

func TestLoadListEmpty(t *testing.T) {
	domains, err := LoadList(strings.NewReader("\n\n"))
	require.NoError(t, err)
	assert.Empty(t, domains)
}

func TestLoadListFileMissing(t *testing.T) {
	_, err := LoadListFile("/nonexistent/domains.txt")
	require.ErrorIs(t, err, ErrReadList)
}
