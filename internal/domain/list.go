package domain

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"
)

// maxLineBytes bounds a single line of the domain list
const maxLineBytes = 64 * 1024

// LoadList reads a newline-delimited domain list, skipping blank lines and # comments.
// Input order is preserved; entries are normalized but not validated.
func LoadList(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, maxLineBytes)
	scanner.Buffer(buf, maxLineBytes)

	var domains []string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		domains = append(domains, Normalize(line))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadList, err)
	}

	return domains, nil
}

// LoadListFile opens path and reads it with LoadList
func LoadListFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadList, err)
	}
	defer f.Close() //nolint:errcheck

	return LoadList(f)
}

// Dedupe drops repeated domains keeping the first occurrence
func Dedupe(domains []string) []string {
	return lo.Uniq(domains)
}
