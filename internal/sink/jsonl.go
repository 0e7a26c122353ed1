package sink

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	// dirPerm is the permission used for batch directories
	dirPerm = 0o755
	// filePerm is the permission used for record files
	filePerm = 0o644
	// maxRecordBytes bounds a single JSONL line when reading
	maxRecordBytes = 4 * 1024 * 1024
)

// JSONL appends one JSON object per line to a writer
type JSONL[T any] struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

// NewJSONL writes records to w; w is not closed by Close
func NewJSONL[T any](w io.Writer) *JSONL[T] {
	return &JSONL[T]{w: w}
}

// OpenJSONL opens path for appending, creating it and its directory when missing
func OpenJSONL[T any](path string) (*JSONL[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenOutput, err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenOutput, err)
	}

	return &JSONL[T]{w: f, closer: f}, nil
}

// Write encodes the records and appends them with a single write
func (j *JSONL[T]) Write(_ context.Context, records []T) error {
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteRecords, err)
		}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteRecords, err)
	}

	return nil
}

// Close closes the underlying file when the sink opened it
func (j *JSONL[T]) Close() error {
	if j.closer == nil {
		return nil
	}

	return j.closer.Close()
}

// ReadJSONL decodes one record per line and calls fn for each. Blank and
// malformed lines are skipped and counted. An error from fn stops the read.
func ReadJSONL[T any](r io.Reader, fn func(T) error) (int, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxRecordBytes)

	skipped := 0
	line := 0

	for scanner.Scan() {
		line++

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			log.Debug().Int("line", line).Err(err).Msg("skipping malformed record")

			skipped++

			continue
		}

		if err := fn(rec); err != nil {
			return skipped, err
		}
	}

	if err := scanner.Err(); err != nil {
		return skipped, err
	}

	return skipped, nil
}

// ReadJSONLFile opens path and reads it with ReadJSONL
func ReadJSONLFile[T any](path string, fn func(T) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close() //nolint:errcheck

	return ReadJSONL(f, fn)
}
