// Package sink writes scan and probe records to their destinations.
package sink

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// ScanResultsFile is the batch file for scan records
	ScanResultsFile = "scan_results.jsonl"
	// RemoteResultsFile is the batch file for remote probe records
	RemoteResultsFile = "remote_scan.jsonl"
	// runsDir groups batch directories under the data directory
	runsDir = "runs"
	// dayLayout names the per-day batch directory
	dayLayout = "2006-01-02"
)

// Sink receives records in chunks. Records handed to a sink are never modified afterwards.
type Sink[T any] interface {
	// Write appends records to the destination
	Write(ctx context.Context, records []T) error
	// Close flushes and releases the destination
	Close() error
}

// BatchPath returns the batch-scoped location for a record file
func BatchPath(dataDir string, runTS time.Time, name string) string {
	return filepath.Join(dataDir, runsDir, runTS.UTC().Format(dayLayout), name)
}

// Multi fans each write out to every sink, joining their errors
type Multi[T any] struct {
	sinks []Sink[T]
}

// NewMulti returns a sink writing to all non-nil sinks
func NewMulti[T any](sinks ...Sink[T]) *Multi[T] {
	m := &Multi[T]{}

	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}

	return m
}

// Write writes to every sink even when an earlier one fails
func (m *Multi[T]) Write(ctx context.Context, records []T) error {
	var errs []error

	for _, s := range m.sinks {
		if err := s.Write(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Close closes every sink
func (m *Multi[T]) Close() error {
	var errs []error

	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Buffer accumulates records and writes them to a sink in fixed-size chunks.
// It is owned by a single collector goroutine and is not safe for concurrent use.
type Buffer[T any] struct {
	sink    Sink[T]
	size    int
	pending []T
	flushes int
	written int
	errs    []error
}

// NewBuffer creates a Buffer flushing every size records
func NewBuffer[T any](s Sink[T], size int) *Buffer[T] {
	if size <= 0 {
		size = 1
	}

	return &Buffer[T]{
		sink:    s,
		size:    size,
		pending: make([]T, 0, size),
	}
}

// Add appends a record, flushing when the chunk is full
func (b *Buffer[T]) Add(ctx context.Context, record T) {
	b.pending = append(b.pending, record)

	if len(b.pending) >= b.size {
		b.Flush(ctx)
	}
}

// Flush writes any pending records. A failed chunk is logged and remembered;
// later chunks are still attempted.
func (b *Buffer[T]) Flush(ctx context.Context) {
	if len(b.pending) == 0 {
		return
	}

	chunk := b.pending
	b.pending = make([]T, 0, b.size)
	b.flushes++

	if err := b.sink.Write(ctx, chunk); err != nil {
		log.Error().Err(err).Int("records", len(chunk)).Int("flush", b.flushes).Msg("flushing records failed")
		b.errs = append(b.errs, err)

		return
	}

	b.written += len(chunk)

	log.Debug().Int("records", len(chunk)).Int("flush", b.flushes).Msg("flushed records")
}

// Flushes reports how many chunks were handed to the sink
func (b *Buffer[T]) Flushes() int {
	return b.flushes
}

// Written reports how many records the sink accepted
func (b *Buffer[T]) Written() int {
	return b.written
}

// Err joins every flush failure seen so far
func (b *Buffer[T]) Err() error {
	return errors.Join(b.errs...)
}
