package scanner

import "errors"

var (
	// ErrMissingDependency is returned when the scanner is built without a resolver, fetcher or classifier
	ErrMissingDependency = errors.New("scanner dependency missing")
	// ErrNilSink is returned when Run is called without an output sink
	ErrNilSink = errors.New("output sink is required")
	// ErrFlush is returned when one or more record chunks could not be written
	ErrFlush = errors.New("failed to flush scan records")
)
