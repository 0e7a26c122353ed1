package sink

import "errors"

var (
	// ErrOpenOutput is returned when an output file cannot be created or opened
	ErrOpenOutput = errors.New("failed to open output")
	// ErrWriteRecords is returned when a batch of records cannot be written
	ErrWriteRecords = errors.New("failed to write records")
	// ErrPublish is returned when records cannot be published to NATS
	ErrPublish = errors.New("failed to publish records")
	// ErrNATSConnect is returned when the NATS connection cannot be established
	ErrNATSConnect = errors.New("failed to connect to nats")
)
