package remote

import "errors"

var (
	// ErrNonJSONResponse is recorded when an endpoint answers with something other than JSON
	ErrNonJSONResponse = errors.New("non-json response")
	// ErrUnexpectedPayload is recorded when the JSON body is not a JSON-RPC response object
	ErrUnexpectedPayload = errors.New("unexpected payload")
	// ErrLoadTasks is returned when the scan records cannot be read
	ErrLoadTasks = errors.New("failed to load probe tasks")
	// ErrNilSink is returned when Run is called without an output sink
	ErrNilSink = errors.New("output sink is required")
	// ErrFlush is returned when one or more record chunks could not be written
	ErrFlush = errors.New("failed to flush probe records")
)
