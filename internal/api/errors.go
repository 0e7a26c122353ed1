package api

import "errors"

var (
	// ErrInvalidRequestBody is returned when the request body cannot be decoded
	ErrInvalidRequestBody = errors.New("invalid request body")
	// ErrDomainRequired is returned when no domain is provided for a scan
	ErrDomainRequired = errors.New("domain required")
	// ErrEndpointRequired is returned when no endpoint is provided for a probe
	ErrEndpointRequired = errors.New("endpoint required")
	// ErrInvalidEndpoint is returned when the endpoint is not an absolute http(s) URL
	ErrInvalidEndpoint = errors.New("endpoint must be an absolute http or https URL")
	// ErrProberNotConfigured is returned when the remote prober is nil
	ErrProberNotConfigured = errors.New("remote prober not configured")
	// ErrMultipleJSONObjects is returned when the request body contains more than one JSON object
	ErrMultipleJSONObjects = errors.New("request body must contain a single JSON object")
)
