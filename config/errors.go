package config

import "errors"

var (
	// ErrConfigUnmarshal is returned when config unmarshalling fails
	ErrConfigUnmarshal = errors.New("failed to unmarshal configuration")
	// ErrConfigLoad is returned when a config source cannot be read or parsed
	ErrConfigLoad = errors.New("failed to load configuration")
	// ErrInvalidConfig is returned when a loaded value is out of range
	ErrInvalidConfig = errors.New("invalid configuration")
)
