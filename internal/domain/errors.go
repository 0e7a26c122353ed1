package domain

import "errors"

var (
	// ErrInvalidDomainFormat is returned when the domain format is not valid
	ErrInvalidDomainFormat = errors.New("invalid domain format")
	// ErrNotBareDomain is returned when the input carries a scheme, path, port or user part
	ErrNotBareDomain = errors.New("input is not a bare domain name")
	// ErrReadList is returned when the domain list cannot be read
	ErrReadList = errors.New("failed to read domain list")
)
