package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent extraction failures independent of any vendor.
// Adapters wrap or unwrap to these so the services can classify failures.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownStream indicates a stream name that the tap does not declare.
	ErrUnknownStream = errors.New("unknown stream")

	// ErrConfigInvalid indicates the tap configuration is incomplete or malformed.
	ErrConfigInvalid = errors.New("invalid configuration")

	// Authentication Errors.

	// ErrAuthRequired indicates no access credential was configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthInvalid indicates the credentials were rejected upstream.
	ErrAuthInvalid = errors.New("authentication invalid")

	// Sync Errors.

	// ErrTransient marks a failure worth retrying: timeouts, rate limits, 5xx.
	ErrTransient = errors.New("transient failure")

	// ErrRateLimited indicates the API rate limit was exceeded.
	// Rate limited errors are also transient.
	ErrRateLimited = errors.New("rate limited")

	// ErrProtocol indicates the upstream broke the cursor protocol,
	// for example by omitting the continuation token.
	ErrProtocol = errors.New("sync protocol violation")

	// ErrInvalidDevice indicates the upstream rejected the device identifier.
	ErrInvalidDevice = errors.New("invalid device identifier")

	// ErrSchemaMismatch indicates a record does not match its declared schema.
	ErrSchemaMismatch = errors.New("record does not match schema")

	// ErrTapClosed indicates the output or feed has already been closed.
	ErrTapClosed = errors.New("tap closed")
)

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimited)
}

// ProtocolError describes a malformed sync response.
type ProtocolError struct {
	Stream string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("stream %s: %s: %s", e.Stream, ErrProtocol, e.Reason)
}

// Unwrap allows errors.Is(err, ErrProtocol).
func (e *ProtocolError) Unwrap() error {
	return ErrProtocol
}

// SchemaMismatchError describes the first field that failed conformance.
type SchemaMismatchError struct {
	Stream string
	Field  string
	Want   []string
	Got    string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("stream %s: field %q: %s: want %v, got %s",
		e.Stream, e.Field, ErrSchemaMismatch, e.Want, e.Got)
}

// Unwrap allows errors.Is(err, ErrSchemaMismatch).
func (e *SchemaMismatchError) Unwrap() error {
	return ErrSchemaMismatch
}
