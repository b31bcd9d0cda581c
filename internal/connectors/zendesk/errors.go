package zendesk

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
)

// Zendesk-specific errors.
var (
	// ErrInvalidCursor indicates the cursor format is invalid.
	ErrInvalidCursor = errors.New("zendesk: invalid cursor format")

	// ErrMissingPartition indicates a child stream was fetched without its parent key.
	ErrMissingPartition = errors.New("zendesk: missing parent key")

	// ErrUnexpectedResponse indicates a response body that could not be decoded.
	ErrUnexpectedResponse = errors.New("zendesk: unexpected response")
)

// RateLimitError represents a rate limit exceeded error with reset time.
type RateLimitError struct {
	ResetAt   time.Time
	Remaining int
	Limit     int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("zendesk: rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// Unwrap allows errors.Is(err, domain.ErrRateLimited).
func (e *RateLimitError) Unwrap() error {
	return domain.ErrRateLimited
}

// APIError represents a Zendesk Sell API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string

	// Sync is set for Sync API calls, where a client error means the
	// device identifier was rejected.
	Sync bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zendesk: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// Is maps the status code onto the domain error taxonomy.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrAuthInvalid:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case domain.ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case domain.ErrTransient:
		return e.StatusCode >= 500 || e.StatusCode == http.StatusRequestTimeout
	case domain.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case domain.ErrInvalidDevice:
		return e.Sync && (e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity)
	}
	return false
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}
	return false
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}
