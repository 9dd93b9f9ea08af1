package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// Validation errors raised before any network attempt.
var (
	ErrNameRequired   = errors.New("provider: search name is required")
	ErrCardIDRequired = errors.New("provider: card id is required")
	ErrSetIDRequired  = errors.New("provider: set id is required")
)

// UpstreamError reports a non-success response from the card-data provider.
// The raw body is carried for diagnostics, never as a primary message.
type UpstreamError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("provider: upstream status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// NotFound reports whether the provider authoritatively denied the resource.
func (e *UpstreamError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsValidationError reports whether err is one of the pre-network input errors.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrCardIDRequired) ||
		errors.Is(err, ErrSetIDRequired)
}
