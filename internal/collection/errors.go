package collection

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/jpdavalos423/pokecollect/internal/provider"
)

// ErrorKind is the stable machine-readable failure code surfaced to the API
// boundary.
type ErrorKind string

const (
	// KindInvalidCardID marks malformed caller input; never reaches the network.
	KindInvalidCardID ErrorKind = "INVALID_CARD_ID"
	// KindCardNotFound marks an authoritative absence with no fallback available.
	KindCardNotFound ErrorKind = "CARD_NOT_FOUND"
	// KindProviderUnavailable marks a transient upstream fault, retryable by the caller.
	KindProviderUnavailable ErrorKind = "CARD_PROVIDER_UNAVAILABLE"
	// KindProviderError marks a non-retryable upstream fault.
	KindProviderError ErrorKind = "CARD_PROVIDER_ERROR"
	// KindNotFound marks a missing ownership or placement record.
	KindNotFound ErrorKind = "NOT_FOUND"
	// KindInternal marks an invariant violation or unexpected failure.
	KindInternal ErrorKind = "ADD_CARD_FAILED"
)

// HTTPStatus maps the kind to its surfaced status intent.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindInvalidCardID:
		return http.StatusBadRequest
	case KindCardNotFound, KindNotFound:
		return http.StatusNotFound
	case KindProviderUnavailable:
		return http.StatusServiceUnavailable
	case KindProviderError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified collection failure. Details optionally carry the raw
// upstream payload as auxiliary diagnostics, never the primary message.
type Error struct {
	Kind    ErrorKind
	Message string
	Details string
	err     error
}

func (e *Error) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

func newKindError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Details: upstreamDetails(cause), err: cause}
}

// AsError extracts a classified *Error from err, wrapping anything else as
// an internal failure.
func AsError(err error) *Error {
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	return newKindError(KindInternal, "unexpected failure", err)
}

func upstreamDetails(err error) string {
	var upstream *provider.UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Body
	}
	return ""
}

// classifyRefreshError maps a failed provider refresh to an error kind,
// derived purely from the failure's carried status and fault codes.
func classifyRefreshError(err error) *Error {
	var upstream *provider.UpstreamError
	if errors.As(err, &upstream) {
		switch {
		case upstream.NotFound():
			return newKindError(KindCardNotFound, "card not found", err)
		case upstream.StatusCode == http.StatusRequestTimeout,
			upstream.StatusCode == http.StatusTooManyRequests,
			upstream.StatusCode >= http.StatusInternalServerError:
			return newKindError(KindProviderUnavailable, "card provider is unavailable", err)
		default:
			return newKindError(KindProviderError, "card provider returned an unexpected error", err)
		}
	}

	if errors.Is(err, errCardPayloadMissing) {
		return newKindError(KindCardNotFound, "card not found", err)
	}

	if isNetworkFault(err) {
		return newKindError(KindProviderUnavailable, "card provider is unavailable", err)
	}

	return newKindError(KindInternal, "failed to refresh card metadata", err)
}

func isNetworkFault(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	for _, code := range []error{
		syscall.ECONNRESET,
		syscall.ECONNREFUSED,
		syscall.EHOSTUNREACH,
		syscall.ENETUNREACH,
		syscall.ETIMEDOUT,
	} {
		if errors.Is(err, code) {
			return true
		}
	}

	message := strings.ToLower(err.Error())
	return strings.Contains(message, "network") ||
		strings.Contains(message, "timeout") ||
		strings.Contains(message, "timed out")
}
