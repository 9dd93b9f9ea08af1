package collection

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"testing"

	"github.com/jpdavalos423/pokecollect/internal/provider"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o wait exceeded" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyRefreshError(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{
			name: "upstream 404",
			err:  &provider.UpstreamError{StatusCode: http.StatusNotFound},
			want: KindCardNotFound,
		},
		{
			name: "upstream 408",
			err:  &provider.UpstreamError{StatusCode: http.StatusRequestTimeout},
			want: KindProviderUnavailable,
		},
		{
			name: "upstream 429",
			err:  &provider.UpstreamError{StatusCode: http.StatusTooManyRequests},
			want: KindProviderUnavailable,
		},
		{
			name: "upstream 500",
			err:  &provider.UpstreamError{StatusCode: http.StatusInternalServerError},
			want: KindProviderUnavailable,
		},
		{
			name: "upstream 503",
			err:  &provider.UpstreamError{StatusCode: http.StatusServiceUnavailable},
			want: KindProviderUnavailable,
		},
		{
			name: "upstream 400",
			err:  &provider.UpstreamError{StatusCode: http.StatusBadRequest},
			want: KindProviderError,
		},
		{
			name: "upstream 418",
			err:  &provider.UpstreamError{StatusCode: http.StatusTeapot},
			want: KindProviderError,
		},
		{
			name: "wrapped upstream error",
			err:  fmt.Errorf("fetch card: %w", &provider.UpstreamError{StatusCode: http.StatusBadGateway}),
			want: KindProviderUnavailable,
		},
		{
			name: "empty payload",
			err:  errCardPayloadMissing,
			want: KindCardNotFound,
		},
		{
			name: "context deadline",
			err:  context.DeadlineExceeded,
			want: KindProviderUnavailable,
		},
		{
			name: "net timeout",
			err:  timeoutError{},
			want: KindProviderUnavailable,
		},
		{
			name: "dns failure",
			err:  &net.DNSError{Err: "no such host", Name: "api.tcgdex.net"},
			want: KindProviderUnavailable,
		},
		{
			name: "connection refused",
			err:  fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED),
			want: KindProviderUnavailable,
		},
		{
			name: "connection reset",
			err:  fmt.Errorf("read tcp: %w", syscall.ECONNRESET),
			want: KindProviderUnavailable,
		},
		{
			name: "timeout wording",
			err:  errors.New("request timed out"),
			want: KindProviderUnavailable,
		},
		{
			name: "network wording",
			err:  errors.New("network is flaky"),
			want: KindProviderUnavailable,
		},
		{
			name: "unclassified failure",
			err:  errors.New("disk full"),
			want: KindInternal,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			classified := classifyRefreshError(testCase.err)
			if classified.Kind != testCase.want {
				t.Fatalf("expected %v, got %v", testCase.want, classified.Kind)
			}
		})
	}
}

func TestErrorKindHTTPStatus(t *testing.T) {
	testCases := []struct {
		kind ErrorKind
		want int
	}{
		{KindInvalidCardID, http.StatusBadRequest},
		{KindCardNotFound, http.StatusNotFound},
		{KindNotFound, http.StatusNotFound},
		{KindProviderUnavailable, http.StatusServiceUnavailable},
		{KindProviderError, http.StatusBadGateway},
		{KindInternal, http.StatusInternalServerError},
		{ErrorKind("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, testCase := range testCases {
		if got := testCase.kind.HTTPStatus(); got != testCase.want {
			t.Fatalf("%s: expected %d, got %d", testCase.kind, testCase.want, got)
		}
	}
}

func TestNewKindErrorCarriesUpstreamBody(t *testing.T) {
	cause := &provider.UpstreamError{StatusCode: http.StatusNotFound, Body: `{"error":"Card not found"}`}
	classified := classifyRefreshError(cause)
	if classified.Details != `{"error":"Card not found"}` {
		t.Fatalf("expected upstream body in details, got %q", classified.Details)
	}
	var unwrapped *provider.UpstreamError
	if !errors.As(classified, &unwrapped) || unwrapped != cause {
		t.Fatalf("expected cause to remain unwrappable")
	}
}

func TestAsErrorWrapsUnclassified(t *testing.T) {
	plain := errors.New("boom")
	classified := AsError(plain)
	if classified.Kind != KindInternal {
		t.Fatalf("expected internal kind, got %v", classified.Kind)
	}

	original := newKindError(KindCardNotFound, "card not found", nil)
	if AsError(fmt.Errorf("add: %w", original)) != original {
		t.Fatalf("expected wrapped classified error to be recovered")
	}
}
