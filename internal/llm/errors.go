package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorKind classifies provider failures so the manager and its callers can
// distinguish auth problems from rate limiting and transient errors.
type ErrorKind int

const (
	// KindRequestFailed covers network errors and non-success HTTP statuses
	// other than 429/401/403.
	KindRequestFailed ErrorKind = iota

	// KindRateLimited maps HTTP 429. RetryAfter carries the provider's hint.
	KindRateLimited

	// KindInvalidCredential maps HTTP 401/403.
	KindInvalidCredential

	// KindParseFailed covers malformed response bodies and payloads.
	KindParseFailed

	// KindUnavailable means the provider cannot take requests at all
	// (no credential, open circuit, or no providers configured).
	KindUnavailable
)

// defaultRetryAfter is used when a 429 response carries no Retry-After hint.
const defaultRetryAfter = 60 * time.Second

// ProviderError is the error type returned by providers and the manager.
type ProviderError struct {
	Kind   ErrorKind
	Detail string

	// RetryAfter is set for KindRateLimited.
	RetryAfter time.Duration
}

func (e *ProviderError) Error() string {
	switch e.Kind {
	case KindRateLimited:
		return fmt.Sprintf("rate limited, retry after %ds", int(e.RetryAfter.Seconds()))
	case KindInvalidCredential:
		return "invalid API credential"
	case KindParseFailed:
		return fmt.Sprintf("response parsing failed: %s", e.Detail)
	case KindUnavailable:
		return fmt.Sprintf("provider unavailable: %s", e.Detail)
	default:
		return fmt.Sprintf("API request failed: %s", e.Detail)
	}
}

// RequestFailed builds a KindRequestFailed error.
func RequestFailed(detail string) *ProviderError {
	return &ProviderError{Kind: KindRequestFailed, Detail: detail}
}

// RateLimited builds a KindRateLimited error with the given hint.
func RateLimited(retryAfter time.Duration) *ProviderError {
	return &ProviderError{Kind: KindRateLimited, RetryAfter: retryAfter}
}

// InvalidCredential builds a KindInvalidCredential error.
func InvalidCredential() *ProviderError {
	return &ProviderError{Kind: KindInvalidCredential}
}

// ParseFailed builds a KindParseFailed error.
func ParseFailed(detail string) *ProviderError {
	return &ProviderError{Kind: KindParseFailed, Detail: detail}
}

// Unavailable builds a KindUnavailable error.
func Unavailable(detail string) *ProviderError {
	return &ProviderError{Kind: KindUnavailable, Detail: detail}
}

// AsProviderError unwraps err into a *ProviderError if possible.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// classifyStatus maps a non-success HTTP response to a ProviderError:
// 429 → RateLimited (honoring Retry-After), 401/403 → InvalidCredential,
// anything else → RequestFailed with the body as detail.
func classifyStatus(status int, retryAfterHeader, body string) *ProviderError {
	switch status {
	case http.StatusTooManyRequests:
		retryAfter := defaultRetryAfter
		if secs, err := strconv.Atoi(retryAfterHeader); err == nil && secs > 0 {
			retryAfter = time.Duration(secs) * time.Second
		}
		return RateLimited(retryAfter)
	case http.StatusUnauthorized, http.StatusForbidden:
		return InvalidCredential()
	default:
		return RequestFailed(fmt.Sprintf("status %d: %s", status, body))
	}
}
