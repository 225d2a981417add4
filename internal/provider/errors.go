package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Kind classifies adapter-level failures.
type Kind int

const (
	// KindUpstream is any non-2xx response or transport failure not covered
	// by a more specific kind. Not retried.
	KindUpstream Kind = iota
	// KindAuth means the credential is missing or was rejected. Not retried.
	KindAuth
	// KindRateLimited means the provider asked us to back off. Retried per
	// the retry policy.
	KindRateLimited
	// KindModelNotFound means the requested model (or endpoint) does not
	// exist on the provider.
	KindModelNotFound
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimited:
		return "rate_limited"
	case KindModelNotFound:
		return "model_not_found"
	default:
		return "upstream"
	}
}

// Error is the uniform error type raised by all adapter variants.
type Error struct {
	Kind     Kind
	Provider string
	Status   int
	Message  string

	// RetryAfter is the provider-supplied backoff hint, when present.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s error (status %d): %s", e.Provider, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Provider, e.Kind, e.Message)
}

// IsRateLimited reports whether err is a rate-limit error from any provider.
func IsRateLimited(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindRateLimited
}

// IsAuth reports whether err is a credential error from any provider.
func IsAuth(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindAuth
}

// IsModelNotFound reports whether err indicates an unknown model or endpoint.
func IsModelNotFound(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindModelNotFound
}

// kindForStatus maps an HTTP status code onto the error taxonomy.
func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusNotFound:
		return KindModelNotFound
	default:
		return KindUpstream
	}
}

// parseRetryAfter interprets a Retry-After header value in seconds. HTTP-date
// values are not seen from the providers we talk to, so they are ignored.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
