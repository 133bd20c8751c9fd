package scoring

import (
	"fmt"
	"time"
)

// RateLimitedError is returned for HTTP 429. The body is not inspected.
type RateLimitedError struct {
	// RetryAfter is the server's hint, zero when absent. It is informational;
	// the client never retries.
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("scoring rate limited, retry after %s", e.RetryAfter)
	}
	return "scoring rate limited"
}

// RequestError wraps a transport failure: DNS, refused connection, timeout.
type RequestError struct {
	Cause error
}

func (e *RequestError) Error() string { return "scoring request: " + e.Cause.Error() }

func (e *RequestError) Unwrap() error { return e.Cause }

// StatusError is any non-2xx answer other than 429.
type StatusError struct {
	Code int
	// Body is a truncated copy for diagnostics.
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("scoring endpoint returned status %d", e.Code)
}

// DecodeError means the response body was not the JSON document expected.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string { return "scoring decode: " + e.Reason }
