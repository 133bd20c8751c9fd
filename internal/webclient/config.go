package webclient

import "time"

const (
	BackendNetHTTP = "nethttp"

	DefaultTimeout = 10 * time.Second
)

// Config selects and tunes a backend.
type Config struct {
	// Backend is a registered backend name; empty means nethttp.
	Backend string
	// Timeout caps a whole exchange, including reading the body. Zero means DefaultTimeout.
	Timeout time.Duration
	// MaxBodyBytes caps how much of a response body is read. Zero means 4 MiB.
	MaxBodyBytes int64
}
