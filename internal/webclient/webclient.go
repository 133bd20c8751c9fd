package webclient

import "context"

// WebClient sends one request and returns the fully read response. Callers
// inject it so tests can substitute a deterministic transport.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	Close() error
}
