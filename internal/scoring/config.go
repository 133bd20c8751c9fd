package scoring

import "time"

// DefaultModel is the model name the scoring endpoint expects.
const DefaultModel = "rlhf"

// Config is read once at startup and never mutated afterwards.
type Config struct {
	// URL is the scoring endpoint, already canonicalized.
	URL string
	// Token is sent as "Authorization: Bearer <Token>".
	Token string
	// Model fills the "model" field of the envelope. Empty means DefaultModel.
	Model string
	// Timeout bounds one Score call end to end. Zero means 10s.
	Timeout time.Duration
}
