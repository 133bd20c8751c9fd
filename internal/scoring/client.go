// Package scoring talks to the remote answer-scoring endpoint.
//
// One call is one POST. There is no retry, caching, or connection policy
// beyond what the injected webclient provides; the only addition over a bare
// request is a bounded timeout.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/raysh454/alignscore/internal/interpret"
	"github.com/raysh454/alignscore/internal/logging"
	"github.com/raysh454/alignscore/internal/webclient"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 256
)

// Encoder turns plaintext into the token sent on the wire.
type Encoder interface {
	Encode(plaintext string) (string, error)
}

// Client scores question/answer pairs. It holds no per-call state and is safe
// for concurrent use.
type Client struct {
	cfg        Config
	wc         webclient.WebClient
	enc        Encoder
	thresholds interpret.Thresholds
	logger     logging.Logger
}

// NewClient validates cfg and wires the collaborators. wc is the transport and
// can be any WebClient, which is how tests inject doubles.
func NewClient(cfg Config, wc webclient.WebClient, enc Encoder, th interpret.Thresholds, logger logging.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("scoring: endpoint URL is required")
	}
	if cfg.Token == "" {
		return nil, errors.New("scoring: bearer token is required")
	}
	if wc == nil {
		return nil, errors.New("scoring: nil webclient")
	}
	if enc == nil {
		return nil, errors.New("scoring: nil encoder")
	}
	if th.Low > th.High {
		return nil, fmt.Errorf("scoring: low threshold %v above high threshold %v", th.Low, th.High)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("scoring")
	}

	return &Client{
		cfg:        cfg,
		wc:         wc,
		enc:        enc,
		thresholds: th,
		logger:     logger.With(logging.Field{Key: "component", Value: "scoring-client"}),
	}, nil
}

// Score encodes the pair, posts it and interprets the reply.
//
// Errors are *RateLimitedError, *RequestError, *StatusError or *DecodeError.
// A well-formed reply without a usable score is not an error: the result
// carries interpret.LabelUnknown and a nil Score.
func (c *Client) Score(ctx context.Context, question, answer string) (interpret.Result, error) {
	encQ, err := c.enc.Encode(question)
	if err != nil {
		return interpret.Result{}, fmt.Errorf("encode question: %w", err)
	}
	encA, err := c.enc.Encode(answer)
	if err != nil {
		return interpret.Result{}, fmt.Errorf("encode answer: %w", err)
	}

	body, err := json.Marshal(newEnvelope(c.cfg.Model, encQ, encA))
	if err != nil {
		return interpret.Result{}, fmt.Errorf("marshal envelope: %w", err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Authorization", "Bearer "+c.cfg.Token)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.wc.Do(ctx, &webclient.Request{
		Method:  http.MethodPost,
		URL:     c.cfg.URL,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		c.logger.Warn("scoring request failed",
			logging.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()},
			logging.Err(err))
		return interpret.Result{}, &RequestError{Cause: err}
	}

	c.logger.Debug("scoring response received",
		logging.Field{Key: "status", Value: resp.StatusCode},
		logging.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()},
		logging.Field{Key: "body_bytes", Value: len(resp.Body)})

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return interpret.Result{}, &RateLimitedError{
			RetryAfter: parseRetryAfter(resp.Headers.Get("Retry-After"), time.Now()),
		}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return interpret.Result{}, &StatusError{Code: resp.StatusCode, Body: truncate(string(resp.Body), maxErrorBody)}
	}

	return c.interpretBody(resp.Body)
}

func (c *Client) interpretBody(body []byte) (interpret.Result, error) {
	if len(body) == 0 {
		return interpret.Result{}, &DecodeError{Reason: "empty response body"}
	}
	if !gjson.ValidBytes(body) {
		return interpret.Result{}, &DecodeError{Reason: "response is not valid JSON"}
	}

	// Current deployments nest the score under message.score; early ones put
	// the bare score in message.
	msg := gjson.GetBytes(body, "message")
	score := msg
	if msg.IsObject() {
		score = msg.Get("score")
	}
	return c.thresholds.Interpret(score), nil
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d.Round(time.Second)
		}
	}
	return 0
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
