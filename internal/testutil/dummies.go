// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/raysh454/alignscore/internal/codec"
	"github.com/raysh454/alignscore/internal/logging"
	"github.com/raysh454/alignscore/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
	Fields []logging.Field
}

func (l *DummyLogger) record(dst *[]string, msg string, fields []logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*dst = append(*dst, msg)
	l.Fields = append(l.Fields, fields...)
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) { l.record(&l.Debugs, msg, fields) }
func (l *DummyLogger) Info(msg string, fields ...logging.Field)  { l.record(&l.Infos, msg, fields) }
func (l *DummyLogger) Warn(msg string, fields ...logging.Field)  { l.record(&l.Warns, msg, fields) }
func (l *DummyLogger) Error(msg string, fields ...logging.Field) { l.record(&l.Errors, msg, fields) }

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// Logged reports whether any recorded field value contains s. Used to assert
// that secrets never reach the logs.
func (l *DummyLogger) Logged(s string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range l.Fields {
		if str, ok := f.Value.(string); ok && strings.Contains(str, s) {
			return true
		}
	}
	return false
}

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyWebClient implements webclient.WebClient. It returns Response (or Err)
// for every call and records each request.
type DummyWebClient struct {
	Response *webclient.Response
	Err      error

	mu       sync.Mutex
	Requests []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Err != nil {
		return nil, d.Err
	}
	if d.Response == nil {
		return &webclient.Response{Request: req, StatusCode: http.StatusOK, Body: []byte(`{}`)}, nil
	}
	resp := *d.Response
	resp.Request = req
	return &resp, nil
}

func (d *DummyWebClient) Close() error { return nil }

// Calls returns how many requests were made.
func (d *DummyWebClient) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Requests)
}

// JSONResponse builds a response with the given status and body.
func JSONResponse(status int, body string) *webclient.Response {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return &webclient.Response{StatusCode: status, Headers: h, Body: []byte(body)}
}

// ─── Codec ─────────────────────────────────────────────────────────────

// NewKey returns a fresh Fernet key or fails the test.
func NewKey(t testing.TB) string {
	t.Helper()
	key, err := codec.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	return key
}

// NewCodec returns a codec over a fresh key.
func NewCodec(t testing.TB) (*codec.Codec, string) {
	t.Helper()
	key := NewKey(t)
	c, err := codec.NewCodec(key)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c, key
}

// ─── Scoring endpoint ──────────────────────────────────────────────────

// ScoringCall is one request received by a ScoringServer, already decoded.
type ScoringCall struct {
	Auth     string
	Model    string
	Question string
	Answer   string
	Stop     []string
}

// ScoringServer is an httptest stand-in for the remote scoring endpoint. It
// decodes the envelope with the shared codec and answers through Handler.
type ScoringServer struct {
	*httptest.Server

	mu    sync.Mutex
	calls []ScoringCall
}

// NewScoringServer starts a server that decodes requests with c and replies
// with reply(call) as (status, body).
func NewScoringServer(t testing.TB, c *codec.Codec, reply func(ScoringCall) (int, string)) *ScoringServer {
	t.Helper()
	s := &ScoringServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env struct {
			Model    string `json:"model"`
			Messages []struct {
				Role     string `json:"role"`
				Question string `json:"question"`
				Answer   string `json:"answer"`
			} `json:"messages"`
			Stop []string `json:"stop"`
		}
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil || len(env.Messages) != 1 {
			http.Error(w, "bad envelope", http.StatusBadRequest)
			return
		}
		call := ScoringCall{Auth: r.Header.Get("Authorization"), Model: env.Model, Stop: env.Stop}
		var err error
		if call.Question, err = c.Decode(env.Messages[0].Question); err != nil {
			http.Error(w, "bad question token", http.StatusBadRequest)
			return
		}
		if call.Answer, err = c.Decode(env.Messages[0].Answer); err != nil {
			http.Error(w, "bad answer token", http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		s.calls = append(s.calls, call)
		s.mu.Unlock()

		status, body := reply(call)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

// Calls returns a copy of the decoded requests received so far.
func (s *ScoringServer) Calls() []ScoringCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ScoringCall(nil), s.calls...)
}
