package webclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/raysh454/alignscore/internal/logging"
)

const defaultMaxBodyBytes = 4 << 20

// ErrNilRequest is returned by Do when req is nil.
var ErrNilRequest = errors.New("request cannot be nil")

// NetHTTPClient is the net/http backed WebClient.
type NetHTTPClient struct {
	client  *http.Client
	maxBody int64
	logger  logging.Logger
}

// NewNetHTTPClient builds a client. httpClient may be nil, in which case one
// is constructed with cfg.Timeout. An injected client keeps its own transport,
// and gets cfg.Timeout only if it has none.
func NewNetHTTPClient(cfg Config, logger logging.Logger, httpClient *http.Client) (*NetHTTPClient, error) {
	if logger == nil {
		logger = logging.NewStdoutLogger("webclient")
	}
	componentLogger := logger.With(logging.Field{Key: "backend", Value: BackendNetHTTP})

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	} else if httpClient.Timeout == 0 {
		httpClient.Timeout = timeout
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	componentLogger.Debug("created nethttp webclient",
		logging.Field{Key: "timeout", Value: httpClient.Timeout.String()})

	return &NetHTTPClient{
		client:  httpClient,
		maxBody: maxBody,
		logger:  componentLogger,
	}, nil
}

// Do executes req and reads at most the configured number of body bytes.
func (nhc *NetHTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	nhc.logger.Debug("sending http request",
		logging.Field{Key: "method", Value: method},
		logging.Field{Key: "url", Value: req.URL},
		logging.Field{Key: "body_bytes", Value: len(req.Body)})

	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range req.Headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := nhc.client.Do(httpReq)
	if err != nil {
		nhc.logger.Warn("http request failed",
			logging.Field{Key: "method", Value: method},
			logging.Field{Key: "url", Value: req.URL},
			logging.Err(err))
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, nhc.maxBody))
	if err != nil {
		nhc.logger.Warn("failed to read response body",
			logging.Field{Key: "url", Value: req.URL},
			logging.Err(err))
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		Request:    req,
		Body:       body,
		Headers:    resp.Header,
		StatusCode: resp.StatusCode,
		FetchedAt:  time.Now(),
	}, nil
}

func (nhc *NetHTTPClient) Close() error {
	nhc.client.CloseIdleConnections()
	return nil
}

// HTTPClient returns the underlying *http.Client.
func (nhc *NetHTTPClient) HTTPClient() *http.Client {
	return nhc.client
}
