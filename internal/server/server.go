package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/raysh454/alignscore/internal/app"
	"github.com/raysh454/alignscore/internal/logging"
)

const defaultMaxBodyBytes = 64 << 10

// Server is the HTTP + WebSocket API surface for alignscore.
type Server struct {
	cfg      Config
	app      *app.Application
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer builds the router around an already wired application.
func NewServer(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server: application is nil")
	}
	if cfg.ListenAddr == "" && cfg.App.Config != nil {
		cfg.ListenAddr = cfg.App.Config.ListenAddr
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	s := &Server{
		cfg:    cfg,
		app:    cfg.App,
		router: chi.NewRouter(),
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/v1/score", s.optionsHandler("POST"))
	r.Options("/v1/config", s.optionsHandler("GET"))

	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/config", s.handleConfig)
	r.Post("/v1/score", s.handleScore)

	r.Get("/ws/score", s.handleScoreWS)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler. Bodies are not logged: they hold the
// submitted answers.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}
	if r.ContentLength > 0 {
		fields = append(fields, logging.Field{Key: "content_length", Value: r.ContentLength})
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe. The write
// timeout covers the scoring call plus some slack; websocket connections are
// hijacked and not subject to it.
func (s *Server) HTTPServer() *http.Server {
	write := 30 * time.Second
	if s.app.Config != nil && s.app.Config.Timeout+5*time.Second > write {
		write = s.app.Config.Timeout + 5*time.Second
	}
	return &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      write,
		IdleTimeout:       60 * time.Second,
	}
}

// --- JSON helpers ---

// writeJSON encodes v before committing the status, so an unencodable value
// becomes a 500 with an error body instead of a 2xx with none.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var body []byte
	if v != nil {
		var err error
		if body, err = json.Marshal(v); err != nil {
			status = http.StatusInternalServerError
			body, _ = json.Marshal(ErrorResponse{Error: "encoding response failed"})
		}
		body = append(body, '\n')
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// --- HTTP handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Config.Public())
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var body ScoreRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		s.logger.Warn("decoding score body", logging.Err(err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	out := s.app.Orch.Submit(r.Context(), body.Question, body.Answer)
	writeJSON(w, http.StatusOK, out)
}

// WebSockets

// handleScoreWS serves one submission per text frame and answers each with an
// Outcome, in order. A malformed frame gets an error reply and the connection
// stays open.
func (s *Server) handleScoreWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Err(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(s.cfg.MaxBodyBytes)
	ctx := r.Context()
	frames := 0

	for {
		var req ScoreRequest
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read ended", logging.Err(err))
			}
			s.logger.Info("websocket closed", logging.Field{Key: "frames", Value: frames})
			return
		}
		frames++

		if msgType != websocket.TextMessage {
			if err := conn.WriteJSON(ErrorResponse{Error: "expected a text frame"}); err != nil {
				return
			}
			continue
		}
		if err := json.Unmarshal(data, &req); err != nil {
			if err := conn.WriteJSON(ErrorResponse{Error: fmt.Sprintf("invalid JSON: %v", err)}); err != nil {
				return
			}
			continue
		}

		out := s.app.Orch.Submit(ctx, req.Question, req.Answer)
		if err := conn.WriteJSON(out); err != nil {
			s.logger.Warn("writing websocket reply", logging.Err(err))
			return
		}
	}
}
