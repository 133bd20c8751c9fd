package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/raysh454/alignscore/internal/codec"
	"github.com/raysh454/alignscore/internal/logging"
	"github.com/raysh454/alignscore/internal/scoring"
	"github.com/raysh454/alignscore/internal/webclient"
)

// Application is the runtime state container: config, logger and the wired
// services. Pass it to the surfaces (server, CLI) instead of using globals.
type Application struct {
	Config *Config
	Logger logging.Logger
	Orch   *Orchestrator
	Codec  *codec.Codec

	wc webclient.WebClient
}

// NewApplication wires the full pipeline from a validated config. wc may be
// nil, in which case the configured backend is constructed.
func NewApplication(cfg *Config, logger logging.Logger, wc webclient.WebClient) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("app")
	}

	c, err := codec.NewCodec(cfg.DecodeKey)
	if err != nil {
		return nil, fmt.Errorf("build codec: %w", err)
	}

	if wc == nil {
		wc, err = webclient.NewWebClient(webclient.Config{
			Backend: cfg.WebClientBackend,
			Timeout: cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, err
		}
	}

	client, err := scoring.NewClient(scoring.Config{
		URL:     cfg.ScoringURL,
		Token:   cfg.LoginKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}, wc, c, cfg.Thresholds(), logger)
	if err != nil {
		return nil, err
	}

	return &Application{
		Config: cfg,
		Logger: logger,
		Orch:   NewOrchestrator(cfg.Validator(), client, logger),
		Codec:  c,
		wc:     wc,
	}, nil
}

// Start logs the effective, non-secret settings.
func (a *Application) Start() error {
	if a == nil {
		return errors.New("application is nil")
	}
	pub := a.Config.Public()
	a.Logger.Info("application starting",
		logging.Field{Key: "model", Value: pub.Model},
		logging.Field{Key: "max_answer_length", Value: pub.MaxAnswerLength},
		logging.Field{Key: "require_chinese", Value: pub.RequireChinese},
		logging.Field{Key: "threshold_scheme", Value: pub.ThresholdScheme},
		logging.Field{Key: "timeout", Value: a.Config.Timeout.String()})
	return nil
}

// Shutdown releases the transport.
func (a *Application) Shutdown(_ context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")
	if a.wc != nil {
		return a.wc.Close()
	}
	return nil
}
