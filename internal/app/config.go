package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/raysh454/alignscore/internal/codec"
	"github.com/raysh454/alignscore/internal/interpret"
	"github.com/raysh454/alignscore/internal/scoring"
	"github.com/raysh454/alignscore/internal/utils"
	"github.com/raysh454/alignscore/internal/validate"
	"github.com/raysh454/alignscore/internal/webclient"
)

// Config is loaded once at process start and treated as immutable afterwards.
// Secrets have no defaults; a missing one is a startup error.
type Config struct {
	// DecodeKey is the Fernet key shared with the scoring service.
	DecodeKey string `env:"DECODE_KEY,required,notEmpty"`
	// LoginKey is the bearer token for the scoring endpoint.
	LoginKey   string `env:"LOGIN_KEY,required,notEmpty"`
	ScoringURL string `env:"SCORING_URL,required,notEmpty"`

	Model   string        `env:"SCORING_MODEL" envDefault:"rlhf"`
	Timeout time.Duration `env:"SCORING_TIMEOUT" envDefault:"10s"`

	MaxAnswerLength  int    `env:"MAX_ANSWER_LENGTH" envDefault:"1024"`
	AllowCustomLimit bool   `env:"ALLOW_CUSTOM_LIMIT"`
	ThresholdScheme  string `env:"THRESHOLD_SCHEME" envDefault:"A"`
	RequireChinese   bool   `env:"REQUIRE_CHINESE"`

	WebClientBackend string `env:"WEBCLIENT_BACKEND" envDefault:"nethttp"`
	ListenAddr       string `env:"LISTEN_ADDR" envDefault:":7860"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// DefaultConfig returns the non-secret defaults. Callers still have to fill in
// DecodeKey, LoginKey and ScoringURL.
func DefaultConfig() *Config {
	return &Config{
		Model:            scoring.DefaultModel,
		Timeout:          10 * time.Second,
		MaxAnswerLength:  validate.MaxAnswerLength1024,
		ThresholdScheme:  "A",
		WebClientBackend: webclient.BackendNetHTTP,
		ListenAddr:       ":7860",
		LogLevel:         "info",
		LogFormat:        "json",
	}
}

// LoadConfig reads the process environment and validates the result.
func LoadConfig() (*Config, error) {
	return parse(env.Options{})
}

// LoadConfigFrom is LoadConfig over an explicit environment, for tests and
// for callers that merge several sources.
func LoadConfigFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field rules and canonicalizes ScoringURL in place.
func (c *Config) Validate() error {
	var errs []error

	if c.DecodeKey == "" {
		errs = append(errs, errors.New("DECODE_KEY is required"))
	} else if _, err := codec.NewCodec(c.DecodeKey); err != nil {
		errs = append(errs, fmt.Errorf("DECODE_KEY: %w", err))
	}
	if c.LoginKey == "" {
		errs = append(errs, errors.New("LOGIN_KEY is required"))
	}

	if u, err := utils.CanonicalEndpoint(c.ScoringURL); err != nil {
		errs = append(errs, fmt.Errorf("SCORING_URL: %w", err))
	} else {
		c.ScoringURL = u
	}

	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("SCORING_TIMEOUT must be positive, got %s", c.Timeout))
	}

	switch {
	case c.MaxAnswerLength <= 0:
		errs = append(errs, fmt.Errorf("MAX_ANSWER_LENGTH must be positive, got %d", c.MaxAnswerLength))
	case !c.AllowCustomLimit &&
		c.MaxAnswerLength != validate.MaxAnswerLength512 &&
		c.MaxAnswerLength != validate.MaxAnswerLength1024:
		errs = append(errs, fmt.Errorf("MAX_ANSWER_LENGTH must be %d or %d (set ALLOW_CUSTOM_LIMIT to override), got %d",
			validate.MaxAnswerLength512, validate.MaxAnswerLength1024, c.MaxAnswerLength))
	}

	if !webclient.HasBackend(c.WebClientBackend) {
		errs = append(errs, fmt.Errorf("WEBCLIENT_BACKEND %q is not one of %v", c.WebClientBackend, webclient.ListBackends()))
	}

	if _, err := interpret.SchemeByName(c.ThresholdScheme); err != nil {
		errs = append(errs, fmt.Errorf("THRESHOLD_SCHEME: %w", err))
	}

	return errors.Join(errs...)
}

// Thresholds resolves ThresholdScheme. Validate has already rejected unknown names.
func (c *Config) Thresholds() interpret.Thresholds {
	th, err := interpret.SchemeByName(c.ThresholdScheme)
	if err != nil {
		return interpret.SchemeA
	}
	return th
}

// Validator returns the input rules for this deployment.
func (c *Config) Validator() validate.Validator {
	return validate.Validator{MaxAnswerLength: c.MaxAnswerLength, RequireChinese: c.RequireChinese}
}

// PublicSettings is the subset of Config that is safe to show to users.
type PublicSettings struct {
	Model           string               `json:"model"`
	MaxAnswerLength int                  `json:"max_answer_length"`
	RequireChinese  bool                 `json:"require_chinese"`
	ThresholdScheme string               `json:"threshold_scheme"`
	Thresholds      interpret.Thresholds `json:"thresholds"`
}

func (c *Config) Public() PublicSettings {
	return PublicSettings{
		Model:           c.Model,
		MaxAnswerLength: c.MaxAnswerLength,
		RequireChinese:  c.RequireChinese,
		ThresholdScheme: c.ThresholdScheme,
		Thresholds:      c.Thresholds(),
	}
}
