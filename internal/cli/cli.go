// Package cli is the alignscore command line: serve the API, score one pair,
// and the two key utilities operators need when wiring a deployment.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/raysh454/alignscore/internal/app"
	"github.com/raysh454/alignscore/internal/codec"
	"github.com/raysh454/alignscore/internal/logging"
	"github.com/raysh454/alignscore/internal/server"
)

const shutdownTimeout = 10 * time.Second

// Options are the process-level inputs, injectable for tests.
type Options struct {
	// Environ returns the environment. Nil reads the process environment.
	Environ func() map[string]string
	Out     io.Writer
	Err     io.Writer
	// Logger replaces the zap logger built from LOG_LEVEL and LOG_FORMAT.
	Logger logging.Logger
}

type runner struct {
	opts    Options
	verbose bool
}

// NewRootCommand builds the command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Environ == nil {
		opts.Environ = func() map[string]string { return env.ToMap(os.Environ()) }
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	r := &runner{opts: opts}

	root := &cobra.Command{
		Use:   "alignscore",
		Short: "Score question/answer pairs against a remote alignment model",
		Long: `alignscore validates a question/answer pair, encrypts both fields with the
shared Fernet key, posts them to the scoring endpoint and labels the score.

Configuration comes from the environment: DECODE_KEY, LOGIN_KEY and
SCORING_URL are required.`,
		SilenceUsage: true,
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)
	root.PersistentFlags().BoolVarP(&r.verbose, "verbose", "v", false, "Enable debug logging")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		Args:  cobra.NoArgs,
		RunE:  r.runServe,
	}

	scoreCmd := &cobra.Command{
		Use:   "score",
		Short: "Score one question/answer pair and print the outcome as JSON",
		Args:  cobra.NoArgs,
		RunE:  r.runScore,
	}
	scoreCmd.Flags().StringP("question", "q", "", "Question text")
	scoreCmd.Flags().StringP("answer", "a", "", "Answer text")
	_ = scoreCmd.MarkFlagRequired("question")
	_ = scoreCmd.MarkFlagRequired("answer")

	keygenCmd := &cobra.Command{
		Use:   "keygen",
		Short: "Print a fresh Fernet key",
		Args:  cobra.NoArgs,
		RunE:  r.runKeygen,
	}

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a token with DECODE_KEY",
		Args:  cobra.NoArgs,
		RunE:  r.runDecode,
	}
	decodeCmd.Flags().StringP("token", "t", "", "Token to decode")
	_ = decodeCmd.MarkFlagRequired("token")

	root.AddCommand(serveCmd, scoreCmd, keygenCmd, decodeCmd)
	return root
}

// Execute runs the CLI against the process environment and returns the exit
// code.
func Execute() int {
	if err := NewRootCommand(Options{}).Execute(); err != nil {
		return 1
	}
	return 0
}

// setup loads the full configuration and wires the application.
func (r *runner) setup() (*app.Application, func(), error) {
	cfg, err := app.LoadConfigFrom(r.opts.Environ())
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, syncFn, err := r.logger(cfg)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.NewApplication(cfg, logger, nil)
	if err != nil {
		syncFn()
		return nil, nil, fmt.Errorf("build application: %w", err)
	}
	return a, syncFn, nil
}

func (r *runner) logger(cfg *app.Config) (logging.Logger, func(), error) {
	if r.opts.Logger != nil {
		return r.opts.Logger, func() {}, nil
	}
	level := cfg.LogLevel
	if r.verbose {
		level = "debug"
	}
	z, err := logging.BuildZap(level, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logging.NewZapLogger(z), func() { _ = z.Sync() }, nil
}

func (r *runner) runServe(cmd *cobra.Command, _ []string) error {
	a, syncFn, err := r.setup()
	if err != nil {
		return err
	}
	defer syncFn()

	srv, err := server.NewServer(server.Config{App: a, Logger: a.Logger.With(logging.F("component", "server"))})
	if err != nil {
		return err
	}
	hs := srv.HTTPServer()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("listening", logging.F("addr", hs.Addr))
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		_ = a.Shutdown(context.Background())
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := hs.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("http shutdown", logging.Err(err))
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.Logger.Error("http server", logging.Err(err))
	}
	return a.Shutdown(shutdownCtx)
}

func (r *runner) runScore(cmd *cobra.Command, _ []string) error {
	question, _ := cmd.Flags().GetString("question")
	answer, _ := cmd.Flags().GetString("answer")

	a, syncFn, err := r.setup()
	if err != nil {
		return err
	}
	defer syncFn()
	defer func() { _ = a.Shutdown(context.Background()) }()

	out := a.Orch.Submit(cmd.Context(), question, answer)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (r *runner) runKeygen(cmd *cobra.Command, _ []string) error {
	key, err := codec.GenerateKey()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), key)
	return err
}

// runDecode only needs DECODE_KEY, so it skips full config validation.
func (r *runner) runDecode(cmd *cobra.Command, _ []string) error {
	token, _ := cmd.Flags().GetString("token")

	key := strings.TrimSpace(r.opts.Environ()["DECODE_KEY"])
	if key == "" {
		return errors.New("DECODE_KEY is not set")
	}
	c, err := codec.NewCodec(key)
	if err != nil {
		return err
	}
	plain, err := c.Decode(strings.TrimSpace(token))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), plain)
	return err
}
