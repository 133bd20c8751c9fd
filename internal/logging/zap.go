package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a *zap.Logger to Logger.
type ZapLogger struct {
	z *zap.Logger
}

// NewZapLogger wraps an existing zap logger.
func NewZapLogger(z *zap.Logger) *ZapLogger {
	return &ZapLogger{z: z}
}

// BuildZap builds a production zap logger. level is one of debug, info, warn,
// error; format is "json" or "console".
func BuildZap(level, format string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(format, "console") {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return z, nil
}

func (l *ZapLogger) Debug(msg string, fields ...Field) {
	l.z.Debug(msg, toZap(fields)...)
}

func (l *ZapLogger) Info(msg string, fields ...Field) {
	l.z.Info(msg, toZap(fields)...)
}

func (l *ZapLogger) Warn(msg string, fields ...Field) {
	l.z.Warn(msg, toZap(fields)...)
}

func (l *ZapLogger) Error(msg string, fields ...Field) {
	l.z.Error(msg, toZap(fields)...)
}

func (l *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{z: l.z.With(toZap(fields)...)}
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.z.Sync()
}

func toZap(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}
