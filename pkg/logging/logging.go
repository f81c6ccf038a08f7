// Package logging initialises a zap logger from the application
// configuration and provides context-based logger propagation.
package logging

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lex00/cfn-depgraph/pkg/config"
)

type ctxKey struct{}

// Setup creates a *zap.Logger configured according to cfg, writing to
// stderr, and installs it as the process-wide default via zap.ReplaceGlobals.
func Setup(cfg *config.Config) *zap.Logger {
	return SetupWithWriter(cfg, os.Stderr)
}

// SetupWithWriter creates a *zap.Logger configured according to cfg, writing
// to w, and installs it as the process-wide default via zap.ReplaceGlobals.
// Use this variant in tests to capture or suppress log output.
func SetupWithWriter(cfg *config.Config, w io.Writer) *zap.Logger {
	level := ParseLevel(cfg.EffectiveLogLevel())

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "" // findings output to stdout must stay unpolluted; logs go to stderr and skip timestamps for terse CLI runs
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	switch cfg.OutputFormat {
	case config.OutputFormatJSON:
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	default:
		encoderCfg.ConsoleSeparator = " "
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	logger := zap.New(core)
	zap.ReplaceGlobals(logger)

	return logger
}

// ParseLevel converts a string log level to a zapcore.Level.
func ParseLevel(level string) zapcore.Level {
	switch level {
	case config.LogLevelDebug:
		return zapcore.DebugLevel
	case config.LogLevelWarn:
		return zapcore.WarnLevel
	case config.LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewContext returns a child context carrying logger.
func NewContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext extracts a logger from ctx, falling back to zap.L().
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}

	return zap.L()
}
