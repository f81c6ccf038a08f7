package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/lex00/cfn-depgraph/pkg/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		config.LogLevelDebug: zapcore.DebugLevel,
		config.LogLevelWarn:  zapcore.WarnLevel,
		config.LogLevelError: zapcore.ErrorLevel,
		config.LogLevelInfo:  zapcore.InfoLevel,
		"unknown":            zapcore.InfoLevel,
	}
	for level, want := range tests {
		if got := ParseLevel(level); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", level, got, want)
		}
	}
}

func TestSetupWithWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{LogLevel: config.LogLevelError, OutputFormat: config.OutputFormatText}

	logger := SetupWithWriter(cfg, &buf)
	logger.Info("should be suppressed")
	logger.Error("should appear")

	out := buf.String()
	if strings.Contains(out, "should be suppressed") {
		t.Errorf("info log should have been suppressed at error level, got %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("expected error log to appear, got %q", out)
	}
}

func TestContext(t *testing.T) {
	cfg := &config.Config{LogLevel: config.LogLevelInfo, OutputFormat: config.OutputFormatText}
	logger := Setup(cfg)

	ctx := NewContext(context.Background(), logger)
	if got := FromContext(ctx); got != logger {
		t.Fatal("FromContext did not round-trip the stored logger")
	}
}
