package util

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerLevel(t *testing.T) {
	logger := NewLogger("debug")
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}

	logger = NewLogger("invalid")
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %s", logger.GetLevel())
	}

	logger = NewConsoleLogger("")
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info default for empty level, got %s", logger.GetLevel())
	}
}

func TestNewLoggerWritesTimestamp(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info")
	logger.Info().Str("source", "binance").Msg("connected")
	out := buf.String()
	if !strings.Contains(out, `"time"`) || !strings.Contains(out, "binance") {
		t.Fatalf("unexpected log output: %s", out)
	}
}
