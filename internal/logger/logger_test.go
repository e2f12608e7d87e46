package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for name, expected := range tests {
		if got := ParseLevel(name); got != expected {
			t.Errorf("ParseLevel(%q): expected %v, got %v", name, expected, got)
		}
	}
}

func TestSetupWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	l := SetupWriter(&buf, "debug", "json")
	l.Debug("frame_processed", "frame", 3)
	if !strings.Contains(buf.String(), `"msg":"frame_processed"`) {
		t.Errorf("Expected JSON record, got %q", buf.String())
	}
	if L() != l {
		t.Error("L() should return logger created by SetupWriter")
	}
}

func TestSetupWriterFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	l := SetupWriter(&buf, "warn", "text")
	l.Info("ignored")
	if buf.Len() != 0 {
		t.Errorf("Expected info record to be filtered, got %q", buf.String())
	}
}
