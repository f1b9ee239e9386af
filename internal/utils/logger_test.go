package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", false)

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record must be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn record missing: %s", out)
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", true)

	logger.Info("structured", "key", "value")

	out := buf.String()
	if !strings.HasPrefix(out, "{") {
		t.Fatalf("expected JSON output, got %s", out)
	}
	if !strings.Contains(out, `"key":"value"`) {
		t.Fatalf("attribute missing: %s", out)
	}
}

func TestLoggerUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "bogus", false)

	logger.Debug("hidden")
	logger.Info("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record must be filtered by default: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("info record missing: %s", out)
	}
}
