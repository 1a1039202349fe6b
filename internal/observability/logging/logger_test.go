package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLoggerWritesServiceField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "packhealth-api", "info")
	logger.Debug("hidden")
	logger.Info("pack_health_evaluated", "overall_score", 95)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected exactly one JSON record, got %q: %v", buf.String(), err)
	}
	if record["service"] != "packhealth-api" || record["msg"] != "pack_health_evaluated" {
		t.Fatalf("unexpected record %v", record)
	}
}
