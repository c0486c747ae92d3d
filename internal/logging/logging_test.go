package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/jengzang/activity-detection-go/internal/config"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name   string
		format string
		level  slog.Level
	}{
		{name: "json", format: "json", level: slog.LevelWarn},
		{name: "text", format: "text", level: slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(config.LoggingConfig{Level: tt.level, Format: tt.format})
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}

			ctx := context.Background()
			for _, lvl := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
				if got, want := logger.Enabled(ctx, lvl), lvl >= tt.level; got != want {
					t.Fatalf("level %v: enabled(%v)=%t, want %t", tt.level, lvl, got, want)
				}
			}
		})
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(config.LoggingConfig{Level: slog.LevelInfo, Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("NewWithWriter returned error: %v", err)
	}

	logger.Info("activity started", "device_id", "phone-1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not json: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "activity started" || entry["device_id"] != "phone-1" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNewUnsupportedFormat(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: slog.LevelInfo, Format: "pretty"})
	if err == nil || !strings.Contains(err.Error(), "unsupported log format") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}
