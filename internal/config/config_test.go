package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// chdir moves into an empty directory so no stray config.yaml is picked up
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	d := cfg.Detection
	if d.ConfidenceThreshold != 70 || d.MinSteps != 20 {
		t.Errorf("unexpected thresholds: %+v", d)
	}
	if d.StationaryTimeout != 300*time.Second || d.BufferWindow != time.Minute || d.MovementWindow != 30*time.Second {
		t.Errorf("unexpected windows: %+v", d)
	}
	if d.TickInterval != 10*time.Second || d.LocationInterval != 3*time.Second {
		t.Errorf("unexpected intervals: %+v", d)
	}
	if !d.AutoStart || !d.AutoStop || d.DefaultWeightKg != 70 || d.MaxClockSkew != 5*time.Second {
		t.Errorf("unexpected flags: %+v", d)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Logging.Level != slog.LevelInfo || cfg.Logging.Format != "json" {
		t.Errorf("unexpected ambient defaults: %+v %+v", cfg.Database, cfg.Logging)
	}
	if cfg.Auth.JWTSecret != "" || cfg.Redis.Addr != "" || cfg.Export.Enabled {
		t.Errorf("optional features should be off by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t)
	t.Setenv("ACTIVITY_DETECTION_CONFIDENCE_THRESHOLD", "80")
	t.Setenv("ACTIVITY_DETECTION_STATIONARY_TIMEOUT", "2m")
	t.Setenv("ACTIVITY_DETECTION_AUTO_STOP", "false")
	t.Setenv("ACTIVITY_LOGGING_LEVEL", "debug")
	t.Setenv("ACTIVITY_DATABASE_DRIVER", "postgres")
	t.Setenv("ACTIVITY_DATABASE_DSN", "postgres://localhost/activity?sslmode=disable")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Detection.ConfidenceThreshold != 80 {
		t.Errorf("threshold = %d, want 80", cfg.Detection.ConfidenceThreshold)
	}
	if cfg.Detection.StationaryTimeout != 2*time.Minute {
		t.Errorf("timeout = %v, want 2m", cfg.Detection.StationaryTimeout)
	}
	if cfg.Detection.AutoStop {
		t.Error("auto stop should be disabled")
	}
	if cfg.Logging.Level != slog.LevelDebug {
		t.Errorf("level = %v, want debug", cfg.Logging.Level)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := chdir(t)
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := "detection:\n  min_steps: 30\nexport:\n  enabled: true\n  dir: ./fit\n"
	if err := os.WriteFile(filepath.Join(dir, "config", "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Detection.MinSteps != 30 || !cfg.Export.Enabled || cfg.Export.Dir != "./fit" {
		t.Errorf("config file not applied: %+v %+v", cfg.Detection, cfg.Export)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"threshold too high", "ACTIVITY_DETECTION_CONFIDENCE_THRESHOLD", "101", "confidence threshold"},
		{"zero tick", "ACTIVITY_DETECTION_TICK_INTERVAL", "0s", "intervals must be positive"},
		{"unknown driver", "ACTIVITY_DATABASE_DRIVER", "mysql", "unsupported database driver"},
		{"unknown format", "ACTIVITY_LOGGING_FORMAT", "pretty", "unsupported log format"},
		{"bad level", "ACTIVITY_LOGGING_LEVEL", "loud", "invalid log level"},
		{"movement window too wide", "ACTIVITY_DETECTION_MOVEMENT_WINDOW", "90s", "exceeds buffer window"},
		{"zero clock skew", "ACTIVITY_DETECTION_MAX_CLOCK_SKEW", "0s", "max clock skew must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
