package config_test

import (
	"testing"

	"rolevate/pipeline-service/internal/config"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/pipeline")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
}

// ── Required variables ─────────────────────────────────────────────────────

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	if _, err := config.Load(); err == nil {
		t.Error("Load() should fail when DATABASE_URL is empty")
	}
}

func TestLoad_MissingRedisURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/pipeline")
	t.Setenv("REDIS_URL", "")
	if _, err := config.Load(); err == nil {
		t.Error("Load() should fail when REDIS_URL is empty")
	}
}

// ── Defaults ───────────────────────────────────────────────────────────────

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("PIPELINE_PORT", "")
	t.Setenv("ANALYZER_ENABLED", "")
	t.Setenv("REMINDER_INTERVAL_HOURS", "")
	t.Setenv("REMINDER_STALE_DAYS", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Port != "8083" {
		t.Errorf("Port = %q, want default 8083", cfg.Port)
	}
	if !cfg.AnalyzerEnabled {
		t.Error("AnalyzerEnabled should default to true")
	}
	if cfg.ReminderIntervalHours != 24 {
		t.Errorf("ReminderIntervalHours = %d, want default 24", cfg.ReminderIntervalHours)
	}
	if cfg.ReminderStaleDays != 7 {
		t.Errorf("ReminderStaleDays = %d, want default 7", cfg.ReminderStaleDays)
	}
}

// ── Overrides and validation ───────────────────────────────────────────────

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PIPELINE_PORT", "9090")
	t.Setenv("ANALYZER_ENABLED", "false")
	t.Setenv("REMINDER_INTERVAL_HOURS", "6")
	t.Setenv("REMINDER_STALE_DAYS", "3")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.AnalyzerEnabled {
		t.Error("AnalyzerEnabled should be false")
	}
	if cfg.ReminderIntervalHours != 6 || cfg.ReminderStaleDays != 3 {
		t.Errorf("interval/staleDays = %d/%d, want 6/3",
			cfg.ReminderIntervalHours, cfg.ReminderStaleDays)
	}
}

func TestLoad_RejectsBadIntegers(t *testing.T) {
	cases := map[string]string{
		"REMINDER_INTERVAL_HOURS": "soon",
		"REMINDER_STALE_DAYS":     "0",
		"ANALYZER_ENABLED":        "maybe",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, val)
			if _, err := config.Load(); err == nil {
				t.Errorf("Load() should reject %s=%q", key, val)
			}
		})
	}
}
