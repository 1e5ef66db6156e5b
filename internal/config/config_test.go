package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "")
	t.Setenv("CALENDAR_SYNC_INTERVAL", "")
	t.Setenv("DIGEST_HOUR", "")
	t.Setenv("DB_MAX_CONNS", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.CalendarSyncInterval != 0 {
		t.Errorf("CalendarSyncInterval = %v, want 0", cfg.CalendarSyncInterval)
	}
	if cfg.DigestHour != 9 {
		t.Errorf("DigestHour = %d, want 9", cfg.DigestHour)
	}
	if cfg.DBMaxConns != 10 {
		t.Errorf("DBMaxConns = %d, want 10", cfg.DBMaxConns)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("CALENDAR_SYNC_INTERVAL", "15m")
	t.Setenv("ANALYSIS_CONCURRENCY", "8")
	t.Setenv("YOUTUBE_RATE_PER_SEC", "2.5")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want 9000", cfg.Port)
	}
	if cfg.CalendarSyncInterval != 15*time.Minute {
		t.Errorf("CalendarSyncInterval = %v, want 15m", cfg.CalendarSyncInterval)
	}
	if cfg.AnalysisConcurrency != 8 {
		t.Errorf("AnalysisConcurrency = %d, want 8", cfg.AnalysisConcurrency)
	}
	if cfg.YouTubeRatePerSec != 2.5 {
		t.Errorf("YouTubeRatePerSec = %v, want 2.5", cfg.YouTubeRatePerSec)
	}
}

func TestTelegramEnabled(t *testing.T) {
	cfg := &Config{TelegramAppID: 1, TelegramAppHash: "h", TelegramBotToken: "t"}
	if cfg.TelegramEnabled() {
		t.Error("expected disabled without channel")
	}
	cfg.TelegramChannel = "news"
	if !cfg.TelegramEnabled() {
		t.Error("expected enabled")
	}
}

func TestGetDurationInvalidFallsBack(t *testing.T) {
	t.Setenv("X_DURATION", "soon")
	if got := getDuration("X_DURATION", time.Second); got != time.Second {
		t.Errorf("got %v, want 1s", got)
	}
}
