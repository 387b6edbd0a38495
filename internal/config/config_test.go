package config

import (
	"testing"
	"time"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want error when DATABASE_URL is empty")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pricewatch")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("NOTIFIER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MinDropPercent != 2.0 {
		t.Fatalf("MinDropPercent = %v, want 2.0", cfg.MinDropPercent)
	}
	if cfg.WeeklyAnchorDay != time.Monday {
		t.Fatalf("WeeklyAnchorDay = %v, want Monday", cfg.WeeklyAnchorDay)
	}
	if cfg.TrendWindow != 5 {
		t.Fatalf("TrendWindow = %d, want 5", cfg.TrendWindow)
	}
	if cfg.Notifier != NotifierLog {
		t.Fatalf("Notifier = %q, want %q", cfg.Notifier, NotifierLog)
	}
	if cfg.Timezone != time.UTC {
		t.Fatalf("Timezone = %v, want UTC", cfg.Timezone)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pricewatch")
	t.Setenv("MIN_DROP_PERCENT", "5.5")
	t.Setenv("WEEKLY_ANCHOR_DAY", "fri")
	t.Setenv("RETRY_BASE_DELAY", "750ms")
	t.Setenv("PACING_JITTER", "12")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MinDropPercent != 5.5 {
		t.Fatalf("MinDropPercent = %v, want 5.5", cfg.MinDropPercent)
	}
	if cfg.WeeklyAnchorDay != time.Friday {
		t.Fatalf("WeeklyAnchorDay = %v, want Friday", cfg.WeeklyAnchorDay)
	}
	if cfg.RetryBaseDelay != 750*time.Millisecond {
		t.Fatalf("RetryBaseDelay = %v, want 750ms", cfg.RetryBaseDelay)
	}
	if cfg.PacingJitter != 12*time.Second {
		t.Fatalf("PacingJitter = %v, want 12s", cfg.PacingJitter)
	}
	if cfg.Notifier != NotifierTelegram {
		t.Fatalf("Notifier = %q, want %q when a bot token is set", cfg.Notifier, NotifierTelegram)
	}
	if len(cfg.CORSAllowOrigins) != 2 || cfg.CORSAllowOrigins[1] != "https://b.example" {
		t.Fatalf("CORSAllowOrigins = %v", cfg.CORSAllowOrigins)
	}
}

func TestLoadRejectsUnknownNotifier(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pricewatch")
	t.Setenv("NOTIFIER", "carrier-pigeon")

	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want error for unknown notifier")
	}
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pricewatch")
	t.Setenv("SCHEDULE_TIMEZONE", "Mars/Olympus_Mons")

	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want error for unknown timezone")
	}
}
