// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/pricectl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Table names, matching schema.sql
// --------------------------------------------------------------------------

const (
	UsersTable        = "users"
	ProductsTable     = "tracked_products"
	PriceHistoryTable = "price_history"
	PriceAlertsTable  = "price_alerts"
)

// Notifier kinds accepted by NOTIFIER.
const (
	NotifierTelegram = "telegram"
	NotifierAMQP     = "amqp"
	NotifierLog      = "log"
)

// --------------------------------------------------------------------------
// Config is populated from environment variables.
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Cache (API responses)
	CacheEnabled bool

	// Scheduling
	Timezone           *time.Location
	HourlySweepEnabled bool
	DailySweepHour     int
	WeeklySweepHour    int
	WeeklyAnchorDay    time.Weekday

	// Sweep tuning
	MinDropPercent  float64
	FetchMaxRetries int
	RetryBaseDelay  time.Duration
	RetryJitter     time.Duration
	PacingBaseDelay time.Duration
	PacingJitter    time.Duration
	TrendWindow     int

	// Quote fetcher
	FetchTimeout           time.Duration
	FetchRequestsPerMinute int
	FetchUserAgent         string
	QuoteCacheTTL          time.Duration
	RedisURL               string

	// Notifier
	Notifier         string
	TelegramBotToken string
	TelegramAPIURL   string
	AMQPURL          string
	AMQPQueue        string

	// Maintenance
	HistoryKeepPerProduct int
	AlertLogRetention     time.Duration
	MaintenanceInterval   time.Duration

	ListenerEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	tzName := envOr("SCHEDULE_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("SCHEDULE_TIMEZONE %q: %w", tzName, err)
	}

	cfg := &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CacheEnabled: envBool("CACHE_ENABLED", true),

		Timezone:           loc,
		HourlySweepEnabled: envBool("HOURLY_SWEEP_ENABLED", true),
		DailySweepHour:     envInt("DAILY_SWEEP_HOUR", 9),
		WeeklySweepHour:    envInt("WEEKLY_SWEEP_HOUR", 10),
		WeeklyAnchorDay:    envWeekday("WEEKLY_ANCHOR_DAY", time.Monday),

		MinDropPercent:  envFloat("MIN_DROP_PERCENT", 2.0),
		FetchMaxRetries: envInt("FETCH_MAX_RETRIES", 2),
		RetryBaseDelay:  envDuration("RETRY_BASE_DELAY", 2*time.Second),
		RetryJitter:     envDuration("RETRY_JITTER", 3*time.Second),
		PacingBaseDelay: envDuration("PACING_BASE_DELAY", 3*time.Second),
		PacingJitter:    envDuration("PACING_JITTER", 4*time.Second),
		TrendWindow:     envInt("TREND_WINDOW", 5),

		FetchTimeout:           envDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchRequestsPerMinute: envInt("FETCH_REQUESTS_PER_MINUTE", 30),
		FetchUserAgent:         envOr("FETCH_USER_AGENT", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"),
		QuoteCacheTTL:          envDuration("QUOTE_CACHE_TTL", 10*time.Minute),
		RedisURL:               envOr("REDIS_URL", ""),

		TelegramBotToken: envOr("TELEGRAM_BOT_TOKEN", ""),
		TelegramAPIURL:   envOr("TELEGRAM_API_URL", "https://api.telegram.org"),
		AMQPURL:          envOr("AMQP_URL", ""),
		AMQPQueue:        envOr("AMQP_QUEUE", "price_alerts"),

		HistoryKeepPerProduct: envInt("HISTORY_KEEP_PER_PRODUCT", 500),
		AlertLogRetention:     time.Duration(envInt("ALERT_LOG_RETENTION_DAYS", 90)) * 24 * time.Hour,
		MaintenanceInterval:   envDuration("MAINTENANCE_INTERVAL", 6*time.Hour),

		ListenerEnabled: envBool("LISTENER_ENABLED", true),
	}

	cfg.Notifier = envOr("NOTIFIER", "")
	if cfg.Notifier == "" {
		cfg.Notifier = NotifierLog
		if cfg.TelegramBotToken != "" {
			cfg.Notifier = NotifierTelegram
		}
	}
	switch cfg.Notifier {
	case NotifierTelegram, NotifierAMQP, NotifierLog:
	default:
		return nil, fmt.Errorf("NOTIFIER %q: must be one of telegram, amqp, log", cfg.Notifier)
	}

	if cfg.DailySweepHour < 0 || cfg.DailySweepHour > 23 || cfg.WeeklySweepHour < 0 || cfg.WeeklySweepHour > 23 {
		return nil, fmt.Errorf("DAILY_SWEEP_HOUR and WEEKLY_SWEEP_HOUR must be in 0..23")
	}

	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go duration strings ("90s", "5m"). Bare integers are seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func envWeekday(key string, fallback time.Weekday) time.Weekday {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if v == name || v == name[:3] {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
