package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		OpenLibrary
		Search
		Database
		Lookups
		Tasks
		Session
		CSRF
		Log
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	OpenLibrary struct {
		BaseURL   string
		CoversURL string
		Timeout   time.Duration
		UserAgent string
	}
	Search struct {
		PageSize      int
		IdleTimeout   time.Duration // Search sessions unused this long are dropped
		PruneSchedule string        // Cron format: "*/5 * * * *" = every 5 minutes
	}
	Database struct {
		Path string
	}
	Lookups struct {
		RetentionDays   int    // Days to keep lookup events (default: 30)
		CleanupSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Session struct {
		Lifetime      time.Duration
		SecureCookies bool // Set to false for local dev without HTTPS
	}
	CSRF struct {
		Enabled bool
		Secret  string // Hex or raw; generated at startup if empty
	}
	Log struct {
		Level  string
		Format string // "text" or "json"
	}
)

// NewConfig reads configuration from the environment. Values in .env and
// .env.local are loaded first and never override variables already set.
func NewConfig() *Config {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)

	v.SetDefault("openlibrary_base_url", DefaultOpenLibraryBaseURL)
	v.SetDefault("openlibrary_covers_url", DefaultOpenLibraryCoversURL)
	v.SetDefault("openlibrary_timeout", "10s")
	v.SetDefault("openlibrary_user_agent", DefaultUserAgent)

	v.SetDefault("search_page_size", 20)
	v.SetDefault("search_session_idle_timeout", "30m")
	v.SetDefault("search_session_prune_schedule", "*/5 * * * *") // Every 5 minutes

	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("lookup_retention_days", 30)
	v.SetDefault("lookup_cleanup_schedule", "0 3 * * *") // Daily at 03:00

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("session_lifetime", "24h")
	v.SetDefault("session_secure_cookies", false)
	v.SetDefault("csrf_enabled", true)
	v.SetDefault("csrf_secret", "")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		OpenLibrary: OpenLibrary{
			BaseURL:   v.GetString("OPENLIBRARY_BASE_URL"),
			CoversURL: v.GetString("OPENLIBRARY_COVERS_URL"),
			Timeout:   v.GetDuration("OPENLIBRARY_TIMEOUT"),
			UserAgent: v.GetString("OPENLIBRARY_USER_AGENT"),
		},
		Search: Search{
			PageSize:      v.GetInt("SEARCH_PAGE_SIZE"),
			IdleTimeout:   v.GetDuration("SEARCH_SESSION_IDLE_TIMEOUT"),
			PruneSchedule: v.GetString("SEARCH_SESSION_PRUNE_SCHEDULE"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Lookups: Lookups{
			RetentionDays:   v.GetInt("LOOKUP_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("LOOKUP_CLEANUP_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Session: Session{
			Lifetime:      v.GetDuration("SESSION_LIFETIME"),
			SecureCookies: v.GetBool("SESSION_SECURE_COOKIES"),
		},
		CSRF: CSRF{
			Enabled: v.GetBool("CSRF_ENABLED"),
			Secret:  v.GetString("CSRF_SECRET"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}
