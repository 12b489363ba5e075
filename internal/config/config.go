package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Archive
		Tasks
		ArchiveSync
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		Path string
	}

	Archive struct {
		Dir          string // Root of the unpacked export
		MediaBaseURL string // Public prefix for attached media files
	}

	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}

	// ArchiveSync re-runs the import on a cron schedule. Runs are
	// idempotent, so a schedule only picks up records added to the
	// archive directory since the previous run.
	ArchiveSync struct {
		Enabled  bool
		Schedule string // Cron format: "0 3 * * *" = daily at 03:00
		AuthorID int64
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8189)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("archive_dir", DefaultArchiveDir)
	v.SetDefault("media_base_url", DefaultMediaBaseURL)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Scheduled re-import defaults
	v.SetDefault("archive_sync_enabled", false)
	v.SetDefault("archive_sync_schedule", "0 3 * * *")
	v.SetDefault("archive_sync_author_id", 1)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Archive: Archive{
			Dir:          v.GetString("ARCHIVE_DIR"),
			MediaBaseURL: v.GetString("MEDIA_BASE_URL"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		ArchiveSync: ArchiveSync{
			Enabled:  v.GetBool("ARCHIVE_SYNC_ENABLED"),
			Schedule: v.GetString("ARCHIVE_SYNC_SCHEDULE"),
			AuthorID: v.GetInt64("ARCHIVE_SYNC_AUTHOR_ID"),
		},
	}
}
