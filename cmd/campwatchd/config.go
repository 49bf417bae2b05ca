package main

import (
	"time"

	"campwatch/lib/checkstore"
	checkdb "campwatch/lib/checkstore/db"
	"campwatch/lib/configutil"
	"campwatch/lib/notify"
	"campwatch/lib/notify/mail"
	"campwatch/lib/notify/pushover"
	"campwatch/lib/scrapers/reserve"
	"campwatch/lib/sqliteutil"
	"campwatch/services/watcher"
)

type WatcherConfig struct {
	TargetUrl              string `json:"target_url"`
	CheckIntervalSeconds   int    `json:"check_interval_seconds"`
	MaxConsecutiveFailures int    `json:"max_consecutive_failures"`
	NotifyCooldownMinutes  int    `json:"notify_cooldown_minutes"`
	HistoryRetentionDays   int    `json:"history_retention_days"`
	// directory failed page bodies get dumped to for debugging
	DumpDir string `json:"dump_dir"`
}

type Config struct {
	Watcher    WatcherConfig   `json:"watcher"`
	Database   string          `json:"database"`
	Pushover   pushover.Config `json:"pushover"`
	Smtp       mail.Config     `json:"smtp"`
	StatusPort int             `json:"status_port"`
}

// the original deployment configured these three through the
// environment (.env), keep honoring that over the config file
func applyEnvOverrides(cfg *Config) {
	cfg.Watcher.TargetUrl = configutil.EnvString("TARGET_URL", cfg.Watcher.TargetUrl)
	cfg.Pushover.ApiToken = configutil.EnvString("PUSHOVER_API_TOKEN", cfg.Pushover.ApiToken)
	cfg.Pushover.UserKey = configutil.EnvString("PUSHOVER_USER_KEY", cfg.Pushover.UserKey)
}

func buildNotifier(cfg Config) notify.Notifier {
	notifiers := notify.Multi{pushover.NewClient(cfg.Pushover)}
	mailNotifier := mail.NewNotifier(cfg.Smtp)
	if mailNotifier.Configured() {
		notifiers = append(notifiers, mailNotifier)
	}
	return notifiers
}

func buildWatcher(cfg Config) (*watcher.Service, error) {
	client, err := reserve.NewClient(reserve.ClientOptions{
		TargetUrl: cfg.Watcher.TargetUrl,
		DumpDir:   cfg.Watcher.DumpDir,
	})
	if err != nil {
		return nil, err
	}

	database := cfg.Database
	if database == "" {
		database = "campwatch.db"
	}
	sqlite, err := sqliteutil.OpenDB(checkdb.Schema, database)
	if err != nil {
		return nil, err
	}
	store := checkstore.NewStore(sqlite)

	return watcher.NewService(client, store, buildNotifier(cfg), watcher.Options{
		CheckInterval:          time.Duration(cfg.Watcher.CheckIntervalSeconds) * time.Second,
		MaxConsecutiveFailures: cfg.Watcher.MaxConsecutiveFailures,
		NotifyCooldown:         time.Duration(cfg.Watcher.NotifyCooldownMinutes) * time.Minute,
		HistoryRetention:       time.Duration(cfg.Watcher.HistoryRetentionDays) * time.Hour * 24,
	}), nil
}
