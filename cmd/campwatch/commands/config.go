package commands

import (
	"database/sql"
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
	DumpDir                string `json:"dump_dir"`
}

type Config struct {
	Watcher  WatcherConfig   `json:"watcher"`
	Database string          `json:"database"`
	Pushover pushover.Config `json:"pushover"`
	Smtp     mail.Config     `json:"smtp"`
}

func loadConfig() (Config, error) {
	cfg, err := configutil.ReadConfig[Config](*configPath)
	if err != nil {
		return Config{}, err
	}
	cfg.Watcher.TargetUrl = configutil.EnvString("TARGET_URL", cfg.Watcher.TargetUrl)
	cfg.Pushover.ApiToken = configutil.EnvString("PUSHOVER_API_TOKEN", cfg.Pushover.ApiToken)
	cfg.Pushover.UserKey = configutil.EnvString("PUSHOVER_USER_KEY", cfg.Pushover.UserKey)
	return cfg, nil
}

func openStore(cfg Config) (checkstore.Store, *sql.DB, error) {
	database := cfg.Database
	if database == "" {
		database = "campwatch.db"
	}
	sqlite, err := sqliteutil.OpenDB(checkdb.Schema, database)
	if err != nil {
		return checkstore.Store{}, nil, err
	}
	return checkstore.NewStore(sqlite), sqlite, nil
}

func buildNotifier(cfg Config) notify.Notifier {
	notifiers := notify.Multi{pushover.NewClient(cfg.Pushover)}
	mailNotifier := mail.NewNotifier(cfg.Smtp)
	if mailNotifier.Configured() {
		notifiers = append(notifiers, mailNotifier)
	}
	return notifiers
}

func buildWatcher(cfg Config) (*watcher.Service, *sql.DB, error) {
	client, err := reserve.NewClient(reserve.ClientOptions{
		TargetUrl: cfg.Watcher.TargetUrl,
		DumpDir:   cfg.Watcher.DumpDir,
	})
	if err != nil {
		return nil, nil, err
	}
	store, sqlite, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	service := watcher.NewService(client, store, buildNotifier(cfg), watcher.Options{
		CheckInterval:          time.Duration(cfg.Watcher.CheckIntervalSeconds) * time.Second,
		MaxConsecutiveFailures: cfg.Watcher.MaxConsecutiveFailures,
		NotifyCooldown:         time.Duration(cfg.Watcher.NotifyCooldownMinutes) * time.Minute,
		HistoryRetention:       time.Duration(cfg.Watcher.HistoryRetentionDays) * time.Hour * 24,
	})
	return service, sqlite, nil
}
