package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"

	"campwatch/lib/configutil"
	"campwatch/lib/serviceutil"
	"campwatch/lib/telemetry"
	"campwatch/services/watcher"
)

func statusMux(service *watcher.Service) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(service.Snapshot())
		if err != nil {
			slog.Warn("failed to encode status", "err", err)
		}
	})
	return mux
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "Path to the config file.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(*verbose)
	configutil.LoadDotenv()

	tel, err := telemetry.SetupFromEnv(ctx, "campwatchd")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	defer tel.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	cfg, err := configutil.ReadConfig[Config](*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	applyEnvOverrides(&cfg)
	if cfg.Watcher.TargetUrl == "" {
		serviceutil.Fatal("read config", errors.New("no target_url configured (set TARGET_URL or watcher.target_url)"))
	}

	service, err := buildWatcher(cfg)
	if err != nil {
		serviceutil.Fatal("init watcher", err)
	}

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- service.Watch(ctx)
	}()

	if cfg.StatusPort != 0 {
		go serviceutil.StartHttpServer(cfg.StatusPort, statusMux(service))
	}

	select {
	case <-ctx.Done():
	case err := <-watchErr:
		if errors.Is(err, watcher.ErrTooManyFailures) {
			serviceutil.Fatal("watch stopped", err)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			serviceutil.Fatal("watch stopped", err)
		}
	}
}
