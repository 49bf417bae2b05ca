package commands

import (
	"context"
	"errors"

	"campwatch/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Polls the reservation page until sites open up or Ctrl+C.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("read config", err)
		}
		service, sqlite, err := buildWatcher(cfg)
		if err != nil {
			serviceutil.Fatal("init watcher", err)
		}
		defer sqlite.Close()

		err = service.Watch(cmd.Context())
		if err != nil && !errors.Is(err, context.Canceled) {
			serviceutil.Fatal("watch stopped", err)
		}
	},
}
