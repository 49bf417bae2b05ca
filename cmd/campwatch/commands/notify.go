package commands

import (
	"log/slog"

	"campwatch/lib/notify"
	"campwatch/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(notifyCmd)
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Sends a test notification through the configured channels.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("read config", err)
		}

		err = buildNotifier(cfg).Send(cmd.Context(), notify.Notification{
			Title:   "campwatch test",
			Message: "If you can read this, notifications are working.",
		})
		if err != nil {
			serviceutil.Fatal("send notification", err)
		}
		slog.Info("test notification sent")
	},
}
