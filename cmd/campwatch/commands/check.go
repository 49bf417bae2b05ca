package commands

import (
	"fmt"
	"os"

	"campwatch/lib/checkstore"
	"campwatch/lib/scrapers/reserve"
	"campwatch/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

// checkVerdict maps one recorded round to the line `check` prints and
// its exit code. Failed rounds exit 1 with the failure detail, the
// original script's behavior.
func checkVerdict(rec checkstore.CheckRecord, targetUrl string) (string, int) {
	switch rec.Status {
	case string(reserve.StatusSitesFound):
		return fmt.Sprintf("SITES FOUND! Go book it now: %s", targetUrl), 0
	case string(reserve.StatusNoSites):
		return "No sites available.", 0
	default:
		return fmt.Sprintf("Check failed: %s", rec.Detail), 1
	}
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Runs a single availability check and prints the verdict.",
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

		rec, err := service.RunCheck(cmd.Context())
		if rec.Status == "" {
			// the round never ran at all
			serviceutil.Fatal("check failed", err)
		}

		message, code := checkVerdict(rec, cfg.Watcher.TargetUrl)
		fmt.Println(message)
		if code != 0 {
			os.Exit(code)
		}
	},
}
