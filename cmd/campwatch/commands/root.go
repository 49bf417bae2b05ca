package commands

import (
	"context"
	"fmt"
	"os"

	"campwatch/lib/configutil"
	"campwatch/lib/telemetry"

	"github.com/spf13/cobra"
)

var configPath *string
var verbose *bool

var rootCmd = &cobra.Command{
	Use:   "campwatch",
	Short: "campwatch polls a campground reservation page and notifies you when sites open up.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
		configutil.LoadDotenv()
		telemetry.SetupFromEnv(cmd.Context(), "campwatch-cli")
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "Path to the config file.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
