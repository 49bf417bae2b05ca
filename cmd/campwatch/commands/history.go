package commands

import (
	"os"

	"campwatch/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit *int64

func init() {
	historyLimit = historyCmd.Flags().Int64("limit", 20, "Maximum number of checks to show.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--limit <n>]",
	Short: "Prints the most recent availability checks.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("read config", err)
		}
		store, sqlite, err := openStore(cfg)
		if err != nil {
			serviceutil.Fatal("open store", err)
		}
		defer sqlite.Close()

		records, err := store.RecentChecks(cmd.Context(), *historyLimit)
		if err != nil {
			serviceutil.Fatal("read history", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Run", "Time", "Status", "Detail"})
		for _, rec := range records {
			t.AppendRow(table.Row{
				rec.RunId,
				rec.Time.Format("2006-01-02 15:04:05"),
				rec.Status,
				rec.Detail,
			})
		}
		t.Render()
	},
}
