package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/actionlog-project/actionlog/internal/logfile"
	"github.com/actionlog-project/actionlog/internal/maintenance"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Run log maintenance now",
	Long: `Run a maintenance pass synchronously: compress day files older than the
compression age, delete files beyond the retention window, then delete
oldest-first until the directory fits the size budget. Today's file is
never touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		report := maintenance.New(cfg).Run(logfile.Day(time.Now()))

		if jsonOutput {
			return outputJSON(report)
		}

		fmt.Printf("Maintenance run %s\n", report.RunID)
		fmt.Printf("  Compressed:      %d files\n", report.Compressed)
		fmt.Printf("  Deleted:         %d files\n", report.Deleted)
		fmt.Printf("  Bytes reclaimed: %d\n", report.BytesReclaimed)
		if report.Errors > 0 {
			fmt.Printf("  Errors:          %d (see warnings above)\n", report.Errors)
		}
		return nil
	},
}

func init() {
	logsCmd.AddCommand(cleanupCmd)
}
