package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/actionlog-project/actionlog/internal/query"
	"github.com/actionlog-project/actionlog/pkg/color"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recorded events",
	Long: `Summarize recorded events over a date range in one streaming pass:
total count, counts by type and status, error count, and distinct sessions.

Examples:
  actionlog logs stats
  actionlog logs stats --date 2025-11-21
  actionlog logs stats --from 2025-11-01 --to 2025-11-21`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := buildFilterOptions()
		if err != nil {
			return err
		}

		cfg := loadConfig()
		summary, err := query.New(cfg.LogDirectory).Summarize(opts.From, opts.To)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(summary)
		}

		fmt.Printf("Events:   %d\n", summary.TotalCount)
		fmt.Printf("Errors:   %s\n", colorCount(summary.ErrorCount))
		fmt.Printf("Sessions: %d\n", summary.SessionCount)

		fmt.Println("\nBy type:")
		for _, k := range sortedKeys(summary.ByType) {
			fmt.Printf("  %-22s %d\n", k, summary.ByType[k])
		}
		fmt.Println("\nBy status:")
		for _, k := range sortedKeys(summary.ByStatus) {
			fmt.Printf("  %-22s %d\n", k, summary.ByStatus[k])
		}
		return nil
	},
}

func init() {
	logsCmd.AddCommand(statsCmd)
}

func colorCount(n int) string {
	s := fmt.Sprintf("%d", n)
	if n > 0 {
		return color.Error(s)
	}
	return s
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
