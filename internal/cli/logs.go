package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/actionlog-project/actionlog/internal/logfile"
	"github.com/actionlog-project/actionlog/internal/query"
	"github.com/actionlog-project/actionlog/pkg/color"
	"github.com/actionlog-project/actionlog/pkg/jsonutil"
	"github.com/actionlog-project/actionlog/pkg/model"
)

var (
	logsDate    string
	logsFrom    string
	logsTo      string
	logsTypes   []string
	logsStatus  string
	logsSession string
	logsKeyword string
	logsLimit   int
	logsFormat  string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Query recorded events",
	Long: `Query recorded events from the daily log files.

With no date selector, today's events are shown. Filters combine as a
conjunction and the scan stops as soon as the limit is reached; files are
streamed, never loaded whole.

Examples:
  actionlog logs                             # today's events
  actionlog logs --date 2025-11-21           # one day
  actionlog logs --from 2025-11-01 --to 2025-11-21
  actionlog logs --type tool_call --type tool_error
  actionlog logs --status error -n 20
  actionlog logs --session s1 --grep timeout
  actionlog logs --format raw                # JSONL as stored`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := buildFilterOptions()
		if err != nil {
			return err
		}

		cfg := loadConfig()
		cur, err := query.New(cfg.LogDirectory).Filter(opts)
		if err != nil {
			return err
		}
		defer cur.Close()

		switch {
		case jsonOutput || logsFormat == "raw":
			return printRaw(cur)
		case logsFormat == "table" || logsFormat == "":
			return printTable(cur)
		default:
			return fmt.Errorf("unsupported output format %q (want table or raw)", logsFormat)
		}
	},
}

func init() {
	// Date selectors are persistent so `logs stats` shares them.
	logsCmd.PersistentFlags().StringVar(&logsDate, "date", "", "single day (YYYY-MM-DD)")
	logsCmd.PersistentFlags().StringVar(&logsFrom, "from", "", "range start day (YYYY-MM-DD)")
	logsCmd.PersistentFlags().StringVar(&logsTo, "to", "", "range end day (YYYY-MM-DD)")
	logsCmd.Flags().StringArrayVar(&logsTypes, "type", nil, "event type filter (repeatable)")
	logsCmd.Flags().StringVar(&logsStatus, "status", "", "status filter (success|error)")
	logsCmd.Flags().StringVar(&logsSession, "session", "", "session ID filter")
	logsCmd.Flags().StringVar(&logsKeyword, "grep", "", "keyword filter over raw records")
	logsCmd.Flags().IntVarP(&logsLimit, "limit", "n", 50, "maximum events to return (0 = unlimited)")
	logsCmd.Flags().StringVar(&logsFormat, "format", "table", "output format (table|raw)")

	rootCmd.AddCommand(logsCmd)
}

// buildFilterOptions translates CLI flags into engine options.
func buildFilterOptions() (query.FilterOptions, error) {
	opts := query.FilterOptions{
		SessionID: logsSession,
		Keyword:   logsKeyword,
		Limit:     logsLimit,
		Status:    model.Status(logsStatus),
	}
	for _, t := range logsTypes {
		opts.Types = append(opts.Types, model.EventType(t))
	}

	switch {
	case logsDate != "":
		day, err := query.ParseDay(logsDate)
		if err != nil {
			return opts, err
		}
		opts.From, opts.To = day, day
	case logsFrom != "" || logsTo != "":
		if logsFrom != "" {
			day, err := query.ParseDay(logsFrom)
			if err != nil {
				return opts, err
			}
			opts.From = day
		}
		if logsTo != "" {
			day, err := query.ParseDay(logsTo)
			if err != nil {
				return opts, err
			}
			opts.To = day
		}
	default:
		today := logfile.Day(time.Now())
		opts.From, opts.To = today, today
	}
	return opts, nil
}

func printRaw(cur *query.Cursor) error {
	for {
		ev, err := cur.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line, _, err := jsonutil.EncodeEvent(ev)
		if err != nil {
			continue
		}
		fmt.Println(string(line))
	}
}

func printTable(cur *query.Cursor) error {
	count := 0
	for {
		ev, err := cur.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		count++

		status := string(ev.Status)
		if color.Enabled() {
			if ev.Status == model.StatusError {
				status = color.Error(status)
			} else {
				status = color.Success(status)
			}
		}
		fmt.Printf("%s  %s  %-20s %-12s %s\n",
			color.Dim(ev.Timestamp.Format("2006-01-02 15:04:05")),
			color.Dim(fmt.Sprintf("%6d", ev.Sequence)),
			ev.Type, ev.SessionID, status)
		if summary := payloadSummary(ev.Payload); summary != "" {
			fmt.Printf("        %s\n", summary)
		}
	}
	if count == 0 {
		fmt.Println("No events found.")
	}
	return nil
}

// payloadSummary renders a short single-line view of the payload.
func payloadSummary(payload map[string]any) string {
	const maxLen = 120
	if len(payload) == 0 {
		return ""
	}
	s := ""
	for k, v := range payload {
		item := fmt.Sprintf("%s=%v", k, v)
		if s != "" {
			item = " " + item
		}
		if len(s)+len(item) > maxLen {
			return s + " ..."
		}
		s += item
	}
	return s
}
