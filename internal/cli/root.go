package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/actionlog-project/actionlog/pkg/color"
	"github.com/actionlog-project/actionlog/pkg/config"
	"github.com/actionlog-project/actionlog/pkg/logging"
)

var (
	jsonOutput bool
	noColor    bool
	configPath string
	logDir     string

	rootCmd = &cobra.Command{
		Use:   "actionlog",
		Short: "Actionlog - structured action logging for interactive agent sessions",
		Long: `Actionlog records every user action, model call, and tool invocation of an
interactive agent session to append-only daily log files, with data masking,
retention, and compression. This CLI queries and maintains those files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			color.Init(noColor)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.actionlog/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "log directory override")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// loadConfig loads the config file and applies CLI overrides.
func loadConfig() *config.Config {
	path := configPath
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".actionlog", "config.yaml")
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmtErr("load config: %v", err)
		os.Exit(1)
	}
	if logDir != "" {
		cfg.LogDirectory = logDir
	}
	logging.SetGlobal(logging.NewLogger(logging.ParseLevel(cfg.Logging.Level)))
	return cfg
}

// outputJSON prints v as indented JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fmtErr(format string, args ...any) {
	prefix := "actionlog: "
	if color.Enabled() {
		prefix = color.Error("actionlog:") + " "
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}
