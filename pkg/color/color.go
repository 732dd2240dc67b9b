// Package color provides terminal color output for the actionlog CLI.
// It respects the NO_COLOR environment variable (https://no-color.org/).
package color

import (
	"os"
	"sync"
)

var state struct {
	once     sync.Once
	enabled  bool
	disabled bool
}

// Init initializes the color system based on environment and flags.
func Init(noColorFlag bool) {
	state.once.Do(func() {
		if _, exists := os.LookupEnv("NO_COLOR"); exists {
			state.disabled = true
		}
		if term := os.Getenv("TERM"); term == "dumb" {
			state.disabled = true
		}
		if noColorFlag {
			state.disabled = true
		}
		state.enabled = !state.disabled
	})
}

// Enabled returns true if color output is enabled.
func Enabled() bool {
	Init(false)
	return state.enabled
}

// Disable turns off color output.
func Disable() {
	state.disabled = true
	state.enabled = false
}

// ANSI codes.
const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	gray   = "\033[90m"
)

func wrap(code, s string) string {
	if !Enabled() {
		return s
	}
	return code + s + reset
}

// Success formats text in green, used for success statuses.
func Success(s string) string { return wrap(green, s) }

// Error formats text in red, used for error statuses.
func Error(s string) string { return wrap(red, s) }

// Warning formats text in yellow.
func Warning(s string) string { return wrap(yellow, s) }

// Dim formats text in gray, used for timestamps and sequence numbers.
func Dim(s string) string { return wrap(gray, s) }
