// Package logging provides colored, leveled log output for notabot.
//
// All output functions write one prefixed, color-coded line to the current
// output (stderr by default). While the TUI owns the terminal the CLI points
// output at a log file via SetOutput. Debug output is suppressed unless
// verbose mode is enabled via SetVerbose(true).
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	mu      sync.Mutex
	out     io.Writer = os.Stderr
	verbose bool
)

var (
	debugPrefix = color.New(color.FgBlue).SprintFunc()
	infoPrefix  = color.New(color.FgCyan).SprintFunc()
	warnPrefix  = color.New(color.FgYellow).SprintFunc()
	errorPrefix = color.New(color.FgRed).SprintFunc()
)

// SetVerbose enables or disables Debug output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// SetOutput redirects all log lines to w. A nil writer discards output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = io.Discard
	}
	out = w
}

// Debug logs only when verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.Lock()
	v := verbose
	mu.Unlock()
	if !v {
		return
	}
	write(debugPrefix("[DEBUG]"), format, args...)
}

// Info logs an informational line.
func Info(format string, args ...any) {
	write(infoPrefix("[INFO]"), format, args...)
}

// Warn logs a recoverable problem.
func Warn(format string, args ...any) {
	write(warnPrefix("[WARN]"), format, args...)
}

// Error logs a failure.
func Error(format string, args ...any) {
	write(errorPrefix("[ERROR]"), format, args...)
}

func write(prefix, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	line := fmt.Sprintf(format, args...)
	if _, err := fmt.Fprintf(out, "%s %s %s\n", time.Now().Format("15:04:05.000"), prefix, line); err != nil {
		// Best-effort logging.
		_ = err
	}
}
