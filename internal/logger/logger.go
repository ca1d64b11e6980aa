// Package logger provides the colored leveled logger used across the service.
package logger

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	mu  sync.Mutex
	out io.Writer = color.Output

	gray    = color.New(color.FgHiBlack).SprintFunc()
	blue    = color.New(color.FgBlue).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	red     = color.New(color.FgRed).SprintFunc()
	cyan    = color.New(color.FgCyan).SprintFunc()
	magenta = color.New(color.FgMagenta).SprintFunc()
	white   = color.New(color.FgWhite).SprintFunc()
)

// SetOutput redirects log output and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

func write(line string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, "%s %s\n", gray("["+time.Now().Format("15:04:05")+"]"), line)
}

// Info logs general information.
func Info(format string, args ...any) {
	write(blue(fmt.Sprintf(format, args...)))
}

// Success logs a completed operation.
func Success(format string, args ...any) {
	write(green("✓ " + fmt.Sprintf(format, args...)))
}

// Warning logs a recoverable problem.
func Warning(format string, args ...any) {
	write(yellow("⚠ " + fmt.Sprintf(format, args...)))
}

// Error logs a failure.
func Error(format string, args ...any) {
	write(red("✗ " + fmt.Sprintf(format, args...)))
}

// Debug logs a development message.
func Debug(format string, args ...any) {
	write(gray("DEBUG: " + fmt.Sprintf(format, args...)))
}

// Request logs one HTTP request with its status and duration.
func Request(method, path string, status int, d time.Duration) {
	paint := red
	switch {
	case status >= 200 && status < 300:
		paint = green
	case status >= 300 && status < 400:
		paint = cyan
	case status >= 400 && status < 500:
		paint = yellow
	}
	write(fmt.Sprintf("%s %s %s %s",
		magenta(fmt.Sprintf("%-6s", method)),
		white(path),
		paint(fmt.Sprintf("[%d]", status)),
		gray("("+formatDuration(d)+")")))
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
