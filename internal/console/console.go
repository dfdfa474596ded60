package console

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// ─── Palette ─────────────────────────────────────────────────────────────────

var (
	clrGreen  = lipgloss.AdaptiveColor{Light: "#16a34a", Dark: "#4ade80"}
	clrYellow = lipgloss.AdaptiveColor{Light: "#ca8a04", Dark: "#facc15"}
	clrRed    = lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#f87171"}
	clrCyan   = lipgloss.AdaptiveColor{Light: "#0891b2", Dark: "#22d3ee"}
	clrMuted  = lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#9ca3af"}

	styleInfo    = lipgloss.NewStyle().Foreground(clrCyan)
	styleSuccess = lipgloss.NewStyle().Foreground(clrGreen)
	styleWarn    = lipgloss.NewStyle().Foreground(clrYellow)
	styleError   = lipgloss.NewStyle().Foreground(clrRed).Bold(true)
	styleVerbose = lipgloss.NewStyle().Foreground(clrMuted)
)

// ─── Console ─────────────────────────────────────────────────────────────────

// Console writes leveled run messages to stdout and mirrors every message,
// including suppressed ones, to a per-run transcript file. Verbosity and
// silence are explicit fields rather than package state so tests and the
// engine thread them deliberately.
type Console struct {
	Verbose bool
	Silent  bool

	styled     bool
	transcript *os.File
}

// New creates a Console and opens the transcript file for the given host.
// A transcript failure is not fatal: the run continues console-only with a
// warning, since losing the log must not block space recovery.
func New(verbose, silent bool, dir, host string) *Console {
	c := &Console{
		Verbose: verbose,
		Silent:  silent,
		styled:  isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}

	path := TranscriptPath(dir, host, time.Now())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot create log directory %s: %v\n", dir, err)
		return c
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot open transcript %s: %v\n", path, err)
		return c
	}
	c.transcript = f
	return c
}

// TranscriptPath builds the per-run transcript file path:
// <dir>\<host>-CleanupLogs_<timestamp>.txt
func TranscriptPath(dir, host string, now time.Time) string {
	name := fmt.Sprintf("%s-CleanupLogs_%s.txt", host, now.Format("20060102-150405"))
	return filepath.Join(dir, name)
}

// TranscriptFile returns the open transcript path, or "" when none is open.
func (c *Console) TranscriptFile() string {
	if c.transcript == nil {
		return ""
	}
	return c.transcript.Name()
}

// Close flushes and closes the transcript.
func (c *Console) Close() error {
	if c.transcript == nil {
		return nil
	}
	return c.transcript.Close()
}

func (c *Console) emit(level string, style lipgloss.Style, toStdout bool, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	if c.transcript != nil {
		ts := time.Now().Format("2006-01-02 15:04:05")
		fmt.Fprintf(c.transcript, "[%s] [%s] %s\n", ts, level, msg)
	}

	if !toStdout {
		return
	}
	line := fmt.Sprintf("[%s] %s", level, msg)
	if c.styled {
		line = style.Render(line)
	}
	fmt.Println(line)
}

// Infof emits an informational message.
func (c *Console) Infof(format string, args ...any) {
	c.emit("INFO", styleInfo, !c.Silent, format, args...)
}

// Successf emits a stage success message.
func (c *Console) Successf(format string, args ...any) {
	c.emit("OK", styleSuccess, !c.Silent, format, args...)
}

// Warnf emits a warning. Warnings are shown even in silent mode.
func (c *Console) Warnf(format string, args ...any) {
	c.emit("WARN", styleWarn, true, format, args...)
}

// Errorf emits an error message. Errors are shown even in silent mode.
func (c *Console) Errorf(format string, args ...any) {
	c.emit("ERROR", styleError, true, format, args...)
}

// Verbosef emits a detail line shown only with --verbose. It is still
// written to the transcript regardless.
func (c *Console) Verbosef(format string, args ...any) {
	c.emit("DEBUG", styleVerbose, c.Verbose && !c.Silent, format, args...)
}

// Rule writes an unstyled separator line, transcript included.
func (c *Console) Rule(title string) {
	line := strings.Repeat("─", 12) + " " + title + " " + strings.Repeat("─", 12)
	c.emit("INFO", styleVerbose, !c.Silent, "%s", line)
}
