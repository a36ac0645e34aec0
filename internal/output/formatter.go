package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/flashingpumpkin/testpilot/internal/discovery"
)

// Formatter handles plain terminal output for commands that do not start the TUI.
type Formatter struct {
	quiet   bool
	noColor bool
	writer  io.Writer
}

// NewFormatter creates a new Formatter writing to w.
// It checks the NO_COLOR environment variable to determine if colour output should be disabled.
func NewFormatter(quiet bool, w io.Writer) *Formatter {
	noColor := os.Getenv("NO_COLOR") != ""

	if noColor {
		color.NoColor = true
	}

	return &Formatter{
		quiet:   quiet,
		noColor: noColor,
		writer:  w,
	}
}

// CatalogSummary describes a completed scan.
type CatalogSummary struct {
	Root     string
	Runner   string
	Duration time.Duration
}

// PrintCatalog prints every discovered test grouped by file, followed by a
// one-line summary. Paths are shown relative to the summary root when possible.
func (f *Formatter) PrintCatalog(groups []discovery.TestGroup, summary CatalogSummary) {
	cyan := color.New(color.FgCyan, color.Bold)
	white := color.New(color.FgWhite)
	dim := color.New(color.FgHiBlack)

	tests := 0
	for _, g := range groups {
		tests += len(g.Tests)

		path := g.Path
		if summary.Root != "" {
			if rel, err := filepath.Rel(summary.Root, g.Path); err == nil {
				path = rel
			}
		}
		_, _ = cyan.Fprintln(f.writer, path)
		for _, name := range g.Tests {
			_, _ = white.Fprintf(f.writer, "  %s\n", name)
		}
	}

	if f.quiet {
		return
	}

	_, _ = fmt.Fprintln(f.writer, "")
	_, _ = dim.Fprintf(f.writer, "%d test(s) in %d file(s)", tests, len(groups))
	if summary.Runner != "" {
		_, _ = dim.Fprintf(f.writer, " | runner: %s", summary.Runner)
	}
	_, _ = dim.Fprintf(f.writer, " | scanned in %s\n", formatDuration(summary.Duration))
}

// PrintEmpty prints the message shown when a scan finds no tests.
func (f *Formatter) PrintEmpty(root string) {
	yellow := color.New(color.FgYellow)
	_, _ = yellow.Fprintf(f.writer, "No tests found under %s\n", root)
}

// PrintError prints a command failure.
func (f *Formatter) PrintError(err error) {
	red := color.New(color.FgRed, color.Bold)
	_, _ = red.Fprintf(f.writer, "Error: %v\n", err)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}
