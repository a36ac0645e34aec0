package tui

import (
	"time"

	"github.com/flashingpumpkin/testpilot/internal/discovery"
)

// tickMsg drives output draining and watch checks.
type tickMsg time.Time

// ScanDoneMsg carries the result of a discovery scan.
type ScanDoneMsg struct {
	Groups []discovery.TestGroup
	Err    error

	// Rescan is false for the scan made at startup.
	Rescan bool
}
