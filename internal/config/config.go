// Package config provides configuration management for testpilot.
package config

import (
	"errors"
	"fmt"
	"time"

	tperrors "github.com/flashingpumpkin/testpilot/internal/errors"
)

// Runner names accepted by Config.Runner.
const (
	// RunnerAuto probes for gotestsum once at startup and falls back to go test.
	RunnerAuto = "auto"
	// RunnerGotestsum always uses gotestsum.
	RunnerGotestsum = "gotestsum"
	// RunnerGo always uses go test.
	RunnerGo = "go"
	// RunnerCustom uses the [runner] section of the config file.
	RunnerCustom = "custom"
)

// DefaultBufferCapacity is the default number of output lines kept for scrollback.
const DefaultBufferCapacity = 1000

// DefaultPollInterval is the default UI tick used to drain output and watch events.
const DefaultPollInterval = 100 * time.Millisecond

// DefaultChannelSize is the default capacity of the channel between run goroutines and the UI.
const DefaultChannelSize = 4096

// Config holds the configuration for a testpilot session.
type Config struct {
	// Root is the directory scanned for tests and watched for changes (default: ".").
	Root string

	// BufferCapacity is the maximum number of output lines retained (default: 1000).
	BufferCapacity int

	// PollInterval is how often the UI drains run output and checks for file changes (default: 100ms).
	PollInterval time.Duration

	// ChannelSize is the capacity of the output channel shared by all runs (default: 4096).
	ChannelSize int

	// Runner selects the test runner: "auto", "gotestsum", "go" or "custom" (default: "auto").
	Runner string

	// CustomRunner describes the command used when Runner is "custom".
	CustomRunner CustomRunner

	// ExtraArgs are appended to the go test arguments of the built-in runners.
	ExtraArgs []string

	// IncludeHidden scans and watches dot-files and dot-directories.
	IncludeHidden bool

	// Exclude holds doublestar patterns, relative to Root, that discovery skips.
	Exclude []string

	// WatchExclude holds doublestar patterns, relative to Root, that never trigger a watch run.
	WatchExclude []string

	// Watch starts the session with watch mode enabled.
	Watch bool

	// HideStaleOutput drops output lines from runs that have been superseded by a newer run.
	HideStaleOutput bool

	// KillSuperseded kills the previous test process when a new run starts.
	// When false (default), a superseded run keeps streaming into the output pane.
	KillSuperseded bool

	// Theme is the colour theme for the TUI: "auto", "dark", or "light" (default: "auto").
	Theme string

	// Debug enables debug logging to LogFile.
	Debug bool

	// LogFile is where debug logs are written (default: "testpilot.log").
	LogFile string
}

// CustomRunner is a user-defined test command. Args may contain the {{test}} placeholder.
type CustomRunner struct {
	// Program is the executable to run.
	Program string `toml:"program"`

	// Args are the command-line arguments; {{test}} is replaced with the test name.
	Args []string `toml:"args"`

	// Probe, when set, is run once at startup; a non-zero exit disables the runner.
	Probe []string `toml:"probe"`
}

// NewConfig returns a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Root:           ".",
		BufferCapacity: DefaultBufferCapacity,
		PollInterval:   DefaultPollInterval,
		ChannelSize:    DefaultChannelSize,
		Runner:         RunnerAuto,
		Theme:          "auto",
		LogFile:        "testpilot.log",
	}
}

// Validate checks that the configuration is valid.
// Returns an error if validation fails.
func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.New("root directory is required")
	}
	if c.BufferCapacity <= 0 {
		return errors.New("buffer capacity must be positive")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.ChannelSize <= 0 {
		return errors.New("channel size must be positive")
	}
	switch c.Runner {
	case RunnerAuto, RunnerGotestsum, RunnerGo:
	case RunnerCustom:
		if c.CustomRunner.Program == "" {
			return fmt.Errorf("%w: custom runner requires a program", tperrors.ErrInvalidRunner)
		}
	default:
		return fmt.Errorf("%w: %q (want auto, gotestsum, go or custom)", tperrors.ErrInvalidRunner, c.Runner)
	}
	switch c.Theme {
	case "auto", "dark", "light":
	default:
		return fmt.Errorf("invalid theme %q (want auto, dark or light)", c.Theme)
	}
	return nil
}
