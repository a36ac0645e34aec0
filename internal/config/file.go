package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// TestPlaceholder is replaced with the selected test name in runner arguments.
const TestPlaceholder = "{{test}}"

// FileConfig represents the configuration loaded from .testpilot/config.toml.
// Pointer fields distinguish "not set" from the zero value so that only the
// keys present in the file override the defaults.
type FileConfig struct {
	// Capacity is the number of output lines kept for scrollback.
	Capacity int `toml:"capacity"`

	// PollInterval is a Go duration string such as "100ms".
	PollInterval string `toml:"poll_interval"`

	// ChannelSize is the capacity of the output channel.
	ChannelSize int `toml:"channel_size"`

	// Runner is "auto", "gotestsum", "go" or "custom".
	Runner string `toml:"runner"`

	// CustomRunner is used when Runner is "custom".
	CustomRunner *CustomRunner `toml:"custom_runner"`

	// ExtraArgs are appended to the go test arguments.
	ExtraArgs []string `toml:"extra_args"`

	// IncludeHidden scans dot-files and dot-directories.
	IncludeHidden *bool `toml:"include_hidden"`

	// Exclude holds doublestar patterns skipped by discovery.
	Exclude []string `toml:"exclude"`

	// Watch starts with watch mode enabled.
	Watch *bool `toml:"watch"`

	// WatchExclude holds doublestar patterns that never trigger a watch run.
	WatchExclude []string `toml:"watch_exclude"`

	// HideStaleOutput drops output from superseded runs.
	HideStaleOutput *bool `toml:"hide_stale_output"`

	// KillSuperseded kills the previous test process when a new run starts.
	KillSuperseded *bool `toml:"kill_superseded"`

	// Theme is "auto", "dark" or "light".
	Theme string `toml:"theme"`
}

// LoadFileConfig reads configuration from .testpilot/config.toml in the root directory.
// Returns nil if the file doesn't exist (not an error).
func LoadFileConfig(root string) (*FileConfig, error) {
	configPath := filepath.Join(root, ".testpilot", "config.toml")
	return LoadFileConfigFrom(configPath)
}

// LoadFileConfigFrom reads configuration from a specific file path.
// Returns nil if the file doesn't exist (not an error).
func LoadFileConfigFrom(configPath string) (*FileConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cfg FileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", configPath, err)
	}

	return &cfg, nil
}

// ApplyTo copies every value set in the file onto cfg.
func (fc *FileConfig) ApplyTo(cfg *Config) error {
	if fc == nil {
		return nil
	}
	if fc.Capacity != 0 {
		cfg.BufferCapacity = fc.Capacity
	}
	if fc.PollInterval != "" {
		d, err := time.ParseDuration(fc.PollInterval)
		if err != nil {
			return fmt.Errorf("poll_interval: %w", err)
		}
		cfg.PollInterval = d
	}
	if fc.ChannelSize != 0 {
		cfg.ChannelSize = fc.ChannelSize
	}
	if fc.Runner != "" {
		cfg.Runner = fc.Runner
	}
	if fc.CustomRunner != nil {
		cfg.CustomRunner = *fc.CustomRunner
	}
	if len(fc.ExtraArgs) > 0 {
		cfg.ExtraArgs = append([]string(nil), fc.ExtraArgs...)
	}
	if fc.IncludeHidden != nil {
		cfg.IncludeHidden = *fc.IncludeHidden
	}
	if len(fc.Exclude) > 0 {
		cfg.Exclude = append([]string(nil), fc.Exclude...)
	}
	if fc.Watch != nil {
		cfg.Watch = *fc.Watch
	}
	if len(fc.WatchExclude) > 0 {
		cfg.WatchExclude = append([]string(nil), fc.WatchExclude...)
	}
	if fc.HideStaleOutput != nil {
		cfg.HideStaleOutput = *fc.HideStaleOutput
	}
	if fc.KillSuperseded != nil {
		cfg.KillSuperseded = *fc.KillSuperseded
	}
	if fc.Theme != "" {
		cfg.Theme = fc.Theme
	}
	return nil
}

// ExpandArgs returns a copy of args with every {{test}} placeholder replaced by testName.
func ExpandArgs(args []string, testName string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = strings.ReplaceAll(arg, TestPlaceholder, testName)
	}
	return out
}
