package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/flashingpumpkin/testpilot/internal/config"
	"github.com/flashingpumpkin/testpilot/internal/discovery"
	tperrors "github.com/flashingpumpkin/testpilot/internal/errors"
	"github.com/flashingpumpkin/testpilot/internal/logging"
	"github.com/flashingpumpkin/testpilot/internal/runner"
	"github.com/flashingpumpkin/testpilot/internal/tui"
	"github.com/flashingpumpkin/testpilot/internal/watch"
)

// envPrefix namespaces environment overrides, e.g. TESTPILOT_RUNNER=go.
const envPrefix = "TESTPILOT"

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "testpilot",
		Short: "Interactive console for running Go tests",
		Long: `testpilot discovers the Go tests under a directory and lets you browse
and run them one at a time, streaming the output live.

KEYS

    h/l, tab     move between the file, test and output panes
    j/k, d/u     move the selection or scroll the output
    enter        run the selected test (rescan in the file list)
    w            toggle watch mode: rerun the test when files change
    r            rescan for tests
    f, c         follow the output tail, clear the output
    q            quit

CONFIGURATION FILE

testpilot reads .testpilot/config.toml in the root directory, or the file
named by --config. Flags and TESTPILOT_* environment variables override it.`,
		Args:          cobra.NoArgs,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd.Context(), v)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringP("root", "d", ".", "Directory to scan for tests")
	flags.StringP("config", "c", "", "Path to config file (default: <root>/.testpilot/config.toml)")
	flags.String("runner", config.RunnerAuto, "Test runner: auto, gotestsum, go or custom")
	flags.StringSlice("extra-args", nil, "Extra arguments passed to go test")
	flags.BoolP("watch", "w", false, "Start with watch mode enabled")
	flags.Bool("include-hidden", false, "Scan and watch dot-files and dot-directories")
	flags.StringSlice("exclude", nil, "Glob of paths to skip, relative to the root (repeatable)")
	flags.StringSlice("watch-exclude", nil, "Glob of paths that never trigger a watch run (repeatable)")
	flags.Int("capacity", config.DefaultBufferCapacity, "Number of output lines kept for scrollback")
	flags.Duration("poll-interval", config.DefaultPollInterval, "How often output and file changes are checked")
	flags.Int("channel-size", config.DefaultChannelSize, "Capacity of the output channel")
	flags.Bool("hide-stale-output", false, "Drop output from runs superseded by a newer run")
	flags.Bool("kill-superseded", false, "Kill the previous test process when a new run starts")
	flags.String("theme", string(tui.ThemeAuto), "Colour theme: auto, dark or light")
	flags.Bool("debug", false, "Write debug logs to --log-file")
	flags.String("log-file", "testpilot.log", "Debug log path")

	_ = v.BindPFlags(flags)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd.AddCommand(newListCmd(v))

	return cmd
}

// loadConfig layers defaults, the config file, then flags and environment.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Root = v.GetString("root")

	var (
		fileConfig *config.FileConfig
		err        error
	)
	if path := v.GetString("config"); path != "" {
		fileConfig, err = config.LoadFileConfigFrom(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		if fileConfig == nil {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
	} else {
		fileConfig, err = config.LoadFileConfig(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}
	if err := fileConfig.ApplyTo(cfg); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}

	if v.IsSet("runner") {
		cfg.Runner = v.GetString("runner")
	}
	if v.IsSet("extra-args") {
		cfg.ExtraArgs = v.GetStringSlice("extra-args")
	}
	if v.IsSet("watch") {
		cfg.Watch = v.GetBool("watch")
	}
	if v.IsSet("include-hidden") {
		cfg.IncludeHidden = v.GetBool("include-hidden")
	}
	if v.IsSet("exclude") {
		cfg.Exclude = v.GetStringSlice("exclude")
	}
	if v.IsSet("watch-exclude") {
		cfg.WatchExclude = v.GetStringSlice("watch-exclude")
	}
	if v.IsSet("capacity") {
		cfg.BufferCapacity = v.GetInt("capacity")
	}
	if v.IsSet("poll-interval") {
		cfg.PollInterval = v.GetDuration("poll-interval")
	}
	if v.IsSet("channel-size") {
		cfg.ChannelSize = v.GetInt("channel-size")
	}
	if v.IsSet("hide-stale-output") {
		cfg.HideStaleOutput = v.GetBool("hide-stale-output")
	}
	if v.IsSet("kill-superseded") {
		cfg.KillSuperseded = v.GetBool("kill-superseded")
	}
	if v.IsSet("theme") {
		cfg.Theme = v.GetString("theme")
	}
	cfg.Debug = v.GetBool("debug")
	cfg.LogFile = v.GetString("log-file")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", cfg.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}
	cfg.Root = root

	return cfg, nil
}

// startLogging points the logger at the log file when debugging is enabled.
// The returned function closes it.
func startLogging(cfg *config.Config) (func(), error) {
	if !cfg.Debug {
		return func() {}, nil
	}
	return logging.InitFile(cfg.LogFile, "debug")
}

func runConsole(parent context.Context, v *viper.Viper) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return tperrors.ErrNotATerminal
	}

	closeLog, err := startLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := setupSignalHandler(parent)
	defer cancel()

	log := logging.Component("cli")

	r, err := runner.Select(ctx, cfg, runner.ExecProbe)
	if err != nil {
		return err
	}
	log.Info().Str("runner", r.Name).Str("root", cfg.Root).Msg("starting console")

	discoverer, err := discovery.NewGoDiscoverer(discovery.Options{
		IncludeHidden: cfg.IncludeHidden,
		Exclude:       cfg.Exclude,
	})
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	pipeline := runner.New(r, runner.Options{
		ChannelSize:    cfg.ChannelSize,
		KillSuperseded: cfg.KillSuperseded,
	})
	defer func() {
		pipeline.Close()
		pipeline.Wait()
	}()

	var notifier watch.ChangeNotifier
	fsn, err := watch.NewFSNotifier(cfg.Root, watch.Options{
		IncludeHidden: cfg.IncludeHidden,
		Exclude:       append(append([]string(nil), cfg.Exclude...), cfg.WatchExclude...),
	})
	if err != nil {
		log.Warn().Err(err).Msg("file watching unavailable")
	} else {
		defer fsn.Close()
		notifier = fsn
	}

	theme, err := tui.ParseTheme(cfg.Theme)
	if err != nil {
		return err
	}

	prog := tui.New(tui.Options{
		Context:         ctx,
		Root:            cfg.Root,
		Discoverer:      discoverer,
		Pipeline:        pipeline,
		Coordinator:     watch.NewCoordinator(notifier),
		BufferCapacity:  cfg.BufferCapacity,
		PollInterval:    cfg.PollInterval,
		HideStaleOutput: cfg.HideStaleOutput,
		Watch:           cfg.Watch,
		Theme:           tui.ResolveTheme(theme, os.Stdout),
	})

	if err := prog.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
