package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/flashingpumpkin/testpilot/internal/config"
	"github.com/flashingpumpkin/testpilot/internal/discovery"
	"github.com/flashingpumpkin/testpilot/internal/output"
	"github.com/flashingpumpkin/testpilot/internal/runner"
)

func newListCmd(v *viper.Viper) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the discovered tests without starting the console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			closeLog, err := startLogging(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			showSpinner := !quiet && term.IsTerminal(int(os.Stderr.Fd()))
			return runList(ctx, cfg, cmd.OutOrStdout(), quiet, showSpinner)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the catalog")

	return cmd
}

// runList scans cfg.Root and prints the catalog to w.
func runList(ctx context.Context, cfg *config.Config, w io.Writer, quiet, showSpinner bool) error {
	d, err := discovery.NewGoDiscoverer(discovery.Options{
		IncludeHidden: cfg.IncludeHidden,
		Exclude:       cfg.Exclude,
	})
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	var s *spinner.Spinner
	if showSpinner {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		s.Suffix = " Scanning " + cfg.Root
		s.Start()
	}

	start := time.Now()
	groups, err := d.Scan(ctx, cfg.Root)
	elapsed := time.Since(start)

	if s != nil {
		s.Stop()
	}
	if err != nil {
		return fmt.Errorf("scanning %s: %w", cfg.Root, err)
	}

	formatter := output.NewFormatter(quiet, w)
	if len(groups) == 0 {
		formatter.PrintEmpty(cfg.Root)
		return nil
	}

	runnerName := cfg.Runner
	if !quiet {
		r, err := runner.Select(ctx, cfg, runner.ExecProbe)
		if err != nil {
			return err
		}
		runnerName = r.Name
	}

	formatter.PrintCatalog(groups, output.CatalogSummary{
		Root:     cfg.Root,
		Runner:   runnerName,
		Duration: elapsed,
	})
	return nil
}
