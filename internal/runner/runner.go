// Package runner selects the test command and executes test runs, streaming
// their output over a single channel.
package runner

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/flashingpumpkin/testpilot/internal/config"
	tperrors "github.com/flashingpumpkin/testpilot/internal/errors"
	"github.com/flashingpumpkin/testpilot/internal/logging"
)

// probeTimeout bounds how long a capability probe may take.
const probeTimeout = 5 * time.Second

// Runner describes how to run a single test. Args may contain the {{test}}
// placeholder, which is replaced with the anchored test name.
type Runner struct {
	// Name identifies the runner in logs and the UI.
	Name string

	// Program is the executable to run.
	Program string

	// Args are the argument templates.
	Args []string
}

// GoTest returns the runner for `go test -run ^<name>$ -count=1 -v <extra...> .`.
func GoTest(extra []string) Runner {
	args := []string{"test", "-run", "^" + config.TestPlaceholder + "$", "-count=1", "-v"}
	args = append(args, extra...)
	args = append(args, ".")
	return Runner{Name: config.RunnerGo, Program: "go", Args: args}
}

// Gotestsum returns the runner for gotestsum in standard-verbose format.
func Gotestsum(extra []string) Runner {
	args := []string{"--format", "standard-verbose", "--", "-run", "^" + config.TestPlaceholder + "$", "-count=1", "-v"}
	args = append(args, extra...)
	args = append(args, ".")
	return Runner{Name: config.RunnerGotestsum, Program: "gotestsum", Args: args}
}

// Command returns the program and expanded arguments for testName.
func (r Runner) Command(testName string) (string, []string) {
	return r.Program, config.ExpandArgs(r.Args, testName)
}

// CommandLine returns the full command string that would be executed for testName.
func (r Runner) CommandLine(testName string) string {
	program, args := r.Command(testName)
	// Quote args that contain spaces
	quoted := make([]string, len(args))
	for i, arg := range args {
		if strings.ContainsAny(arg, " \n\t") {
			quoted[i] = fmt.Sprintf("%q", arg)
		} else {
			quoted[i] = arg
		}
	}
	return strings.TrimSpace(program + " " + strings.Join(quoted, " "))
}

// Prober reports whether a command can be run successfully.
type Prober func(ctx context.Context, program string, args ...string) bool

// ExecProbe runs the command with its output discarded and reports whether it exited zero.
func ExecProbe(ctx context.Context, program string, args ...string) bool {
	if _, err := exec.LookPath(program); err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return exec.CommandContext(ctx, program, args...).Run() == nil
}

// Select picks the runner named by cfg.Runner. For "auto" it probes for
// gotestsum once and falls back to go test. A custom runner whose probe fails
// also falls back to go test.
func Select(ctx context.Context, cfg *config.Config, probe Prober) (Runner, error) {
	if probe == nil {
		probe = ExecProbe
	}
	log := logging.Component("runner")

	switch cfg.Runner {
	case config.RunnerGo:
		return GoTest(cfg.ExtraArgs), nil
	case config.RunnerGotestsum:
		return Gotestsum(cfg.ExtraArgs), nil
	case config.RunnerAuto, "":
		if probe(ctx, "gotestsum", "--version") {
			log.Debug().Msg("gotestsum available")
			return Gotestsum(cfg.ExtraArgs), nil
		}
		log.Debug().Msg("gotestsum not available, using go test")
		return GoTest(cfg.ExtraArgs), nil
	case config.RunnerCustom:
		custom := cfg.CustomRunner
		if custom.Program == "" {
			return Runner{}, fmt.Errorf("%w: custom runner requires a program", tperrors.ErrInvalidRunner)
		}
		if len(custom.Probe) > 0 && !probe(ctx, custom.Probe[0], custom.Probe[1:]...) {
			log.Warn().Str("program", custom.Program).Msg("custom runner probe failed, using go test")
			return GoTest(cfg.ExtraArgs), nil
		}
		return Runner{Name: config.RunnerCustom, Program: custom.Program, Args: append([]string(nil), custom.Args...)}, nil
	default:
		return Runner{}, fmt.Errorf("%w: %q", tperrors.ErrInvalidRunner, cfg.Runner)
	}
}
