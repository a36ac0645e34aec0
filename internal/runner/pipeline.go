package runner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/flashingpumpkin/testpilot/internal/config"
	"github.com/flashingpumpkin/testpilot/internal/logging"
)

const (
	// scannerInitialBufSize is the initial buffer size for the scanner (64KB).
	scannerInitialBufSize = 64 * 1024

	// scannerMaxBufSize is the maximum line size the scanner can handle (10MB).
	scannerMaxBufSize = 10 * 1024 * 1024

	// pipeDrainDelay bounds how long output is still read after the test
	// process exits. Children of the test process may hold the pipes open.
	pipeDrainDelay = 500 * time.Millisecond
)

// Line is one line of output, terminated by "\n", tagged with the run that produced it.
type Line struct {
	RunID uint64
	Text  string
}

// Request identifies the test to run.
type Request struct {
	// TestName is the test function name, e.g. "TestParse".
	TestName string

	// Dir is the package directory the test command runs in.
	Dir string
}

// RequestFor builds a Request for a test declared in the file at path.
func RequestFor(path, testName string) Request {
	return Request{TestName: testName, Dir: filepath.Dir(path)}
}

// RunHandle tracks one in-flight run.
type RunHandle struct {
	// ID increases with every run started by the pipeline.
	ID uint64

	// TestName is the test being run.
	TestName string

	mu       sync.Mutex
	process  *os.Process
	exitCode int
	done     chan struct{}
}

// PID returns the process ID, or 0 if the process has not started.
func (h *RunHandle) PID() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.process == nil {
		return 0
	}
	return h.process.Pid
}

// Done is closed once the process has exited and both readers have finished.
func (h *RunHandle) Done() <-chan struct{} {
	return h.done
}

// ExitCode returns the exit code once Done is closed, and -1 before that or
// when the process never started or was killed by a signal.
func (h *RunHandle) ExitCode() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode
}

// Kill kills the process if it is still running.
func (h *RunHandle) Kill() error {
	h.mu.Lock()
	proc := h.process
	h.mu.Unlock()

	if proc == nil {
		return nil
	}
	select {
	case <-h.done:
		return nil
	default:
	}
	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("killing pid %d: %w", proc.Pid, err)
	}
	return nil
}

func (h *RunHandle) setProcess(p *os.Process) {
	h.mu.Lock()
	h.process = p
	h.mu.Unlock()
}

func (h *RunHandle) setExitCode(code int) {
	h.mu.Lock()
	h.exitCode = code
	h.mu.Unlock()
}

// Options configures a Pipeline.
type Options struct {
	// ChannelSize is the capacity of the output channel.
	ChannelSize int

	// KillSuperseded kills the previous run's process when a new run starts.
	KillSuperseded bool
}

// Pipeline runs tests and funnels the output of every run into one channel.
//
// Each run has one goroutine waiting on the process and one reader goroutine
// per output stream. The consumer drains Output; once Close is called, senders
// stop silently and every live run is killed.
type Pipeline struct {
	runner         Runner
	killSuperseded bool

	out       chan Line
	done      chan struct{}
	closeOnce sync.Once

	nextID  atomic.Uint64
	mu      sync.Mutex
	current *RunHandle
	live    map[uint64]*RunHandle
	wg      sync.WaitGroup

	logger zerolog.Logger
}

// New creates a Pipeline that runs tests with r.
func New(r Runner, opts Options) *Pipeline {
	size := opts.ChannelSize
	if size <= 0 {
		size = config.DefaultChannelSize
	}
	return &Pipeline{
		runner:         r,
		killSuperseded: opts.KillSuperseded,
		out:            make(chan Line, size),
		done:           make(chan struct{}),
		live:           make(map[uint64]*RunHandle),
		logger:         logging.Component("pipeline"),
	}
}

// Runner returns the runner used for every run.
func (p *Pipeline) Runner() Runner {
	return p.runner
}

// Output returns the channel carrying the output of all runs.
func (p *Pipeline) Output() <-chan Line {
	return p.out
}

// Run starts a test run in the background and returns immediately.
// The previous run is left running unless KillSuperseded is set.
func (p *Pipeline) Run(req Request) *RunHandle {
	h := &RunHandle{
		ID:       p.nextID.Add(1),
		TestName: req.TestName,
		exitCode: -1,
		done:     make(chan struct{}),
	}

	p.mu.Lock()
	prev := p.current
	p.current = h
	p.live[h.ID] = h
	p.mu.Unlock()

	if prev != nil && p.killSuperseded {
		if err := prev.Kill(); err != nil {
			p.logger.Warn().Err(err).Uint64("run_id", prev.ID).Msg("failed to kill superseded run")
		}
	}

	p.wg.Add(1)
	go p.run(h, req)

	return h
}

// Current returns the most recently started run, or nil.
func (p *Pipeline) Current() *RunHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Close stops delivery of further output and kills every run that is still
// in flight, superseded ones included. It is safe to call more than once.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		close(p.done)

		p.mu.Lock()
		live := make([]*RunHandle, 0, len(p.live))
		for _, h := range p.live {
			live = append(live, h)
		}
		p.mu.Unlock()

		for _, h := range live {
			if err := h.Kill(); err != nil {
				p.logger.Warn().Err(err).Uint64("run_id", h.ID).Msg("failed to kill run on close")
			}
		}
	})
}

func (p *Pipeline) forget(h *RunHandle) {
	p.mu.Lock()
	delete(p.live, h.ID)
	p.mu.Unlock()
}

// Wait blocks until every run goroutine has returned.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) run(h *RunHandle, req Request) {
	defer p.wg.Done()
	defer close(h.done)
	defer p.forget(h)

	log := logging.WithRun(p.logger, h.ID, req.TestName)

	if !p.send(h.ID, fmt.Sprintf("Running test: %s\n", req.TestName)) {
		return
	}

	program, args := p.runner.Command(req.TestName)
	cmd := exec.Command(program, args...)
	cmd.Dir = req.Dir

	// exec copies the process output into these pipes and, once the process
	// has exited, gives up on the copy after WaitDelay.
	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW
	cmd.WaitDelay = pipeDrainDelay

	if err := cmd.Start(); err != nil {
		_ = stdoutW.Close()
		_ = stderrW.Close()
		p.failStart(h.ID, log, err)
		return
	}
	started := time.Now()
	h.setProcess(cmd.Process)
	log.Info().Int("pid", cmd.Process.Pid).Str("dir", req.Dir).Str("cmd", p.runner.CommandLine(req.TestName)).Msg("run started")

	// Close may have swept the live runs before the process was recorded.
	select {
	case <-p.done:
		if err := h.Kill(); err != nil {
			log.Warn().Err(err).Msg("failed to kill run after close")
		}
	default:
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go p.forward(h.ID, stdoutR, &readers, log)
	go p.forward(h.ID, stderrR, &readers, log)

	waitErr := cmd.Wait()
	_ = stdoutW.Close()
	_ = stderrW.Close()
	readers.Wait()

	state := cmd.ProcessState
	if state == nil {
		log.Error().Err(waitErr).Msg("wait failed")
		return
	}
	if errors.Is(waitErr, exec.ErrWaitDelay) {
		log.Debug().Msg("output still held open after exit, stopped reading")
	}
	h.setExitCode(state.ExitCode())
	log.Info().Int("exit_code", state.ExitCode()).Dur("duration", time.Since(started)).Msg("run finished")

	p.send(h.ID, statusLine(state))
}

func (p *Pipeline) failStart(id uint64, log zerolog.Logger, err error) {
	log.Error().Err(err).Msg("failed to start test")
	p.send(id, fmt.Sprintf("Failed to start test: %v\n", err))
}

// forward sends every line read from r. If the consumer has gone away or the
// line is too long, the rest of r is discarded so the process never blocks on
// a full pipe.
func (p *Pipeline) forward(id uint64, r io.Reader, wg *sync.WaitGroup, log zerolog.Logger) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	// Increase buffer size for long lines (10MB max)
	buf := make([]byte, 0, scannerInitialBufSize)
	scanner.Buffer(buf, scannerMaxBufSize)

	for scanner.Scan() {
		if !p.send(id, scanner.Text()+"\n") {
			_, _ = io.Copy(io.Discard, r)
			return
		}
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			p.send(id, fmt.Sprintf("output line exceeded %d byte limit, discarding the rest of the stream\n", scannerMaxBufSize))
		} else {
			log.Warn().Err(err).Msg("reading test output")
		}
		_, _ = io.Copy(io.Discard, r)
	}
}

// send delivers one line, returning false once the pipeline is closed.
func (p *Pipeline) send(id uint64, text string) bool {
	select {
	case <-p.done:
		return false
	default:
	}

	select {
	case p.out <- Line{RunID: id, Text: text}:
		return true
	case <-p.done:
		return false
	}
}

// statusLine formats the completion line, green on success and red otherwise.
func statusLine(state *os.ProcessState) string {
	c := color.New(color.FgRed)
	if state.Success() {
		c = color.New(color.FgGreen)
	}
	return c.Sprintf("Test finished with status: %s", state) + "\n"
}
