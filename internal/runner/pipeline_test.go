package runner

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shRunner runs script through sh -c; {{test}} in script is replaced with the test name.
func shRunner(script string) Runner {
	return Runner{Name: "custom", Program: "sh", Args: []string{"-c", script}}
}

// collect waits for h to finish and returns its lines with colour stripped.
func collect(t *testing.T, p *Pipeline, h *RunHandle) []string {
	t.Helper()

	select {
	case <-h.Done():
	case <-time.After(10 * time.Second):
		t.Fatalf("run %d did not finish", h.ID)
	}

	var lines []string
	for _, l := range drain(p) {
		if l.RunID == h.ID {
			lines = append(lines, ansi.Strip(l.Text))
		}
	}
	return lines
}

// drain returns every line currently queued on the output channel.
func drain(p *Pipeline) []Line {
	var lines []Line
	for {
		select {
		case l := <-p.Output():
			lines = append(lines, l)
		default:
			return lines
		}
	}
}

// mustState runs script and returns its exit state.
func mustState(t *testing.T, script string) *os.ProcessState {
	t.Helper()
	cmd := exec.Command("sh", "-c", script)
	_ = cmd.Run()
	require.NotNil(t, cmd.ProcessState)
	return cmd.ProcessState
}

func TestPipeline_RunStreamsOutput(t *testing.T) {
	p := New(shRunner("echo out-{{test}}; echo err-{{test}} >&2"), Options{})
	defer p.Close()

	h := p.Run(Request{TestName: "TestA", Dir: t.TempDir()})
	lines := collect(t, p, h)

	require.Len(t, lines, 4)
	assert.Equal(t, "Running test: TestA\n", lines[0])
	assert.ElementsMatch(t, []string{"out-TestA\n", "err-TestA\n"}, lines[1:3])
	assert.Equal(t, "Test finished with status: exit status 0\n", lines[3])
	assert.Equal(t, 0, h.ExitCode())
	assert.NotZero(t, h.PID())
}

func TestPipeline_FailingTestReportsStatus(t *testing.T) {
	p := New(shRunner("echo FAIL; exit 3"), Options{})
	defer p.Close()

	h := p.Run(Request{TestName: "TestB", Dir: t.TempDir()})
	lines := collect(t, p, h)

	require.NotEmpty(t, lines)
	assert.Equal(t, "Test finished with status: exit status 3\n", lines[len(lines)-1])
	assert.Equal(t, 3, h.ExitCode())
}

func TestStatusLine(t *testing.T) {
	assert.True(t, strings.HasSuffix(statusLine(mustState(t, "exit 0")), "\n"))
	assert.Equal(t, "Test finished with status: exit status 1\n", ansi.Strip(statusLine(mustState(t, "exit 1"))))
}

func TestPipeline_SpawnFailure(t *testing.T) {
	p := New(Runner{Name: "custom", Program: "/nonexistent/testpilot-runner"}, Options{})
	defer p.Close()

	h := p.Run(Request{TestName: "TestC", Dir: t.TempDir()})
	lines := collect(t, p, h)

	require.Len(t, lines, 2)
	assert.Equal(t, "Running test: TestC\n", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Failed to start test: "), lines[1])
	assert.Equal(t, -1, h.ExitCode())
}

func TestPipeline_PerStreamOrder(t *testing.T) {
	p := New(shRunner("i=0; while [ $i -lt 200 ]; do echo $i; i=$((i+1)); done"), Options{})
	defer p.Close()

	h := p.Run(Request{TestName: "TestOrder", Dir: t.TempDir()})
	lines := collect(t, p, h)

	require.Len(t, lines, 202)
	for i := range 200 {
		require.Equal(t, fmt.Sprintf("%d\n", i), lines[i+1])
	}
}

func TestPipeline_RunsInRequestDir(t *testing.T) {
	dir := t.TempDir()
	p := New(shRunner("pwd"), Options{})
	defer p.Close()

	h := p.Run(Request{TestName: "TestDir", Dir: dir})
	lines := collect(t, p, h)
	require.Len(t, lines, 3)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(strings.TrimSpace(lines[1]))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPipeline_RunIDsIncrease(t *testing.T) {
	p := New(shRunner("true"), Options{})
	defer p.Close()

	first := p.Run(Request{TestName: "TestA", Dir: t.TempDir()})
	second := p.Run(Request{TestName: "TestB", Dir: t.TempDir()})

	assert.Greater(t, second.ID, first.ID)
	assert.Same(t, second, p.Current())
	p.Wait()
}

func TestPipeline_SupersededRunKeepsStreaming(t *testing.T) {
	p := New(shRunner("sleep 0.2; echo done-{{test}}"), Options{})
	defer p.Close()

	first := p.Run(Request{TestName: "TestA", Dir: t.TempDir()})
	second := p.Run(Request{TestName: "TestB", Dir: t.TempDir()})
	p.Wait()

	byRun := map[uint64][]string{}
	for _, l := range drain(p) {
		byRun[l.RunID] = append(byRun[l.RunID], ansi.Strip(l.Text))
	}

	assert.Contains(t, byRun[first.ID], "done-TestA\n")
	assert.Contains(t, byRun[second.ID], "done-TestB\n")
	assert.Equal(t, 0, first.ExitCode())
}

func TestPipeline_KillSuperseded(t *testing.T) {
	p := New(shRunner("exec sleep 30"), Options{KillSuperseded: true})
	defer p.Close()

	first := p.Run(Request{TestName: "TestA", Dir: t.TempDir()})
	require.Eventually(t, func() bool { return first.PID() != 0 }, 5*time.Second, 10*time.Millisecond)

	second := p.Run(Request{TestName: "TestB", Dir: t.TempDir()})

	select {
	case <-first.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("superseded run was not killed")
	}
	assert.Equal(t, -1, first.ExitCode())
	require.NoError(t, second.Kill())
}

func TestPipeline_CloseStopsDelivery(t *testing.T) {
	p := New(shRunner("exec sleep 30"), Options{ChannelSize: 1})

	h := p.Run(Request{TestName: "TestA", Dir: t.TempDir()})
	require.Eventually(t, func() bool { return h.PID() != 0 }, 5*time.Second, 10*time.Millisecond)
	p.Close()
	p.Close()

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish after Close")
	}

	after := p.Run(Request{TestName: "TestB", Dir: t.TempDir()})
	<-after.Done()
	p.Wait()
}

func TestPipeline_FullChannelDoesNotBlockAfterClose(t *testing.T) {
	p := New(shRunner("i=0; while [ $i -lt 100 ]; do echo $i; i=$((i+1)); done"), Options{ChannelSize: 1})

	h := p.Run(Request{TestName: "TestFlood", Dir: t.TempDir()})
	// Nobody reads; the run blocks on the full channel until Close.
	time.Sleep(50 * time.Millisecond)
	p.Close()

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run blocked after Close")
	}
}

// closeAndWait closes p and reports how long it took for every run to return.
func closeAndWait(t *testing.T, p *Pipeline) time.Duration {
	t.Helper()
	start := time.Now()
	p.Close()

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Wait did not return after Close")
	}
	return time.Since(start)
}

func TestPipeline_CloseKillsSupersededRuns(t *testing.T) {
	p := New(Runner{Name: "custom", Program: "sleep", Args: []string{"5"}}, Options{})

	first := p.Run(Request{TestName: "TestA", Dir: t.TempDir()})
	second := p.Run(Request{TestName: "TestB", Dir: t.TempDir()})
	require.Eventually(t, func() bool { return first.PID() != 0 && second.PID() != 0 }, 5*time.Second, 10*time.Millisecond)

	elapsed := closeAndWait(t, p)

	assert.Less(t, elapsed, 2*time.Second)
	assert.Equal(t, -1, first.ExitCode())
	assert.Equal(t, -1, second.ExitCode())
}

func TestPipeline_CloseDoesNotWaitForChildrenHoldingOutput(t *testing.T) {
	// sh forks sleep, which inherits the output pipes and outlives the killed shell.
	p := New(shRunner("sleep 5; echo done"), Options{})

	h := p.Run(Request{TestName: "TestA", Dir: t.TempDir()})
	require.Eventually(t, func() bool { return h.PID() != 0 }, 5*time.Second, 10*time.Millisecond)

	elapsed := closeAndWait(t, p)

	assert.Less(t, elapsed, 2*time.Second)
}

func TestPipeline_FinishesWhenBackgroundChildKeepsOutputOpen(t *testing.T) {
	p := New(shRunner("sleep 5 & echo started"), Options{})
	defer p.Close()

	start := time.Now()
	h := p.Run(Request{TestName: "TestA", Dir: t.TempDir()})
	lines := collect(t, p, h)

	assert.Less(t, time.Since(start), 3*time.Second)
	require.Len(t, lines, 3)
	assert.Equal(t, "started\n", lines[1])
	assert.Equal(t, "Test finished with status: exit status 0\n", lines[2])
}

func TestRequestFor(t *testing.T) {
	req := RequestFor(filepath.Join("pkg", "parse", "parse_test.go"), "TestParse")

	assert.Equal(t, Request{TestName: "TestParse", Dir: filepath.Join("pkg", "parse")}, req)
}
