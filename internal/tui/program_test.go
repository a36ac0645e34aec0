package tui

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/flashingpumpkin/testpilot/internal/discovery"
)

func TestProgram_RunAndQuit(t *testing.T) {
	var out bytes.Buffer
	prog := New(Options{
		Discoverer: stubDiscoverer{groups: []discovery.TestGroup{{Path: "/p/a_test.go", Tests: []string{"TestA"}}}},
		Theme:      ThemeDark,
	}, tea.WithInput(nil), tea.WithOutput(&out))

	if prog == nil {
		t.Fatal("expected non-nil Program")
	}

	errCh := make(chan error, 1)
	go func() { errCh <- prog.Run() }()

	prog.Quit()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		prog.Kill()
		t.Fatal("program did not exit after Quit")
	}
}
