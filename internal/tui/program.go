package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Program wraps the tea.Program for lifecycle management.
type Program struct {
	program *tea.Program
}

// New creates the console program. The alternate screen is used unless
// extra options override the program's input and output.
func New(opts Options, extra ...tea.ProgramOption) *Program {
	// Handle NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	programOpts := append([]tea.ProgramOption{tea.WithAltScreen()}, extra...)
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}

	return &Program{
		program: tea.NewProgram(NewModel(opts), programOpts...),
	}
}

// Run starts the console. This blocks until the operator quits or the
// terminal fails; bubbletea restores the terminal in both cases.
func (p *Program) Run() error {
	if _, err := p.program.Run(); err != nil {
		return fmt.Errorf("running console: %w", err)
	}
	return nil
}

// Send sends a message to the program.
func (p *Program) Send(msg tea.Msg) {
	p.program.Send(msg)
}

// Quit sends a quit message to the program.
func (p *Program) Quit() {
	p.program.Quit()
}

// Kill forcefully terminates the program.
func (p *Program) Kill() {
	p.program.Kill()
}

// Wait waits for the program to finish.
func (p *Program) Wait() {
	p.program.Wait()
}
