package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog"

	"github.com/flashingpumpkin/testpilot/internal/config"
	"github.com/flashingpumpkin/testpilot/internal/discovery"
	tperrors "github.com/flashingpumpkin/testpilot/internal/errors"
	"github.com/flashingpumpkin/testpilot/internal/logging"
	"github.com/flashingpumpkin/testpilot/internal/output"
	"github.com/flashingpumpkin/testpilot/internal/render"
	"github.com/flashingpumpkin/testpilot/internal/runner"
	"github.com/flashingpumpkin/testpilot/internal/session"
	"github.com/flashingpumpkin/testpilot/internal/watch"
)

var errNoPipeline = errors.New("no pipeline configured")

// tabWidth is the number of spaces a tab in test output expands to.
const tabWidth = 4

// Options configures a Model.
type Options struct {
	// Context bounds discovery scans. Defaults to context.Background.
	Context context.Context

	// Root is the directory that is scanned for tests.
	Root string

	Discoverer discovery.TestDiscoverer
	Pipeline   *runner.Pipeline

	// Coordinator reports pending watch runs. May be nil.
	Coordinator *watch.Coordinator

	BufferCapacity int
	PollInterval   time.Duration

	// HideStaleOutput drops lines from runs superseded by a newer one.
	HideStaleOutput bool

	// Watch starts the session with watch mode on.
	Watch bool

	// Theme must be resolved; ThemeAuto renders with the dark palette.
	Theme Theme
}

// Model is the bubbletea model of the test console.
//
// Buffer and State are pointers so the value copies made by bubbletea share
// them; both are only touched from Update.
type Model struct {
	ctx         context.Context
	root        string
	discoverer  discovery.TestDiscoverer
	pipeline    *runner.Pipeline
	coordinator *watch.Coordinator

	buffer *output.Buffer
	state  *session.State

	pollInterval time.Duration
	hideStale    bool
	lastRun      uint64

	layout Layout
	styles Styles
	keys   KeyMap
	help   help.Model

	logger zerolog.Logger

	// ready is false until the first WindowSizeMsg is received
	ready bool
}

// NewModel creates a new console model.
func NewModel(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = config.DefaultPollInterval
	}

	state := session.New()
	state.SetWatch(opts.Watch)

	styles := GetStyles(opts.Theme)
	h := help.New()
	h.ShortSeparator = "  "
	h.Styles.ShortKey = styles.HelpKey
	h.Styles.ShortDesc = styles.HelpBar
	h.Styles.ShortSeparator = styles.HelpBar

	return Model{
		ctx:          ctx,
		root:         opts.Root,
		discoverer:   opts.Discoverer,
		pipeline:     opts.Pipeline,
		coordinator:  opts.Coordinator,
		buffer:       output.NewBuffer(opts.BufferCapacity),
		state:        state,
		pollInterval: interval,
		hideStale:    opts.HideStaleOutput,
		styles:       styles,
		keys:         DefaultKeyMap(),
		help:         h,
		logger:       logging.Component("tui"),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.scanCmd(false), m.tickCmd())
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) scanCmd(rescan bool) tea.Cmd {
	if m.discoverer == nil {
		return nil
	}
	ctx, d, root := m.ctx, m.discoverer, m.root
	return func() tea.Msg {
		groups, err := d.Scan(ctx, root)
		return ScanDoneMsg{Groups: groups, Err: err, Rescan: rescan}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = CalculateLayout(msg.Width, msg.Height)
		m.ready = true
		m.help.Width = msg.Width
		m.state.SetViewportHeight(m.layout.ViewportHeight())
		return m, nil

	case tickMsg:
		m.drainOutput()
		if m.coordinator.Tick(m.state.Watching()) {
			if err := m.runSelected(false); err != nil {
				m.logger.Debug().Err(err).Msg("watch run skipped")
			}
		}
		return m, m.tickCmd()

	case ScanDoneMsg:
		m.applyScan(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.state.Quit()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.PrevPane):
		m.state.PaneLeft()
	case key.Matches(msg, m.keys.Right), key.Matches(msg, m.keys.NextPane):
		m.state.PaneRight()
	case key.Matches(msg, m.keys.Down):
		m.state.MoveDown()
	case key.Matches(msg, m.keys.Up):
		m.state.MoveUp()
	case key.Matches(msg, m.keys.PageDown):
		m.state.PageDown()
	case key.Matches(msg, m.keys.PageUp):
		m.state.PageUp()
	case key.Matches(msg, m.keys.Watch):
		on := m.state.ToggleWatch()
		m.logger.Debug().Bool("watch", on).Msg("watch toggled")
	case key.Matches(msg, m.keys.Follow):
		m.state.FollowTail()
	case key.Matches(msg, m.keys.Clear):
		m.clearOutput()
	case key.Matches(msg, m.keys.Confirm):
		cmd := m.perform(m.state.Confirm())
		return m, cmd
	case key.Matches(msg, m.keys.Rescan):
		cmd := m.perform(m.state.Rescan())
		return m, cmd
	}
	return m, nil
}

func (m *Model) perform(action session.Action) tea.Cmd {
	switch action {
	case session.ActionRun:
		if err := m.runSelected(true); err != nil {
			m.logger.Debug().Err(err).Msg("run skipped")
		}
	case session.ActionRescan:
		m.appendOutput("Rescanning for tests...\n")
		return m.scanCmd(true)
	}
	return nil
}

// runSelected starts the selected test. Runs started from the test list
// clear the output first; watch runs append to it.
func (m *Model) runSelected(clear bool) error {
	if m.pipeline == nil {
		return errNoPipeline
	}
	g, ok := m.state.SelectedGroup()
	if !ok {
		return tperrors.ErrNoTestSelected
	}
	name, ok := m.state.SelectedTest()
	if !ok {
		return tperrors.ErrNoTestSelected
	}

	if clear {
		m.clearOutput()
	}
	h := m.pipeline.Run(runner.RequestFor(g.Path, name))
	m.lastRun = h.ID
	return nil
}

// drainOutput moves every line queued at the time of the call into the buffer.
func (m *Model) drainOutput() {
	if m.pipeline == nil {
		return
	}
	ch := m.pipeline.Output()
	for n := len(ch); n > 0; n-- {
		line := <-ch
		if m.hideStale && line.RunID != m.lastRun {
			continue
		}
		m.buffer.Append(line.Text)
	}
	m.state.SyncOutput(m.buffer.Len())
}

func (m *Model) appendOutput(text string) {
	m.buffer.Append(text)
	m.state.SyncOutput(m.buffer.Len())
}

func (m *Model) clearOutput() {
	m.buffer.Clear()
	m.state.ResetOutput()
}

func (m *Model) applyScan(msg ScanDoneMsg) {
	if msg.Err != nil {
		m.logger.Error().Err(msg.Err).Str("root", m.root).Msg("discovery failed")
		m.appendOutput(fmt.Sprintf("Discovery failed: %v\n", msg.Err))
		return
	}

	m.state.SetCatalog(msg.Groups)
	m.logger.Info().Int("files", len(msg.Groups)).Bool("rescan", msg.Rescan).Msg("catalog updated")
	if msg.Rescan {
		m.appendOutput(fmt.Sprintf("Rescan complete. Found %d test files.\n", len(msg.Groups)))
	}
}

// Buffer returns the output buffer.
func (m Model) Buffer() *output.Buffer { return m.buffer }

// State returns the session state.
func (m Model) State() *session.State { return m.state }

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.layout.TooSmall {
		return m.styles.TooSmallMessage.Render(m.layout.TooSmallMessage)
	}

	left := lipgloss.JoinVertical(lipgloss.Left, m.renderFiles(), m.renderTests())
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, m.renderOutput())
	return body + "\n" + m.renderHelpBar()
}

func (m Model) renderFiles() string {
	groups := m.state.Groups()
	items := make([]string, len(groups))
	for i, g := range groups {
		items[i] = m.displayPath(g.Path)
	}
	return m.renderList("Test Files", "No test files", items, m.state.GroupIndex(),
		m.layout.LeftWidth, m.layout.FilesHeight, m.state.Focus() == session.PaneFiles)
}

func (m Model) renderTests() string {
	return m.renderList("Tests", "No tests", m.state.Tests(), m.state.TestIndex(),
		m.layout.LeftWidth, m.layout.TestsHeight, m.state.Focus() == session.PaneTests)
}

// renderList renders a framed list that keeps the selected item visible.
func (m Model) renderList(title, empty string, items []string, selected, width, height int, focused bool) string {
	inner := height - FrameSize
	contentWidth := width - FrameSize
	if inner <= 0 || contentWidth <= 0 {
		return ""
	}

	var rows []string
	if len(items) == 0 {
		rows = append(rows, m.styles.Empty.Render(fit(" "+empty, contentWidth)))
	}

	start := 0
	if selected >= inner {
		start = selected - inner + 1
	}
	for i := start; i < len(items) && len(rows) < inner; i++ {
		if i != selected {
			rows = append(rows, m.styles.Item.Render(fit(IconUnselected+" "+items[i], contentWidth)))
			continue
		}
		style := m.styles.SelectedInactive
		if focused {
			style = m.styles.Selected
		}
		rows = append(rows, style.Render(fit(IconSelected+" "+items[i], contentWidth)))
	}

	return m.renderPane(title, rows, width, height, focused)
}

func (m Model) renderOutput() string {
	width := m.layout.OutputWidth
	contentWidth := m.layout.OutputContentWidth()

	title := fmt.Sprintf("Test Output (Scroll: %d/%d)", m.state.Scroll(), m.buffer.Len())
	focused := m.state.Focus() == session.PaneOutput
	if focused {
		title = m.styles.TitleFocused.Render(title)
	} else {
		title = m.styles.Title.Render(title)
	}
	if m.state.Watching() {
		title += " " + m.styles.WatchMarker.Render("[watch]")
	}
	if m.state.Pinned() {
		title += " " + m.styles.PinnedMarker.Render("[pinned]")
	}

	lines := m.buffer.Slice(m.state.Scroll(), m.layout.ViewportHeight())
	rows := make([]string, len(lines))
	for i, line := range lines {
		line = strings.ReplaceAll(line, "\t", strings.Repeat(" ", tabWidth))
		rows[i] = ansi.Truncate(render.StyledLine(line), contentWidth, "")
	}

	return m.renderFrame(title, rows, width, m.layout.OutputHeight, focused)
}

// renderPane frames rows under a plain title.
func (m Model) renderPane(title string, rows []string, width, height int, focused bool) string {
	if focused {
		title = m.styles.TitleFocused.Render(title)
	} else {
		title = m.styles.Title.Render(title)
	}
	return m.renderFrame(title, rows, width, height, focused)
}

// renderFrame draws a rounded frame of the given outer size around rows.
// Rows are padded to the inner width; missing rows are left blank.
func (m Model) renderFrame(title string, rows []string, width, height int, focused bool) string {
	border := m.styles.Border
	if focused {
		border = m.styles.BorderFocused
	}
	contentWidth := width - FrameSize
	inner := height - FrameSize
	if contentWidth < 0 || inner < 0 {
		return ""
	}

	side := border.Render(FrameVertical)
	lines := make([]string, 0, height)
	lines = append(lines, RenderFrameTop(title, width, border))
	for i := 0; i < inner; i++ {
		row := ""
		if i < len(rows) {
			row = rows[i]
		}
		pad := max(0, contentWidth-ansi.StringWidth(row))
		lines = append(lines, side+row+strings.Repeat(" ", pad)+side)
	}
	lines = append(lines, RenderFrameBottom(width, border))
	return strings.Join(lines, "\n")
}

func (m Model) renderHelpBar() string {
	return ansi.Truncate(" "+m.help.View(m.keys), m.layout.Width, "…")
}

// displayPath shows a file path relative to the scanned root when possible.
func (m Model) displayPath(path string) string {
	if m.root == "" {
		return path
	}
	rel, err := filepath.Rel(m.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// fit truncates plain text to width cells.
func fit(s string, width int) string {
	return ansi.Truncate(s, width, "…")
}
