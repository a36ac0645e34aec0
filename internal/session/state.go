// Package session holds the navigation state of an interactive session:
// pane focus, catalog selection, watch mode and the output viewport.
//
// State is owned by the UI goroutine. None of its methods block.
package session

import "github.com/flashingpumpkin/testpilot/internal/discovery"

// Pane identifies one of the three panes.
type Pane int

// Panes in focus-cycle order.
const (
	PaneFiles Pane = iota
	PaneTests
	PaneOutput
)

const paneCount = 3

// String returns the pane name.
func (p Pane) String() string {
	switch p {
	case PaneFiles:
		return "files"
	case PaneTests:
		return "tests"
	case PaneOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Action is the side effect requested by a confirm or rescan input.
type Action int

const (
	// ActionNone requests nothing.
	ActionNone Action = iota
	// ActionRun requests a run of the selected test.
	ActionRun
	// ActionRescan requests a new discovery scan.
	ActionRescan
)

// State is the session state machine.
//
// Selection invariant: group and test index a valid entry, or are 0 when
// there is nothing to select. Scroll invariant: 0 <= scroll <= max(0,
// total-viewportHeight) after every output or viewport change.
type State struct {
	groups []discovery.TestGroup
	group  int
	test   int

	focus Pane
	watch bool
	quit  bool

	scroll         int
	viewportHeight int
	total          int
	// pinned is set by manual scrolling and stops the viewport following the tail.
	pinned bool
}

// New returns a State focused on the file list with an empty catalog.
func New() *State {
	return &State{}
}

// Focus returns the focused pane.
func (s *State) Focus() Pane { return s.focus }

// PaneLeft moves focus one pane to the left, wrapping around.
func (s *State) PaneLeft() {
	s.focus = Pane((int(s.focus) + paneCount - 1) % paneCount)
}

// PaneRight moves focus one pane to the right, wrapping around.
func (s *State) PaneRight() {
	s.focus = Pane((int(s.focus) + 1) % paneCount)
}

// MoveDown moves the selection in the focused pane, or scrolls the output down one line.
func (s *State) MoveDown() {
	s.move(1)
}

// MoveUp moves the selection in the focused pane, or scrolls the output up one line.
func (s *State) MoveUp() {
	s.move(-1)
}

func (s *State) move(delta int) {
	switch s.focus {
	case PaneFiles:
		if len(s.groups) == 0 {
			return
		}
		next := clamp(s.group+delta, 0, len(s.groups)-1)
		if next != s.group {
			s.group = next
			s.test = 0
		}
	case PaneTests:
		tests := s.Tests()
		if len(tests) == 0 {
			return
		}
		s.test = clamp(s.test+delta, 0, len(tests)-1)
	case PaneOutput:
		s.scrollBy(delta)
	}
}

// PageDown scrolls the output down by one viewport height. Only the output pane pages.
func (s *State) PageDown() {
	if s.focus == PaneOutput {
		s.scrollBy(max(1, s.viewportHeight))
	}
}

// PageUp scrolls the output up by one viewport height. Only the output pane pages.
func (s *State) PageUp() {
	if s.focus == PaneOutput {
		s.scrollBy(-max(1, s.viewportHeight))
	}
}

// scrollBy moves the viewport and pins it until FollowTail or ResetOutput.
func (s *State) scrollBy(delta int) {
	s.scroll = clamp(s.scroll+delta, 0, s.maxScroll())
	s.pinned = true
}

// ToggleWatch flips watch mode and returns the new value.
func (s *State) ToggleWatch() bool {
	s.watch = !s.watch
	return s.watch
}

// SetWatch sets watch mode.
func (s *State) SetWatch(on bool) { s.watch = on }

// Watching reports whether watch mode is on.
func (s *State) Watching() bool { return s.watch }

// Quit marks the session as finished.
func (s *State) Quit() { s.quit = true }

// ShouldQuit reports whether Quit has been called.
func (s *State) ShouldQuit() bool { return s.quit }

// Confirm handles the confirm input for the focused pane: the test list runs
// the selected test and the file list rescans. The output pane ignores it.
func (s *State) Confirm() Action {
	switch s.focus {
	case PaneTests:
		if _, ok := s.SelectedTest(); ok {
			return ActionRun
		}
	case PaneFiles:
		return ActionRescan
	}
	return ActionNone
}

// Rescan handles the rescan input, which is available from every pane.
func (s *State) Rescan() Action {
	return ActionRescan
}

// SetCatalog replaces the catalog. The selection stays on the same file and
// test when both still exist; otherwise the indices are clamped.
func (s *State) SetCatalog(groups []discovery.TestGroup) {
	var prevPath string
	if g, ok := s.SelectedGroup(); ok {
		prevPath = g.Path
	}
	prevTest, _ := s.SelectedTest()

	s.groups = groups

	if len(groups) == 0 {
		s.group, s.test = 0, 0
		return
	}

	if prevPath != "" {
		for i, g := range groups {
			if g.Path != prevPath {
				continue
			}
			s.group = i
			s.test = clamp(s.test, 0, max(0, len(g.Tests)-1))
			for j, name := range g.Tests {
				if name == prevTest {
					s.test = j
					break
				}
			}
			return
		}
	}

	s.group = clamp(s.group, 0, len(groups)-1)
	s.test = clamp(s.test, 0, max(0, len(groups[s.group].Tests)-1))
}

// Groups returns the catalog.
func (s *State) Groups() []discovery.TestGroup { return s.groups }

// GroupIndex returns the selected file index.
func (s *State) GroupIndex() int { return s.group }

// TestIndex returns the selected test index within the selected file.
func (s *State) TestIndex() int { return s.test }

// SelectedGroup returns the selected file.
func (s *State) SelectedGroup() (discovery.TestGroup, bool) {
	if s.group < 0 || s.group >= len(s.groups) {
		return discovery.TestGroup{}, false
	}
	return s.groups[s.group], true
}

// Tests returns the tests of the selected file.
func (s *State) Tests() []string {
	g, ok := s.SelectedGroup()
	if !ok {
		return nil
	}
	return g.Tests
}

// SelectedTest returns the selected test name.
func (s *State) SelectedTest() (string, bool) {
	tests := s.Tests()
	if s.test < 0 || s.test >= len(tests) {
		return "", false
	}
	return tests[s.test], true
}

// SetViewportHeight records the number of visible output lines and re-clamps the scroll offset.
func (s *State) SetViewportHeight(h int) {
	s.viewportHeight = max(0, h)
	s.SyncOutput(s.total)
}

// ViewportHeight returns the number of visible output lines.
func (s *State) ViewportHeight() int { return s.viewportHeight }

// SyncOutput records the current number of buffered lines. The viewport
// follows the tail unless it has been pinned by manual scrolling.
func (s *State) SyncOutput(total int) {
	s.total = max(0, total)
	if !s.pinned {
		s.scroll = s.maxScroll()
		return
	}
	s.scroll = clamp(s.scroll, 0, s.maxScroll())
}

// ResetOutput is called after the output buffer is cleared. The viewport
// returns to the top and follows the tail again.
func (s *State) ResetOutput() {
	s.total = 0
	s.scroll = 0
	s.pinned = false
}

// FollowTail jumps to the last page of output and resumes following.
func (s *State) FollowTail() {
	s.pinned = false
	s.scroll = s.maxScroll()
}

// Scroll returns the index of the first visible output line.
func (s *State) Scroll() int { return s.scroll }

// TotalLines returns the number of output lines last passed to SyncOutput.
func (s *State) TotalLines() int { return s.total }

// Pinned reports whether manual scrolling has stopped the viewport following the tail.
func (s *State) Pinned() bool { return s.pinned }

func (s *State) maxScroll() int {
	return max(0, s.total-s.viewportHeight)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
