package session

import (
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/flashingpumpkin/testpilot/internal/discovery"
)

func sampleCatalog() []discovery.TestGroup {
	return []discovery.TestGroup{
		{Path: "a/a_test.go", Tests: []string{"TestA1", "TestA2", "TestA3"}},
		{Path: "b/b_test.go", Tests: []string{"TestB1"}},
		{Path: "c/c_test.go", Tests: []string{"TestC1", "TestC2"}},
	}
}

func TestState_PaneCycleIsBijection(t *testing.T) {
	for _, start := range []Pane{PaneFiles, PaneTests, PaneOutput} {
		s := New()
		s.focus = start

		seen := map[Pane]bool{}
		for range paneCount {
			seen[s.Focus()] = true
			s.PaneRight()
		}
		assert.Len(t, seen, paneCount)
		assert.Equal(t, start, s.Focus(), "three rights return to start")

		s.PaneRight()
		s.PaneLeft()
		assert.Equal(t, start, s.Focus(), "left undoes right")
	}
}

func TestState_PaneLeftWraps(t *testing.T) {
	s := New()
	s.PaneLeft()
	assert.Equal(t, PaneOutput, s.Focus())
	s.PaneLeft()
	assert.Equal(t, PaneTests, s.Focus())
}

func TestState_FileNavigationResetsTest(t *testing.T) {
	s := New()
	s.SetCatalog(sampleCatalog())

	s.PaneRight() // tests
	s.MoveDown()
	s.MoveDown()
	require.Equal(t, 2, s.TestIndex())

	s.PaneLeft() // files
	s.MoveDown()
	assert.Equal(t, 1, s.GroupIndex())
	assert.Equal(t, 0, s.TestIndex())

	s.MoveDown()
	s.MoveDown()
	assert.Equal(t, 2, s.GroupIndex(), "clamped at last file")

	s.MoveUp()
	s.MoveUp()
	s.MoveUp()
	assert.Equal(t, 0, s.GroupIndex(), "clamped at first file")
}

func TestState_MoveUpAtTopKeepsTest(t *testing.T) {
	s := New()
	s.SetCatalog(sampleCatalog())
	s.PaneRight()
	s.MoveDown()

	s.PaneLeft()
	s.MoveUp() // already first file; test selection must survive
	assert.Equal(t, 1, s.TestIndex())
}

func TestState_TestNavigationClamps(t *testing.T) {
	s := New()
	s.SetCatalog(sampleCatalog())
	s.PaneRight()

	for range 10 {
		s.MoveDown()
	}
	assert.Equal(t, 2, s.TestIndex())
	name, ok := s.SelectedTest()
	require.True(t, ok)
	assert.Equal(t, "TestA3", name)
}

func TestState_EmptyCatalog(t *testing.T) {
	s := New()

	for _, step := range []func(){s.MoveDown, s.MoveUp, s.PaneRight, s.MoveDown, s.MoveUp} {
		step()
	}

	assert.Equal(t, 0, s.GroupIndex())
	assert.Equal(t, 0, s.TestIndex())
	_, ok := s.SelectedTest()
	assert.False(t, ok)
	assert.Equal(t, ActionNone, s.Confirm(), "no test to run")
}

func TestState_Confirm(t *testing.T) {
	tests := []struct {
		name  string
		focus Pane
		want  Action
	}{
		{"files rescans", PaneFiles, ActionRescan},
		{"tests runs", PaneTests, ActionRun},
		{"output does nothing", PaneOutput, ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.SetCatalog(sampleCatalog())
			s.focus = tt.focus

			assert.Equal(t, tt.want, s.Confirm())
			assert.Equal(t, ActionRescan, s.Rescan())
		})
	}
}

func TestState_ConfirmRunsFirstTest(t *testing.T) {
	s := New()
	s.SetCatalog([]discovery.TestGroup{{Path: "x_test.go", Tests: []string{"a", "b"}}})
	s.PaneRight()

	require.Equal(t, ActionRun, s.Confirm())
	name, ok := s.SelectedTest()
	require.True(t, ok)
	assert.Equal(t, "a", name)
}

func TestState_ToggleWatchAndQuit(t *testing.T) {
	s := New()
	assert.True(t, s.ToggleWatch())
	assert.True(t, s.Watching())
	assert.False(t, s.ToggleWatch())

	assert.False(t, s.ShouldQuit())
	s.Quit()
	assert.True(t, s.ShouldQuit())
}

func TestState_SetCatalogKeepsSelection(t *testing.T) {
	s := New()
	s.SetCatalog(sampleCatalog())
	s.MoveDown()
	s.MoveDown() // c/c_test.go
	s.PaneRight()
	s.MoveDown() // TestC2

	s.SetCatalog([]discovery.TestGroup{
		{Path: "0/new_test.go", Tests: []string{"TestNew"}},
		{Path: "c/c_test.go", Tests: []string{"TestC0", "TestC1", "TestC2"}},
	})

	assert.Equal(t, 1, s.GroupIndex())
	name, _ := s.SelectedTest()
	assert.Equal(t, "TestC2", name)
}

func TestState_SetCatalogClampsWhenFileGone(t *testing.T) {
	s := New()
	s.SetCatalog(sampleCatalog())
	s.MoveDown()
	s.MoveDown()

	s.SetCatalog([]discovery.TestGroup{{Path: "z_test.go", Tests: []string{"TestZ"}}})
	assert.Equal(t, 0, s.GroupIndex())
	assert.Equal(t, 0, s.TestIndex())

	s.SetCatalog(nil)
	assert.Equal(t, 0, s.GroupIndex())
	assert.Equal(t, 0, s.TestIndex())
}

func TestState_FollowsTailUntilPinned(t *testing.T) {
	s := New()
	s.SetViewportHeight(10)

	s.SyncOutput(25)
	assert.Equal(t, 15, s.Scroll())
	assert.False(t, s.Pinned())

	s.focus = PaneOutput
	s.MoveUp()
	assert.Equal(t, 14, s.Scroll())
	assert.True(t, s.Pinned())

	s.SyncOutput(40)
	assert.Equal(t, 14, s.Scroll(), "pinned viewport stays put")

	s.FollowTail()
	assert.Equal(t, 30, s.Scroll())
	assert.False(t, s.Pinned())

	s.SyncOutput(41)
	assert.Equal(t, 31, s.Scroll())
}

func TestState_ResetOutputUnpins(t *testing.T) {
	s := New()
	s.SetViewportHeight(5)
	s.SyncOutput(50)
	s.focus = PaneOutput
	s.PageUp()
	require.True(t, s.Pinned())

	s.ResetOutput()
	assert.Equal(t, 0, s.Scroll())
	assert.False(t, s.Pinned())

	s.SyncOutput(8)
	assert.Equal(t, 3, s.Scroll())
}

func TestState_PagingOnlyInOutputPane(t *testing.T) {
	s := New()
	s.SetViewportHeight(10)
	s.SyncOutput(100)
	s.FollowTail()

	s.PageUp()
	assert.Equal(t, 90, s.Scroll(), "files pane ignores paging")

	s.focus = PaneOutput
	s.PageUp()
	assert.Equal(t, 80, s.Scroll())
	s.PageDown()
	s.PageDown()
	assert.Equal(t, 90, s.Scroll())
}

func TestState_ShrinkingViewportReclamps(t *testing.T) {
	s := New()
	s.SetViewportHeight(5)
	s.SyncOutput(20)
	s.focus = PaneOutput
	s.MoveUp()
	require.Equal(t, 14, s.Scroll())

	s.SetViewportHeight(18)
	assert.Equal(t, 2, s.Scroll())
}

func TestState_PaneString(t *testing.T) {
	assert.Equal(t, "files", PaneFiles.String())
	assert.Equal(t, "tests", PaneTests.String())
	assert.Equal(t, "output", PaneOutput.String())
	assert.Equal(t, "unknown", Pane(7).String())
}

func catalogGen() *rapid.Generator[[]discovery.TestGroup] {
	return rapid.Custom(func(t *rapid.T) []discovery.TestGroup {
		n := rapid.IntRange(0, 5).Draw(t, "groups")
		groups := make([]discovery.TestGroup, n)
		for i := range groups {
			tests := rapid.SliceOfN(rapid.StringMatching(`Test[A-Z][a-z]{0,4}`), 0, 4).Draw(t, "tests")
			groups[i] = discovery.TestGroup{
				Path:  rapid.SampledFrom([]string{"a_test.go", "b_test.go", "c_test.go", "d_test.go"}).Draw(t, "path"),
				Tests: tests,
			}
		}
		return groups
	})
}

// checkInvariants fails if selection or scroll is out of range.
func checkInvariants(t *rapid.T, s *State) {
	groups := s.Groups()
	if len(groups) == 0 {
		if s.GroupIndex() != 0 || s.TestIndex() != 0 {
			t.Fatalf("empty catalog with group=%d test=%d", s.GroupIndex(), s.TestIndex())
		}
	} else {
		if s.GroupIndex() < 0 || s.GroupIndex() >= len(groups) {
			t.Fatalf("group %d out of range [0,%d)", s.GroupIndex(), len(groups))
		}
		tests := groups[s.GroupIndex()].Tests
		if len(tests) == 0 && s.TestIndex() != 0 {
			t.Fatalf("test %d with no tests", s.TestIndex())
		}
		if len(tests) > 0 && (s.TestIndex() < 0 || s.TestIndex() >= len(tests)) {
			t.Fatalf("test %d out of range [0,%d)", s.TestIndex(), len(tests))
		}
	}

	maxScroll := max(0, s.TotalLines()-s.ViewportHeight())
	if s.Scroll() < 0 || s.Scroll() > maxScroll {
		t.Fatalf("scroll %d out of range [0,%d]", s.Scroll(), maxScroll)
	}
}

func TestState_InvariantsHoldForAnyInput(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := New()
		s.SetCatalog(catalogGen().Draw(t, "catalog"))

		ops := map[string]func(*rapid.T){
			"left":     func(*rapid.T) { s.PaneLeft() },
			"right":    func(*rapid.T) { s.PaneRight() },
			"down":     func(*rapid.T) { s.MoveDown() },
			"up":       func(*rapid.T) { s.MoveUp() },
			"pagedown": func(*rapid.T) { s.PageDown() },
			"pageup":   func(*rapid.T) { s.PageUp() },
			"watch":    func(*rapid.T) { s.ToggleWatch() },
			"confirm":  func(*rapid.T) { s.Confirm() },
			"follow":   func(*rapid.T) { s.FollowTail() },
			"reset":    func(*rapid.T) { s.ResetOutput() },
			"catalog": func(t *rapid.T) {
				s.SetCatalog(catalogGen().Draw(t, "catalog"))
			},
			"viewport": func(t *rapid.T) {
				s.SetViewportHeight(rapid.IntRange(0, 30).Draw(t, "height"))
			},
			"output": func(t *rapid.T) {
				s.SyncOutput(rapid.IntRange(0, 200).Draw(t, "total"))
			},
		}
		names := slices.Sorted(maps.Keys(ops))

		steps := rapid.IntRange(0, 60).Draw(t, "steps")
		for range steps {
			name := rapid.SampledFrom(names).Draw(t, "op")
			ops[name](t)
			checkInvariants(t, s)
		}
	})
}

