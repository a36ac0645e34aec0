package tui

// MinTerminalWidth is the minimum supported terminal width.
const MinTerminalWidth = 40

// MinTerminalHeight is the minimum supported terminal height.
const MinTerminalHeight = 10

const (
	// LeftColumnPercent is the share of the width taken by the file and test lists.
	LeftColumnPercent = 30

	// HelpBarHeight is the height of the help bar at the bottom.
	HelpBarHeight = 1

	// FrameSize is the number of rows (or columns) taken by a pane's frame.
	FrameSize = 2
)

// Layout represents the calculated dimensions for each UI region.
// Heights and widths include the pane frames.
type Layout struct {
	// Total terminal dimensions
	Width  int
	Height int

	// Left column: file list above test list
	LeftWidth   int
	FilesHeight int
	TestsHeight int

	// Right column: output pane
	OutputWidth  int
	OutputHeight int

	HelpBarHeight int

	// TooSmall indicates the terminal is below minimum size
	TooSmall bool

	// TooSmallMessage is shown when terminal is too small
	TooSmallMessage string
}

// CalculateLayout computes the layout based on terminal dimensions.
func CalculateLayout(width, height int) Layout {
	layout := Layout{
		Width:         width,
		Height:        height,
		HelpBarHeight: HelpBarHeight,
	}

	if width < MinTerminalWidth {
		layout.TooSmall = true
		layout.TooSmallMessage = "Terminal too narrow. Minimum width: 40 columns."
		return layout
	}

	if height < MinTerminalHeight {
		layout.TooSmall = true
		layout.TooSmallMessage = "Terminal too short. Minimum height: 10 rows."
		return layout
	}

	body := height - layout.HelpBarHeight

	layout.LeftWidth = width * LeftColumnPercent / 100
	layout.OutputWidth = width - layout.LeftWidth

	layout.FilesHeight = body / 2
	layout.TestsHeight = body - layout.FilesHeight
	layout.OutputHeight = body

	return layout
}

// ViewportHeight returns the number of output lines visible inside the output pane.
func (l Layout) ViewportHeight() int {
	return max(0, l.OutputHeight-FrameSize)
}

// OutputContentWidth returns the usable width inside the output pane.
func (l Layout) OutputContentWidth() int {
	return max(0, l.OutputWidth-FrameSize)
}

// ListContentWidth returns the usable width inside the file and test panes.
func (l Layout) ListContentWidth() int {
	return max(0, l.LeftWidth-FrameSize)
}
