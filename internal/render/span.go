// Package render converts raw terminal output into styled spans.
//
// Only SGR (Select Graphic Rendition) sequences are interpreted; every other
// escape sequence and control character is dropped, and a carriage return
// keeps only the text after it, so that cursor movement or screen clears from
// a test process cannot corrupt the output pane.
package render

// Color is one of the eight standard ANSI colours, or ColorDefault.
type Color uint8

// Supported colours. The order of the eight ANSI colours matches their SGR
// offsets (30+n for foreground, 40+n for background).
const (
	ColorDefault Color = iota
	ColorBlack
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
)

var colorNames = [...]string{
	ColorDefault: "default",
	ColorBlack:   "black",
	ColorRed:     "red",
	ColorGreen:   "green",
	ColorYellow:  "yellow",
	ColorBlue:    "blue",
	ColorMagenta: "magenta",
	ColorCyan:    "cyan",
	ColorWhite:   "white",
}

// String returns the colour name.
func (c Color) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return "unknown"
}

// ansiIndex returns the 0-7 palette index, or -1 for ColorDefault.
func (c Color) ansiIndex() int {
	if c == ColorDefault || c > ColorWhite {
		return -1
	}
	return int(c) - 1
}

// colorFromOffset maps an SGR offset (0-7) to a Color.
func colorFromOffset(n int) Color {
	return Color(n + 1)
}

// Style is the set of attributes applied to a run of text.
type Style struct {
	Foreground Color
	Background Color
	Bold       bool
}

// Span is a run of text rendered with a single style.
type Span struct {
	Text string
	Style
}
