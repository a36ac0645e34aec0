// Package tui provides the interactive test console using bubbletea.
package tui

import "github.com/charmbracelet/lipgloss"

// Dark theme colour palette (for dark terminal backgrounds)
const (
	ColourAmber      = lipgloss.Color("214") // #FFB000 - Focused borders, titles
	ColourAmberDim   = lipgloss.Color("136") // #996600 - Unfocused borders
	ColourAmberLight = lipgloss.Color("222") // #FFD966 - List items
	ColourAmberFaded = lipgloss.Color("178") // #B38F00 - Help keys, secondary text
	ColourBackground = lipgloss.Color("0")   // #000000 - Terminal background
	ColourSuccess    = lipgloss.Color("82")  // #00FF00 - Watch marker
	ColourWarning    = lipgloss.Color("208") // #FFAA00 - Pinned marker
	ColourError      = lipgloss.Color("196") // #FF3300 - Errors
)

// Light theme colour palette (for light terminal backgrounds)
// Uses darker, more saturated colours for visibility on light backgrounds.
const (
	ColourAmberDark       = lipgloss.Color("94")  // #8B6914 - Focused borders, titles
	ColourAmberDarkDim    = lipgloss.Color("58")  // #5C4A0A - Unfocused borders
	ColourAmberDarkMid    = lipgloss.Color("94")  // #6B5A1E - List items
	ColourAmberDarkFaded  = lipgloss.Color("101") // #7A6A30 - Help keys, secondary text
	ColourBackgroundLight = lipgloss.Color("231") // #FFFFFF - Light background reference
	ColourSuccessDark     = lipgloss.Color("22")  // #008000 - Watch marker
	ColourWarningDark     = lipgloss.Color("166") // #CC5500 - Pinned marker
	ColourErrorDark       = lipgloss.Color("160") // #CC0000 - Errors
)

// Pane frame characters.
const (
	FrameTopLeft     = "╭"
	FrameTopRight    = "╮"
	FrameBottomLeft  = "╰"
	FrameBottomRight = "╯"
	FrameHorizontal  = "─"
	FrameVertical    = "│"
)

// Selection marker shown in front of the selected list item.
const (
	IconSelected   = "›"
	IconUnselected = " "
)

// Styles contains all lipgloss styles for the UI.
type Styles struct {
	// Pane frames
	Border        lipgloss.Style
	BorderFocused lipgloss.Style

	// Pane titles
	Title        lipgloss.Style
	TitleFocused lipgloss.Style

	// Lists
	Item             lipgloss.Style
	Selected         lipgloss.Style
	SelectedInactive lipgloss.Style
	Empty            lipgloss.Style

	// Output title markers
	WatchMarker  lipgloss.Style
	PinnedMarker lipgloss.Style

	Error           lipgloss.Style
	TooSmallMessage lipgloss.Style

	// Help bar
	HelpBar lipgloss.Style
	HelpKey lipgloss.Style
}

// DarkStyles returns the amber theme optimised for dark terminal backgrounds.
func DarkStyles() Styles {
	return Styles{
		Border:        lipgloss.NewStyle().Foreground(ColourAmberDim),
		BorderFocused: lipgloss.NewStyle().Foreground(ColourAmber),

		Title:        lipgloss.NewStyle().Foreground(ColourAmberFaded),
		TitleFocused: lipgloss.NewStyle().Foreground(ColourAmber).Bold(true),

		Item:             lipgloss.NewStyle().Foreground(ColourAmberLight),
		Selected:         lipgloss.NewStyle().Foreground(ColourBackground).Background(ColourAmber).Bold(true),
		SelectedInactive: lipgloss.NewStyle().Foreground(ColourAmber).Bold(true),
		Empty:            lipgloss.NewStyle().Foreground(ColourAmberDim).Italic(true),

		WatchMarker:  lipgloss.NewStyle().Foreground(ColourSuccess).Bold(true),
		PinnedMarker: lipgloss.NewStyle().Foreground(ColourWarning).Bold(true),

		Error:           lipgloss.NewStyle().Foreground(ColourError),
		TooSmallMessage: lipgloss.NewStyle().Foreground(ColourWarning).Bold(true),

		HelpBar: lipgloss.NewStyle().Foreground(ColourAmberDim),
		HelpKey: lipgloss.NewStyle().Foreground(ColourAmberFaded),
	}
}

// LightStyles returns the amber theme optimised for light terminal backgrounds.
func LightStyles() Styles {
	return Styles{
		Border:        lipgloss.NewStyle().Foreground(ColourAmberDarkDim),
		BorderFocused: lipgloss.NewStyle().Foreground(ColourAmberDark),

		Title:        lipgloss.NewStyle().Foreground(ColourAmberDarkFaded),
		TitleFocused: lipgloss.NewStyle().Foreground(ColourAmberDark).Bold(true),

		Item:             lipgloss.NewStyle().Foreground(ColourAmberDarkMid),
		Selected:         lipgloss.NewStyle().Foreground(ColourBackgroundLight).Background(ColourAmberDark).Bold(true),
		SelectedInactive: lipgloss.NewStyle().Foreground(ColourAmberDark).Bold(true),
		Empty:            lipgloss.NewStyle().Foreground(ColourAmberDarkDim).Italic(true),

		WatchMarker:  lipgloss.NewStyle().Foreground(ColourSuccessDark).Bold(true),
		PinnedMarker: lipgloss.NewStyle().Foreground(ColourWarningDark).Bold(true),

		Error:           lipgloss.NewStyle().Foreground(ColourErrorDark),
		TooSmallMessage: lipgloss.NewStyle().Foreground(ColourWarningDark).Bold(true),

		HelpBar: lipgloss.NewStyle().Foreground(ColourAmberDarkDim),
		HelpKey: lipgloss.NewStyle().Foreground(ColourAmberDarkFaded),
	}
}

// GetStyles returns the Styles for the given theme.
// Falls back to dark theme for unknown theme values.
func GetStyles(theme Theme) Styles {
	switch theme {
	case ThemeLight:
		return LightStyles()
	default:
		return DarkStyles()
	}
}

// RenderFrameTop renders the top edge of a pane of the given width with
// title embedded after the corner.
func RenderFrameTop(title string, width int, border lipgloss.Style) string {
	if width < 2 {
		return ""
	}
	inner := width - 2
	if title == "" || inner < 4 {
		return border.Render(FrameTopLeft + repeatString(FrameHorizontal, inner) + FrameTopRight)
	}

	lead := border.Render(FrameTopLeft + FrameHorizontal)
	title = " " + title + " "
	rest := inner - 1 - lipgloss.Width(title)
	if rest < 0 {
		return border.Render(FrameTopLeft + repeatString(FrameHorizontal, inner) + FrameTopRight)
	}
	return lead + title + border.Render(repeatString(FrameHorizontal, rest)+FrameTopRight)
}

// RenderFrameBottom renders the bottom edge of a pane of the given width.
func RenderFrameBottom(width int, border lipgloss.Style) string {
	if width < 2 {
		return ""
	}
	return border.Render(FrameBottomLeft + repeatString(FrameHorizontal, width-2) + FrameBottomRight)
}

// repeatString repeats a string n times.
func repeatString(s string, n int) string {
	if n <= 0 {
		return ""
	}
	result := ""
	for i := 0; i < n; i++ {
		result += s
	}
	return result
}
