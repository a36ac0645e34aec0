package render

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styled renders spans as terminal text using lipgloss.
// The output degrades to plain text when the terminal has no colour support.
func Styled(spans []Span) string {
	var b strings.Builder
	for _, sp := range spans {
		if sp.Style == (Style{}) {
			b.WriteString(sp.Text)
			continue
		}
		b.WriteString(lipglossStyle(sp.Style).Render(sp.Text))
	}
	return b.String()
}

// StyledLine is Styled(Line(s)).
func StyledLine(s string) string {
	return Styled(Line(s))
}

func lipglossStyle(s Style) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(s.Bold)
	if idx := s.Foreground.ansiIndex(); idx >= 0 {
		style = style.Foreground(lipgloss.Color(strconv.Itoa(idx)))
	}
	if idx := s.Background.ansiIndex(); idx >= 0 {
		style = style.Background(lipgloss.Color(strconv.Itoa(idx)))
	}
	return style
}
