package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// Theme represents the colour theme for the TUI.
type Theme string

const (
	// ThemeAuto automatically detects the terminal background colour.
	ThemeAuto Theme = "auto"
	// ThemeDark uses the amber colour palette designed for dark backgrounds.
	ThemeDark Theme = "dark"
	// ThemeLight uses darker colours designed for light backgrounds.
	ThemeLight Theme = "light"
)

// ParseTheme converts a configured theme name into a Theme.
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeAuto, ThemeDark, ThemeLight:
		return Theme(s), nil
	case "":
		return ThemeAuto, nil
	default:
		return "", fmt.Errorf("invalid theme %q (want auto, dark or light)", s)
	}
}

// DetectTheme queries the terminal behind w to determine if it has a dark or
// light background. Falls back to ThemeDark if detection fails.
func DetectTheme(w io.Writer) Theme {
	output := termenv.NewOutput(w)
	if output.HasDarkBackground() {
		return ThemeDark
	}
	return ThemeLight
}

// ResolveTheme converts ThemeAuto to the theme detected on w.
// If the theme is already ThemeDark or ThemeLight, it is returned unchanged.
func ResolveTheme(configured Theme, w io.Writer) Theme {
	if configured == ThemeAuto {
		return DetectTheme(w)
	}
	return configured
}
