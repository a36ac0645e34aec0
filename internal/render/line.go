package render

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// SGR parameters understood by Line.
const (
	sgrReset      = 0
	sgrBold       = 1
	sgrNormal     = 22
	sgrFgBase     = 30
	sgrFgExtended = 38
	sgrFgDefault  = 39
	sgrBgBase     = 40
	sgrBgExtended = 48
	sgrBgDefault  = 49
)

// Line converts one line of raw output into styled spans.
//
// Styling starts from the default style on every call. Spans never have empty
// text, and adjacent text with the same style is merged into one span.
//
// A carriage return discards the text before it, the way a terminal would
// overwrite it. Tabs are kept; every other control character is dropped. For
// valid UTF-8 without control characters other than tab, the concatenated
// span text equals ansi.Strip(s). Invalid bytes are kept as text, which Strip
// would drop.
func Line(s string) []Span {
	var (
		spans []Span
		text  strings.Builder
		style Style
		state byte
	)
	p := ansi.NewParser()

	flush := func() {
		if text.Len() == 0 {
			return
		}
		if n := len(spans); n > 0 && spans[n-1].Style == style {
			spans[n-1].Text += text.String()
		} else {
			spans = append(spans, Span{Text: text.String(), Style: style})
		}
		text.Reset()
	}

	for len(s) > 0 {
		seq, width, n, newState := ansi.DecodeSequence(s, state, p)
		if n <= 0 {
			// Undecodable byte; keep it as text and move on.
			seq, n = s[:1], 1
		}
		state = newState
		s = s[n:]

		switch {
		case len(seq) == 1 && seq[0] == '\r':
			spans = nil
			text.Reset()
		case len(seq) == 1 && isDroppedControl(seq[0]):
		case width > 0 || !isEscape(seq, newState):
			text.WriteString(seq)
		case isSGR(seq, p):
			next := applySGR(style, p.Params())
			if next != style {
				flush()
				style = next
			}
		}
	}
	flush()

	return spans
}

// Text returns the concatenated text of spans.
func Text(spans []Span) string {
	var b strings.Builder
	for _, sp := range spans {
		b.WriteString(sp.Text)
	}
	return b.String()
}

// isDroppedControl reports whether c is a C0 control, other than tab, or DEL.
func isDroppedControl(c byte) bool {
	return (c < 0x20 && c != '\t') || c == 0x7f
}

// isEscape reports whether seq is an escape sequence, complete or not.
func isEscape(seq string, state byte) bool {
	if state != ansi.NormalState {
		return true
	}
	c := seq[0]
	return c == ansi.ESC || (len(seq) > 1 && c >= 0x80 && c <= 0x9f)
}

func isSGR(seq string, p *ansi.Parser) bool {
	if !ansi.HasCsiPrefix(seq) {
		return false
	}
	cmd := ansi.Cmd(p.Command())
	return cmd.Final() == 'm' && cmd.Prefix() == 0 && cmd.Intermediate() == 0
}

// applySGR returns style updated by the SGR parameters. An empty parameter
// list is a reset.
func applySGR(style Style, params ansi.Params) Style {
	if len(params) == 0 {
		return Style{}
	}

	for i := 0; i < len(params); i++ {
		code := params[i].Param(sgrReset)
		switch {
		case code == sgrReset:
			style = Style{}
		case code == sgrBold:
			style.Bold = true
		case code == sgrNormal:
			style.Bold = false
		case code >= sgrFgBase && code < sgrFgBase+8:
			style.Foreground = colorFromOffset(code - sgrFgBase)
		case code == sgrFgDefault:
			style.Foreground = ColorDefault
		case code >= sgrBgBase && code < sgrBgBase+8:
			style.Background = colorFromOffset(code - sgrBgBase)
		case code == sgrBgDefault:
			style.Background = ColorDefault
		case code == sgrFgExtended || code == sgrBgExtended:
			// 256-colour and true-colour forms are not supported; skip their arguments.
			i += extendedArgs(params, i)
		}
	}
	return style
}

// extendedArgs returns how many parameters after index i belong to an
// extended colour selector (38;5;n or 38;2;r;g;b).
func extendedArgs(params ansi.Params, i int) int {
	kind, _, ok := params.Param(i+1, -1)
	if !ok {
		return 0
	}
	switch kind {
	case 5:
		return min(2, len(params)-i-1)
	case 2:
		return min(4, len(params)-i-1)
	default:
		return 0
	}
}
