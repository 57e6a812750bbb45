package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// fitLine truncates a possibly colored line to width cells and makes sure
// no color is left open past its end.
func fitLine(s string, width int) string {
	return ensureReset(ansi.Truncate(s, width, "…"))
}

// ensureReset ensures that the string ends with a terminal reset sequence.
// This prevents color bleeding from truncated output or output that leaves colors open.
func ensureReset(s string) string {
	if s == "" || !strings.Contains(s, "\033[") {
		return s
	}
	if strings.HasSuffix(s, "\033[0m") {
		return s
	}
	return s + "\033[0m"
}
