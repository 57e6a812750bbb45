// Package format holds the pure string formatting used by the dashboard.
//
// Nothing in this package keeps state; every function is deterministic in
// its inputs so the results and dashboard packages can share it freely.
package format

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Bullet prefixes test titles in the passing and failing lists.
const Bullet = "• "

// Centering directive understood by the rendering surfaces.
const (
	centerOpen  = "{center}"
	centerClose = "{/center}"
)

// Foreground color escapes. Each color is closed with the default-color code.
const (
	redOn     = "\x1b[31m"
	yellowOn  = "\x1b[33m"
	colorOff  = "\x1b[39m"
	levelErr  = "error"
	levelWarn = "warn"
)

// NoTestsHint is appended to the log when a watch-mode run targets no files.
const NoTestsHint = `No tests found related to files changed since last commit.
Press ` + "`a`" + ` to run all tests.

Watch Usage
 › Press a to run all tests.
 › Press p to filter by a filename regex pattern.
 › Press t to filter by a test name regex pattern.
 › Press q to quit watch mode.
 › Press Enter to trigger a test run.`

// Title composes a display title from a test's own title and its nearest
// ancestor. Only the nearest ancestor is considered; deeper ancestors are
// dropped.
func Title(own, ancestor string, bullet bool) string {
	title := own
	if ancestor != "" {
		title = ancestor + " " + own
	}
	if bullet {
		return Bullet + title
	}
	return title
}

// Centered wraps text in the centering directive.
func Centered(text string) string {
	return centerOpen + text + centerClose
}

// Uncenter strips the centering directive, reporting whether it was present.
func Uncenter(text string) (string, bool) {
	if strings.HasPrefix(text, centerOpen) && strings.HasSuffix(text, centerClose) &&
		len(text) >= len(centerOpen)+len(centerClose) {
		return text[len(centerOpen) : len(text)-len(centerClose)], true
	}
	return text, false
}

// ColorizeByLevel colors error text red and warn text yellow. Any other
// level returns text unchanged.
func ColorizeByLevel(text, level string) string {
	switch level {
	case levelErr:
		return redOn + text + colorOff
	case levelWarn:
		return yellowOn + text + colorOff
	default:
		return text
	}
}

// MapLevels replaces every span colored by ColorizeByLevel with
// fn(text, level). Surfaces with their own palette use it to restyle log
// lines.
func MapLevels(s string, fn func(text, level string) string) string {
	if !strings.Contains(s, redOn) && !strings.Contains(s, yellowOn) {
		return s
	}
	var b strings.Builder
	for {
		start, level := nextLevel(s)
		if start < 0 {
			break
		}
		open := start + len(redOn)
		end := strings.Index(s[open:], colorOff)
		if end < 0 {
			break
		}
		b.WriteString(s[:start])
		b.WriteString(fn(s[open:open+end], level))
		s = s[open+end+len(colorOff):]
	}
	b.WriteString(s)
	return b.String()
}

// nextLevel finds the first level color escape in s.
func nextLevel(s string) (int, string) {
	red := strings.Index(s, redOn)
	yellow := strings.Index(s, yellowOn)
	switch {
	case red >= 0 && (yellow < 0 || red < yellow):
		return red, levelErr
	case yellow >= 0:
		return yellow, levelWarn
	default:
		return -1, ""
	}
}

// ConsoleLine formats one captured console entry for the log region.
func ConsoleLine(origin, message, level string) string {
	return origin + ":\n\t" + ColorizeByLevel(message, level)
}

// ExecErrorBlock renders a file execution error as three lines:
// the file path, line:column, then the message.
func ExecErrorBlock(path string, line, column int, message string) string {
	return fmt.Sprintf("%s\n%d:%d\n%s", path, line, column, message)
}

// Elapsed formats whole elapsed seconds, using "<1s" before the first tick.
func Elapsed(seconds int) string {
	if seconds <= 0 {
		return "<1s"
	}
	return fmt.Sprintf("%ds", seconds)
}

// StripANSI removes escape sequences, for surfaces that cannot show color.
func StripANSI(s string) string {
	return ansi.Strip(s)
}
