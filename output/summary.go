package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Symbol constants for test results
const (
	SymbolPass = "✓"
	SymbolFail = "✗"
)

// Indentation constants
const (
	IndentLevel1 = "  "   // 2 spaces
	IndentLevel2 = "    " // 4 spaces
)

// Summary is what the plain output knows about a completed run.
type Summary struct {
	Passed  int
	Failed  int
	Failing []string // Failing titles, bullets included
	Errors  []string // Error region lines
	Elapsed string   // Last elapsed time shown while running
}

// SummaryFormatter renders a Summary as text.
type SummaryFormatter struct {
	width     int
	useColors bool
	passStyle lipgloss.Style
	failStyle lipgloss.Style
}

// NewSummaryFormatter creates a new summary formatter. width is used for
// separators (80 if unknown).
func NewSummaryFormatter(width int, useColors bool) *SummaryFormatter {
	if width <= 0 {
		width = 80
	}
	return &SummaryFormatter{
		width:     width,
		useColors: useColors,
		passStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("2")), // green
		failStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("1")), // red
	}
}

// Format renders a complete summary as a formatted string.
func (sf *SummaryFormatter) Format(s Summary) string {
	var b strings.Builder

	if len(s.Failing) > 0 {
		b.WriteString(sf.formatFailures(s.Failing))
		b.WriteString("\n")
	}
	if len(s.Errors) > 0 {
		b.WriteString(sf.formatErrors(s.Errors))
		b.WriteString("\n")
	}
	b.WriteString(sf.formatOverallResults(s))
	b.WriteString("\n")
	return b.String()
}

func (sf *SummaryFormatter) formatFailures(failing []string) string {
	var b strings.Builder
	b.WriteString(renderSectionHeader("FAILURES"))
	for _, title := range failing {
		b.WriteString(IndentLevel1 + title + "\n")
	}
	b.WriteString(sf.horizontalLine())
	return b.String()
}

func (sf *SummaryFormatter) formatErrors(lines []string) string {
	var b strings.Builder
	b.WriteString(renderSectionHeader("ERRORS"))
	for _, line := range lines {
		b.WriteString(IndentLevel2 + line + "\n")
	}
	b.WriteString(sf.horizontalLine())
	return b.String()
}

// formatOverallResults formats the overall statistics section.
func (sf *SummaryFormatter) formatOverallResults(s Summary) string {
	var b strings.Builder
	b.WriteString(renderSectionHeader("OVERALL RESULTS"))

	total := s.Passed + s.Failed
	passPercent, failPercent := 0.0, 0.0
	if total > 0 {
		passPercent = float64(s.Passed) / float64(total) * 100
		failPercent = float64(s.Failed) / float64(total) * 100
	}

	passIcon, failIcon := SymbolPass, SymbolFail
	if sf.useColors {
		passIcon = sf.passStyle.Render(SymbolPass)
		failIcon = sf.failStyle.Render(SymbolFail)
	}

	fmt.Fprintf(&b, "Total tests:    %d\n", total)
	fmt.Fprintf(&b, "Passed:         %d %s (%.1f%%)\n", s.Passed, passIcon, passPercent)
	fmt.Fprintf(&b, "Failed:         %d %s (%.1f%%)\n", s.Failed, failIcon, failPercent)
	if s.Elapsed != "" {
		fmt.Fprintf(&b, "Total time:     %s\n", s.Elapsed)
	}

	b.WriteString(sf.horizontalLine())
	return b.String()
}

// horizontalLine returns a horizontal separator line.
func (sf *SummaryFormatter) horizontalLine() string {
	return strings.Repeat("-", sf.width)
}

func renderSectionHeader(header string) string {
	return header + "\n" + strings.Repeat("-", len(header)) + "\n"
}
