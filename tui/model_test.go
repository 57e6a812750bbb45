package tui

import (
	"strings"
	"testing"

	"github.com/ansel1/testdash/dashboard"
	"github.com/ansel1/testdash/output/format"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_FrameUpdatesRegions(t *testing.T) {
	m := NewModel()
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	m.Update(FrameMsg{
		Content: map[dashboard.Region]string{
			dashboard.RegionPassing: "• Calc adds\n• Calc subtracts",
			dashboard.RegionFailing: "• Calc divides",
			dashboard.RegionStatus:  "{center}Running{/center}",
			dashboard.RegionPassed:  "{center}2{/center}",
		},
		Lines: []string{"calc.test.js:4:\n\thello"},
	})

	assert.Equal(t, "• Calc divides", m.Content(dashboard.RegionFailing))
	assert.Equal(t, "calc.test.js:4:\n\thello", m.Content(dashboard.RegionLog))

	view := m.View()
	for _, want := range []string{"Passing", "Failing", "Errors", "Total Test Time", "Status", "Passed", "Failed", "Log"} {
		assert.Contains(t, view, want)
	}
	assert.Contains(t, view, "• Calc subtracts")
	assert.Contains(t, view, "Running")
	assert.NotContains(t, view, "{center}")
	assert.Contains(t, view, "hello")
	assert.NotContains(t, view, "\t")
}

func TestModel_TopRowLabelsAreNotTruncated(t *testing.T) {
	for _, width := range []int{100, 120, 160} {
		m := NewModel()
		m.Update(tea.WindowSizeMsg{Width: width, Height: 40})

		view := m.View()
		assert.Contains(t, view, "Total Test Time", "width %d", width)
		assert.NotContains(t, view, "…", "width %d", width)
	}
}

func TestTopWidths(t *testing.T) {
	assert.Equal(t, []int{17, 13, 15, 15}, topWidths(60, topRow))
	assert.Equal(t, []int{20, 20, 20, 20}, topWidths(80, topRow))

	for total := 20; total <= 100; total++ {
		widths := topWidths(total, topRow)
		sum := 0
		for _, w := range widths {
			sum += w
		}
		assert.Equal(t, total, sum, "total %d", total)
	}
}

func TestModel_LogLevelsUseTheme(t *testing.T) {
	theme := DefaultTheme()
	theme.Error = lipgloss.Color("#ff00ff")
	theme.Warn = lipgloss.Color("#00ffff")
	m := NewModel(WithTheme(theme))
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	m.Update(FrameMsg{Lines: []string{
		format.ConsoleLine("a.test.js:3", "boom", "error"),
		format.ConsoleLine("a.test.js:4", "careful", "warn"),
	}})

	view := m.log.View()
	assert.Contains(t, view, "boom")
	assert.Contains(t, view, "careful")
	assert.NotContains(t, view, "\x1b[31m")
	assert.NotContains(t, view, "\x1b[33m")
}

func TestModel_LogRendersOnlyNewLines(t *testing.T) {
	m := NewModel()
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	m.Update(FrameMsg{Lines: []string{"first"}})
	require.Len(t, m.rendered, 1)
	m.rendered[0] = "kept"

	m.Update(FrameMsg{Lines: []string{"second\n\tthird"}})
	assert.Equal(t, []string{"kept", "second", "        third"}, m.rendered)

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Equal(t, "first", m.rendered[0], "resize renders the whole log again")
}

func TestModel_LaterFramesKeepUntouchedRegions(t *testing.T) {
	m := NewModel()
	m.Update(FrameMsg{Content: map[dashboard.Region]string{dashboard.RegionPassing: "• a"}})
	m.Update(FrameMsg{Content: map[dashboard.Region]string{dashboard.RegionTime: "{center}1s{/center}"}})

	assert.Equal(t, "• a", m.Content(dashboard.RegionPassing))
	assert.Equal(t, "{center}1s{/center}", m.Content(dashboard.RegionTime))
}

func TestModel_ViewFitsTerminal(t *testing.T) {
	m := NewModel()
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	long := strings.Repeat("very long test title ", 20)
	var many []string
	for i := 0; i < 100; i++ {
		many = append(many, "• "+long)
	}
	m.Update(FrameMsg{
		Content: map[dashboard.Region]string{
			dashboard.RegionPassing: strings.Join(many, "\n"),
			dashboard.RegionErrors:  strings.Join(many, "\n"),
		},
		Lines: many,
	})

	lines := strings.Split(m.View(), "\n")
	assert.LessOrEqual(t, len(lines), 30)
}

func TestModel_QuitKeys(t *testing.T) {
	for _, k := range []string{"q", "esc", "ctrl+c"} {
		t.Run(k, func(t *testing.T) {
			m := NewModel()
			_, cmd := m.Update(key(k))
			require.NotNil(t, cmd)
			assert.Equal(t, tea.Quit(), cmd())
			assert.True(t, m.Quit)
		})
	}
}

func TestModel_RunnerKeysForwardedOnlyWhenListening(t *testing.T) {
	var got []string
	m := NewModel(WithKeyFunc(func(k string) { got = append(got, k) }))

	m.Update(key("a"))
	assert.Empty(t, got)
	assert.False(t, m.Listening())

	m.Update(ListenMsg{})
	for _, k := range []string{"a", "p", "t", "enter", "x"} {
		m.Update(key(k))
	}
	assert.Equal(t, []string{"a", "p", "t", "enter"}, got)
}

func TestModel_LogFollowsOnlyAtBottom(t *testing.T) {
	m := NewModel()
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, "line")
	}
	m.Update(FrameMsg{Lines: lines})
	assert.True(t, m.log.AtBottom())

	m.Update(key("up"))
	offset := m.log.YOffset
	assert.False(t, m.log.AtBottom())

	m.Update(FrameMsg{Lines: []string{"more"}})
	assert.Equal(t, offset, m.log.YOffset, "scrolled-back log keeps its position")
}

func TestExpandTabs(t *testing.T) {
	assert.Equal(t, "a:\n        b", expandTabs("a:\n\tb", 8))
	assert.Equal(t, "ab      c", expandTabs("ab\tc", 8))
}

func TestFitLine(t *testing.T) {
	assert.Equal(t, "plain", fitLine("plain", 10))
	assert.Equal(t, "\x1b[31mred\x1b[39m\x1b[0m", fitLine("\x1b[31mred\x1b[39m", 10))
	assert.Equal(t, "", fitLine("", 10))
}
