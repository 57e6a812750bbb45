package tui

import (
	"strings"

	"github.com/ansel1/testdash/dashboard"
	"github.com/ansel1/testdash/output/format"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// FrameMsg carries every region write made since the previous repaint.
type FrameMsg struct {
	Content map[dashboard.Region]string // Latest text per region
	Lines   []string                    // Log lines to append, in order
}

// ListenMsg tells the model to start forwarding runner keys.
type ListenMsg struct{}

// KeyFunc receives runner keys ("a", "p", "t", "enter") once the model is
// listening.
type KeyFunc func(key string)

// Theme holds the colors the model renders with.
type Theme struct {
	Border lipgloss.Color
	Pass   lipgloss.Color
	Fail   lipgloss.Color
	Error  lipgloss.Color
	Warn   lipgloss.Color
}

// DefaultTheme matches the dashboard's classic look.
func DefaultTheme() Theme {
	return Theme{
		Border: lipgloss.Color("#a23c4f"),
		Pass:   lipgloss.Color("2"),
		Fail:   lipgloss.Color("1"),
		Error:  lipgloss.Color("1"),
		Warn:   lipgloss.Color("3"),
	}
}

// Model is the bubbletea model for the dashboard screen.
//
// It holds the last text written to each region and lays the regions out
// as bordered boxes: Passing and Failing columns on the left half, and on
// the right a row of four small boxes above the Log and Errors boxes.
// The log keeps its own scroll position in a viewport.
type Model struct {
	content  map[dashboard.Region]string
	logs     []string
	rendered []string // Log lines as shown at the current width
	log      viewport.Model

	listening bool
	onKey     KeyFunc

	// Terminal state
	TerminalWidth  int
	TerminalHeight int

	theme       Theme
	borderStyle lipgloss.Style
	labelStyle  lipgloss.Style
	passStyle   lipgloss.Style
	failStyle   lipgloss.Style
	errorStyle  lipgloss.Style
	warnStyle   lipgloss.Style

	Quit bool // True once the user asked to quit
}

// Option configures a Model
type Option func(*Model)

// WithTheme sets the model colors.
func WithTheme(t Theme) Option {
	return func(m *Model) {
		m.theme = t
	}
}

// WithKeyFunc sets where runner keys are forwarded.
func WithKeyFunc(fn KeyFunc) Option {
	return func(m *Model) {
		m.onKey = fn
	}
}

// NewModel creates a new TUI model
func NewModel(opts ...Option) *Model {
	m := &Model{
		content:        make(map[dashboard.Region]string),
		logs:           make([]string, 0),
		log:            viewport.New(0, 0),
		TerminalWidth:  80, // Default width, will be updated by Bubbletea
		TerminalHeight: 24, // Default height, will be updated by Bubbletea
		theme:          DefaultTheme(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.borderStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(m.theme.Border)
	m.labelStyle = lipgloss.NewStyle().Bold(true).Foreground(m.theme.Border)
	m.passStyle = lipgloss.NewStyle().Foreground(m.theme.Pass)
	m.failStyle = lipgloss.NewStyle().Foreground(m.theme.Fail)
	m.errorStyle = lipgloss.NewStyle().Foreground(m.theme.Error)
	m.warnStyle = lipgloss.NewStyle().Foreground(m.theme.Warn)

	m.resize()
	return m
}

// Init initializes the model and returns the initial command
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FrameMsg:
		m.applyFrame(msg)

	case ListenMsg:
		m.listening = true

	case tea.WindowSizeMsg:
		m.TerminalWidth = msg.Width
		m.TerminalHeight = msg.Height
		m.resize()

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "esc", "ctrl+c":
			m.Quit = true
			return m, tea.Quit

		case "a", "p", "t", "enter":
			if m.listening && m.onKey != nil {
				m.onKey(key)
			}

		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.log, cmd = m.log.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// Listening reports whether runner keys are being forwarded.
func (m *Model) Listening() bool {
	return m.listening
}

// Content returns the last text written to a region.
func (m *Model) Content(r dashboard.Region) string {
	if r == dashboard.RegionLog {
		return strings.Join(m.logs, "\n")
	}
	return m.content[r]
}

func (m *Model) applyFrame(f FrameMsg) {
	for r, text := range f.Content {
		m.content[r] = text
	}
	if len(f.Lines) == 0 {
		return
	}
	follow := m.log.AtBottom()
	m.logs = append(m.logs, f.Lines...)
	m.rendered = append(m.rendered, m.renderLog(f.Lines)...)
	m.log.SetContent(strings.Join(m.rendered, "\n"))
	if follow {
		m.log.GotoBottom()
	}
}

// topRow lists the regions of the small boxes above the log.
var topRow = []dashboard.Region{
	dashboard.RegionTime,
	dashboard.RegionStatus,
	dashboard.RegionPassed,
	dashboard.RegionFailed,
}

// layout holds box sizes for the current terminal, borders included.
type layout struct {
	column    int   // Passing and Failing width
	right     int   // Right half width
	top       []int // Width of each top-row box
	topHeight int
	logHeight int
	errHeight int
}

func (m *Model) layout() layout {
	w := max(m.TerminalWidth, 40)
	h := max(m.TerminalHeight, 12)

	l := layout{column: w / 4}
	l.right = w - 2*l.column
	l.top = topWidths(l.right, topRow)
	l.topHeight = max(h/10, 4)
	l.logHeight = max(h*26/100, 4)
	l.errHeight = max(h-l.topHeight-l.logHeight, 4)
	return l
}

func (m *Model) resize() {
	l := m.layout()
	follow := m.log.AtBottom()
	m.log.Width = l.right - 2
	m.log.Height = l.logHeight - 3 // Borders and label
	m.rendered = m.renderLog(m.logs)
	m.log.SetContent(strings.Join(m.rendered, "\n"))
	if follow {
		m.log.GotoBottom()
	} else {
		m.log.SetYOffset(m.log.YOffset)
	}
}

// topWidths splits total between the top-row boxes. Boxes start equal and
// a box too narrow for its label borrows columns from neighbours that
// have some to spare.
func topWidths(total int, regions []dashboard.Region) []int {
	n := len(regions)
	widths := make([]int, n)
	need := make([]int, n)
	for i, r := range regions {
		widths[i] = total / n
		need[i] = runewidth.StringWidth(r.Label()) + 2
	}
	widths[n-1] += total % n

	for i := range widths {
		for j := 0; j < n && widths[i] < need[i]; j++ {
			for j != i && widths[i] < need[i] && widths[j] > need[j] {
				widths[j]--
				widths[i]++
			}
		}
	}
	return widths
}

// renderLog turns log entries into display lines at the viewport width.
func (m *Model) renderLog(entries []string) []string {
	var lines []string
	for _, entry := range entries {
		for _, line := range strings.Split(expandTabs(entry, 8), "\n") {
			line = format.MapLevels(line, m.levelColor)
			lines = append(lines, fitLine(line, m.log.Width))
		}
	}
	return lines
}

// levelColor paints a warn or error span of a log line with the theme.
func (m *Model) levelColor(text, level string) string {
	if level == "warn" {
		return m.warnStyle.Render(text)
	}
	return m.errorStyle.Render(text)
}

// View renders the TUI
func (m *Model) View() string {
	l := m.layout()

	passing := m.listBox(dashboard.RegionPassing, l.column, l.errHeight+l.logHeight+l.topHeight, m.passStyle)
	failing := m.listBox(dashboard.RegionFailing, l.column, l.errHeight+l.logHeight+l.topHeight, m.failStyle)

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		m.valueBox(dashboard.RegionTime, l.top[0], l.topHeight, lipgloss.NewStyle()),
		m.valueBox(dashboard.RegionStatus, l.top[1], l.topHeight, m.statusStyle()),
		m.valueBox(dashboard.RegionPassed, l.top[2], l.topHeight, m.passStyle),
		m.valueBox(dashboard.RegionFailed, l.top[3], l.topHeight, m.failStyle),
	)
	logBox := m.box(dashboard.RegionLog, m.log.View(), l.right, l.logHeight)
	errors := m.listBox(dashboard.RegionErrors, l.right, l.errHeight, m.errorStyle)

	right := lipgloss.JoinVertical(lipgloss.Left, top, logBox, errors)
	return lipgloss.JoinHorizontal(lipgloss.Top, passing, failing, right)
}

// String renders the TUI
func (m *Model) String() string {
	return m.View()
}

func (m *Model) statusStyle() lipgloss.Style {
	text, _ := format.Uncenter(m.content[dashboard.RegionStatus])
	if text == "Running" {
		return m.warnStyle
	}
	return lipgloss.NewStyle()
}

// listBox renders a region whose content is a list of lines. When the list
// is taller than the box the newest lines are shown.
func (m *Model) listBox(r dashboard.Region, width, height int, style lipgloss.Style) string {
	inner := width - 2
	rows := height - 3
	text := m.content[r]
	if text == "" {
		return m.box(r, "", width, height)
	}

	lines := strings.Split(text, "\n")
	if rows > 0 && len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}
	for i, line := range lines {
		lines[i] = style.Render(runewidth.Truncate(format.StripANSI(line), inner, "…"))
	}
	return m.box(r, strings.Join(lines, "\n"), width, height)
}

// valueBox renders a single-value region, centered when the text asks
// for it.
func (m *Model) valueBox(r dashboard.Region, width, height int, style lipgloss.Style) string {
	inner := width - 2
	text, centered := format.Uncenter(m.content[r])
	text = runewidth.Truncate(text, inner, "…")
	if centered {
		text = lipgloss.PlaceHorizontal(inner, lipgloss.Center, style.Render(text))
	} else {
		text = style.Render(text)
	}
	return m.box(r, text, width, height)
}

func (m *Model) box(r dashboard.Region, body string, width, height int) string {
	inner := width - 2
	label := m.labelStyle.Render(runewidth.Truncate(r.Label(), inner, "…"))
	content := label
	if body != "" {
		content += "\n" + body
	}
	return m.borderStyle.
		Width(inner).
		Height(height - 2).
		MaxHeight(height).
		Render(content)
}

// expandTabs replaces tab characters in a string with spaces.
// This is necessary because tab characters in some display environments
// do not overwrite characters but simply advance the cursor, leaving
// characters from the previous view bleeding through.
func expandTabs(s string, tabWidth int) string {
	var b strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\n':
			b.WriteRune(r)
			col = 0
		case '\t':
			spaces := tabWidth - (col % tabWidth)
			b.WriteString(strings.Repeat(" ", spaces))
			col += spaces
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}
