package tui

import (
	"sync"

	"github.com/ansel1/testdash/dashboard"
	tea "github.com/charmbracelet/bubbletea"
)

// Program is the part of *tea.Program the surface needs.
type Program interface {
	Send(msg tea.Msg)
}

// Surface is a dashboard.Surface backed by a running bubbletea program.
//
// Writes are buffered and delivered to the model as one FrameMsg on
// Repaint, so the model only ever sees complete frames.
type Surface struct {
	mu      sync.Mutex
	program Program
	content map[dashboard.Region]string
	lines   []string
}

var (
	_ dashboard.Surface       = (*Surface)(nil)
	_ dashboard.InputListener = (*Surface)(nil)
)

// NewSurface creates a surface sending frames to p.
func NewSurface(p Program) *Surface {
	return &Surface{
		program: p,
		content: make(map[dashboard.Region]string),
	}
}

// SetContent replaces the text of a region in the next frame.
func (s *Surface) SetContent(r dashboard.Region, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content[r] = text
}

// AppendLine adds a line to the log region in the next frame.
func (s *Surface) AppendLine(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, text)
}

// Repaint ships the buffered writes to the program.
func (s *Surface) Repaint() {
	s.mu.Lock()
	frame := FrameMsg{Content: s.content, Lines: s.lines}
	s.content = make(map[dashboard.Region]string)
	s.lines = nil
	s.mu.Unlock()

	s.program.Send(frame)
}

// ResumeInput makes the model forward runner keys.
func (s *Surface) ResumeInput() {
	s.program.Send(ListenMsg{})
}
