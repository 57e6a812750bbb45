package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/ansel1/testdash/dashboard"
	"github.com/ansel1/testdash/output/format"
)

// Plain is a dashboard.Surface for non-terminal output.
//
// Log lines are printed as they stream in. Each status change prints a
// status line, and when a run completes a summary of the accumulated
// results is printed.
type Plain struct {
	mu        sync.Mutex
	writer    io.Writer
	formatter *SummaryFormatter
	colors    bool

	content map[dashboard.Region]string
	pending []string
	status  string
	elapsed string
	err     error
}

var _ dashboard.Surface = (*Plain)(nil)

// NewPlain creates a plain surface writing to w. When colors is false,
// ANSI sequences are stripped from everything written.
func NewPlain(w io.Writer, colors bool) *Plain {
	return &Plain{
		writer:    w,
		formatter: NewSummaryFormatter(80, colors),
		colors:    colors,
		content:   make(map[dashboard.Region]string),
	}
}

// SetContent records the text of a region.
func (p *Plain) SetContent(r dashboard.Region, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.content[r] = text
	if r == dashboard.RegionTime {
		if elapsed, _ := format.Uncenter(text); elapsed != "<1s" {
			p.elapsed = elapsed
		}
	}
}

// AppendLine queues a log line for the next repaint.
func (p *Plain) AppendLine(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, text)
}

// Repaint prints queued log lines, then the status line and summary when
// the status changed.
func (p *Plain) Repaint() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, line := range p.pending {
		p.println(line)
	}
	p.pending = nil

	status, _ := format.Uncenter(p.content[dashboard.RegionStatus])
	if status == p.status {
		return
	}
	p.status = status

	switch status {
	case "Running":
		p.elapsed = ""
		p.println("--- Running")
	case "Complete":
		p.println("--- Complete")
		p.write(p.formatter.Format(p.summary()))
	}
}

// Err returns the first write error, if any.
func (p *Plain) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Plain) summary() Summary {
	s := Summary{
		Passed:  count(p.content[dashboard.RegionPassed]),
		Failed:  count(p.content[dashboard.RegionFailed]),
		Failing: lines(p.content[dashboard.RegionFailing]),
		Errors:  lines(p.content[dashboard.RegionErrors]),
		Elapsed: p.elapsed,
	}
	if s.Elapsed == "" {
		s.Elapsed = format.Elapsed(0)
	}
	return s
}

func (p *Plain) println(s string) {
	p.write(s + "\n")
}

func (p *Plain) write(s string) {
	if p.err != nil {
		return
	}
	if !p.colors {
		s = format.StripANSI(s)
	}
	_, p.err = io.WriteString(p.writer, s)
}

func count(text string) int {
	s, _ := format.Uncenter(text)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func lines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// String renders the current counts, used in debug logs.
func (p *Plain) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("status=%q passed=%d failed=%d", p.status,
		count(p.content[dashboard.RegionPassed]), count(p.content[dashboard.RegionFailed]))
}
