package dashboard

import (
	"strconv"
	"strings"

	"github.com/ansel1/testdash/output/format"
	"github.com/ansel1/testdash/results"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Presenter maps dashboard state onto surface regions.
//
// Region writes are skipped when the text is unchanged since the previous
// render. Log lines are streamed: each line is appended exactly once.
type Presenter struct {
	surface Surface
	last    map[Region]string
	logged  int
	caser   cases.Caser
}

// NewPresenter creates a presenter writing to surface.
func NewPresenter(surface Surface) *Presenter {
	return &Presenter{
		surface: surface,
		last:    make(map[Region]string),
		caser:   cases.Title(language.English),
	}
}

// Render pushes the current state to the surface and requests one repaint.
func (p *Presenter) Render(s *results.State) {
	p.set(RegionPassing, strings.Join(s.PassingTitles, "\n"))
	p.set(RegionFailing, strings.Join(s.FailingTitles, "\n"))
	p.set(RegionPassed, format.Centered(strconv.Itoa(len(s.PassingTitles))))
	p.set(RegionFailed, format.Centered(strconv.Itoa(len(s.FailingTitles))))
	p.set(RegionErrors, errorsText(s.Errors))
	p.set(RegionTime, format.Centered(format.Elapsed(s.ElapsedSeconds)))
	p.set(RegionStatus, format.Centered(p.caser.String(s.Status.String())))

	for _, line := range s.LogLines[p.logged:] {
		p.surface.AppendLine(line)
	}
	p.logged = len(s.LogLines)

	p.surface.Repaint()
}

func (p *Presenter) set(r Region, text string) {
	if prev, ok := p.last[r]; ok && prev == text {
		return
	}
	p.last[r] = text
	p.surface.SetContent(r, text)
}

func errorsText(entries []results.ErrorEntry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.Text()
	}
	return strings.Join(parts, "\n")
}
