package dashboard

import (
	"testing"

	"github.com/ansel1/testdash/results"
	"github.com/stretchr/testify/assert"
)

func TestPresenter_RegionContent(t *testing.T) {
	surface := newRecordingSurface()
	p := NewPresenter(surface)

	s := results.NewState()
	s.BeginRun(false)
	s.Append(results.Partitioned{
		Passing: []string{"• a", "• b"},
		Failing: []string{"• c"},
		Errors:  []results.ErrorEntry{{Title: "• c", Message: "boom"}},
	})
	s.AppendError(results.ErrorEntry{Message: "x.test.js\n1:2\nSyntaxError"})
	s.Tick()
	s.Tick()

	p.Render(s)

	assert.Equal(t, "• a\n• b", surface.get(RegionPassing))
	assert.Equal(t, "• c", surface.get(RegionFailing))
	assert.Equal(t, "{center}2{/center}", surface.get(RegionPassed))
	assert.Equal(t, "{center}1{/center}", surface.get(RegionFailed))
	assert.Equal(t, "• c\nboom\nx.test.js\n1:2\nSyntaxError", surface.get(RegionErrors))
	assert.Equal(t, "{center}2s{/center}", surface.get(RegionTime))
	assert.Equal(t, "{center}Running{/center}", surface.get(RegionStatus))
	assert.Equal(t, 1, surface.repaints)
}

func TestPresenter_StatusText(t *testing.T) {
	surface := newRecordingSurface()
	p := NewPresenter(surface)
	s := results.NewState()

	p.Render(s)
	assert.Equal(t, "{center}Idle{/center}", surface.get(RegionStatus))

	s.BeginRun(false)
	p.Render(s)
	assert.Equal(t, "{center}Running{/center}", surface.get(RegionStatus))

	s.CompleteRun()
	p.Render(s)
	assert.Equal(t, "{center}Complete{/center}", surface.get(RegionStatus))
}

func TestPresenter_StreamsLogOnce(t *testing.T) {
	surface := newRecordingSurface()
	p := NewPresenter(surface)
	s := results.NewState()

	s.AppendLog("one", "two")
	p.Render(s)
	p.Render(s)
	s.AppendLog("three")
	p.Render(s)

	assert.Equal(t, []string{"one", "two", "three"}, surface.log)
	assert.Equal(t, 3, surface.repaints)
}

func TestPresenter_SkipsUnchangedRegions(t *testing.T) {
	surface := newRecordingSurface()
	p := NewPresenter(surface)
	s := results.NewState()
	s.BeginRun(false)

	p.Render(s)
	s.Tick()
	p.Render(s)

	assert.Equal(t, 1, surface.writes[RegionPassing])
	assert.Equal(t, 1, surface.writes[RegionStatus])
	assert.Equal(t, 2, surface.writes[RegionTime])
	assert.Equal(t, 2, surface.repaints)
}

func TestRegionLabels(t *testing.T) {
	assert.Equal(t, "Total Test Time", RegionTime.Label())
	assert.Equal(t, "Log", RegionLog.Label())
	assert.Len(t, Regions, 8)
	seen := make(map[string]bool)
	for _, r := range Regions {
		assert.False(t, seen[r.Label()], r)
		seen[r.Label()] = true
	}
}
