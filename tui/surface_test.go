package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/ansel1/testdash/dashboard"
	"github.com/ansel1/testdash/results"
	"github.com/ansel1/testdash/timer"
	tea "github.com/charmbracelet/bubbletea"
	teatest "github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMsgs struct {
	msgs []tea.Msg
}

func (s *sentMsgs) Send(msg tea.Msg) {
	s.msgs = append(s.msgs, msg)
}

func TestSurface_BuffersUntilRepaint(t *testing.T) {
	p := &sentMsgs{}
	s := NewSurface(p)

	s.SetContent(dashboard.RegionPassing, "• a")
	s.SetContent(dashboard.RegionPassing, "• a\n• b")
	s.AppendLine("one")
	s.AppendLine("two")
	assert.Empty(t, p.msgs)

	s.Repaint()
	require.Len(t, p.msgs, 1)
	frame := p.msgs[0].(FrameMsg)
	assert.Equal(t, "• a\n• b", frame.Content[dashboard.RegionPassing])
	assert.Equal(t, []string{"one", "two"}, frame.Lines)

	s.Repaint()
	require.Len(t, p.msgs, 2)
	empty := p.msgs[1].(FrameMsg)
	assert.Empty(t, empty.Content)
	assert.Empty(t, empty.Lines)

	s.ResumeInput()
	assert.Equal(t, ListenMsg{}, p.msgs[2])
}

func TestSurface_DrivesProgram(t *testing.T) {
	var keys []string
	m := NewModel(WithKeyFunc(func(k string) { keys = append(keys, k) }))
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 40))

	d := dashboard.New(results.NewState(), NewSurface(tm), dashboard.WithScheduler(&timer.Manual{}))
	d.OnRunStart(results.RunConfig{Watch: true, NumTotalTestSuites: 1})
	d.OnTestResult(results.FileRunOutcome{
		FilePath: "calc.test.js",
		CaseResults: []results.TestCaseResult{
			{Title: "adds", AncestorTitles: []string{"Calc"}},
		},
	})
	d.OnRunComplete(results.RunSummary{})

	teatest.WaitFor(
		t,
		tm.Output(),
		func(bts []byte) bool {
			output := string(bts)
			return strings.Contains(output, "Calc adds") && strings.Contains(output, "Complete")
		},
		teatest.WithDuration(2*time.Second),
		teatest.WithCheckInterval(50*time.Millisecond),
	)

	tm.Send(key("p"))
	tm.Send(key("q"))
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final := tm.FinalModel(t).(*Model)
	assert.True(t, final.Quit)
	assert.True(t, final.Listening())
	assert.Equal(t, []string{"p"}, keys)
}
