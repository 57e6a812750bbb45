// Package dashboard turns test-run lifecycle notifications into the
// content of the dashboard's display regions.
//
// Dashboard is the reporter-facing side: it implements results.Reporter,
// mutates a results.State, and asks its Presenter to push the new state to
// a Surface. Lifecycle calls and timer ticks may arrive on different
// goroutines; Dashboard serializes them so the state has a single writer.
package dashboard

import (
	"io"
	"log"
	"sync"

	"github.com/ansel1/testdash/output/format"
	"github.com/ansel1/testdash/results"
	"github.com/ansel1/testdash/timer"
)

// Dashboard ingests runner lifecycle events.
type Dashboard struct {
	mu        sync.Mutex
	state     *results.State
	timer     *timer.Timer
	presenter *Presenter
	surface   Surface
	logger    *log.Logger
}

var _ results.Reporter = (*Dashboard)(nil)

type options struct {
	scheduler timer.Scheduler
	logger    *log.Logger
}

// Option configures a Dashboard
type Option func(*options)

// WithScheduler replaces the wall-clock scheduler behind the run timer.
func WithScheduler(s timer.Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

// WithLogger sets the debug logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// New creates a dashboard that accumulates into state and renders to
// surface. The initial state is rendered immediately.
func New(state *results.State, surface Surface, opts ...Option) *Dashboard {
	o := options{
		scheduler: timer.Clock{},
		logger:    log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Dashboard{
		state:     state,
		presenter: NewPresenter(surface),
		surface:   surface,
		logger:    o.logger,
	}
	d.timer = timer.New(o.scheduler, &d.mu)

	d.mu.Lock()
	d.presenter.Render(d.state)
	d.mu.Unlock()
	return d
}

// OnRunStart marks the run as running and starts the elapsed timer.
func (d *Dashboard) OnRunStart(cfg results.RunConfig) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state.Status == results.StatusRunning {
		d.logger.Printf("run start received while run %d is still running", d.state.Runs)
	}

	d.state.BeginRun(cfg.Watch)
	d.timer.Start(d.tick)
	d.logger.Printf("run %d started: watch=%t suites=%d", d.state.Runs, d.state.WatchMode, cfg.NumTotalTestSuites)

	if d.state.WatchMode && cfg.NumTotalTestSuites == 0 {
		d.state.AppendLog(format.NoTestsHint)
	}

	d.presenter.Render(d.state)
}

// OnTestResult records the outcome of one test file.
func (d *Dashboard) OnTestResult(outcome results.FileRunOutcome) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e := outcome.ExecError; e != nil {
		d.logger.Printf("exec error in %s at %d:%d", outcome.FilePath, e.Line, e.Column)
		d.state.AppendError(results.ErrorEntry{
			Message: format.ExecErrorBlock(outcome.FilePath, e.Line, e.Column, e.Message),
		})
		d.presenter.Render(d.state)
		return
	}

	for _, entry := range outcome.Console {
		d.state.AppendLog(format.ConsoleLine(entry.Origin, entry.Message, string(entry.Level)))
	}

	p := results.Partition(outcome.CaseResults)
	d.state.Append(p)
	d.logger.Printf("result %s: %d passing, %d failing, %d errors, %d console",
		outcome.FilePath, len(p.Passing), len(p.Failing), len(p.Errors), len(outcome.Console))

	d.presenter.Render(d.state)
}

// OnRunComplete stops the timer and marks the run complete. In watch mode
// the surface resumes listening for runner keys.
func (d *Dashboard) OnRunComplete(summary results.RunSummary) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.timer.Stop()
	d.state.CompleteRun()
	d.logger.Printf("run %d complete: total=%d passed=%d failed=%d success=%t",
		d.state.Runs, summary.NumTotalTests, summary.NumPassedTests, summary.NumFailedTests, summary.Success)

	d.presenter.Render(d.state)

	if d.state.WatchMode {
		if l, ok := d.surface.(InputListener); ok {
			l.ResumeInput()
		}
	}
}

// AppendRaw streams a line of runner output that was not an event into the
// log region.
func (d *Dashboard) AppendRaw(line string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.state.AppendLog(line)
	d.presenter.Render(d.state)
}

// View runs fn with the state while no event or tick can modify it.
func (d *Dashboard) View(fn func(*results.State)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fn(d.state)
}

// tick runs with d.mu held by the timer.
func (d *Dashboard) tick() {
	if d.state.Tick() {
		d.presenter.Render(d.state)
	}
}
