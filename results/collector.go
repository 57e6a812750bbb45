package results

import (
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/ansel1/testdash/engine"
	"github.com/ansel1/testdash/parser"
)

// Collector processes engine events and drives a Reporter.
//
// Reporter lifecycle events are forwarded as they are. Events from
// `go test -json` are aggregated per package, which plays the role of a test
// file, and run boundaries are detected with the heuristic:
// - Run starts: any test event when no current run exists
// - Run finishes: running package count drops to 0, or the input ends
type Collector struct {
	reporter Reporter
	raw      func(line string)
	logger   *log.Logger

	run              *goRun // In-progress go test run, nil if none
	lifecycleRunning bool   // A reporter runStart has not been completed yet
}

// CollectorOption configures a Collector
type CollectorOption func(*Collector)

// WithRawSink receives every input line that was not an event.
func WithRawSink(fn func(line string)) CollectorOption {
	return func(c *Collector) {
		c.raw = fn
	}
}

// WithCollectorLogger sets the debug logger.
func WithCollectorLogger(l *log.Logger) CollectorOption {
	return func(c *Collector) {
		c.logger = l
	}
}

// NewCollector creates a collector reporting to r.
func NewCollector(r Reporter, opts ...CollectorOption) *Collector {
	c := &Collector{
		reporter: r,
		raw:      func(string) {},
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProcessEvents consumes engine events until the stream completes or the
// channel closes. It should be called as a goroutine.
func (c *Collector) ProcessEvents(events <-chan engine.Event) {
	for evt := range events {
		if !c.Push(evt) {
			return
		}
	}
	c.Finish()
}

// Push handles a single engine event. It returns false once the input is
// complete.
func (c *Collector) Push(evt engine.Event) bool {
	switch evt.Type {
	case engine.EventRawLine:
		c.raw(string(evt.RawLine))

	case engine.EventLifecycle:
		c.handleLifecycle(evt.Lifecycle)

	case engine.EventTest:
		c.handleTestEvent(evt.TestEvent)

	case engine.EventError:
		// Log error but continue processing
		c.logger.Printf("input error: %v", evt.Error)

	case engine.EventComplete:
		c.Finish()
		return false
	}
	return true
}

// Finish completes any run still in progress. This should be called when
// the input ends or is interrupted.
func (c *Collector) Finish() {
	if c.run != nil {
		c.finishGoRun()
	}
	if c.lifecycleRunning {
		c.lifecycleRunning = false
		c.reporter.OnRunComplete(RunSummary{})
	}
}

func (c *Collector) handleLifecycle(ev parser.LifecycleEvent) {
	switch ev.Event {
	case parser.EventRunStart:
		c.lifecycleRunning = true
		c.reporter.OnRunStart(RunConfig{
			Watch:              ev.Watch,
			NumTotalTestSuites: ev.NumTotalTestSuites,
		})

	case parser.EventTestResult:
		c.reporter.OnTestResult(outcomeFromLifecycle(ev))

	case parser.EventRunComplete:
		c.lifecycleRunning = false
		c.reporter.OnRunComplete(RunSummary{
			NumTotalTests:  ev.NumTotalTests,
			NumPassedTests: ev.NumPassedTests,
			NumFailedTests: ev.NumFailedTests,
			Success:        ev.Success,
		})
	}
}

func outcomeFromLifecycle(ev parser.LifecycleEvent) FileRunOutcome {
	out := FileRunOutcome{FilePath: ev.TestFilePath}
	if e := ev.TestExecError; e != nil {
		out.ExecError = &ExecError{
			Message: e.Message,
			Line:    e.Loc.Line,
			Column:  e.Loc.Column,
		}
	}
	for _, entry := range ev.Console {
		out.Console = append(out.Console, ConsoleEntry{
			Origin:  entry.Origin,
			Message: entry.Message,
			Level:   LogLevel(entry.Type),
		})
	}
	for _, r := range ev.TestResults {
		out.CaseResults = append(out.CaseResults, TestCaseResult{
			Title:           r.Title,
			AncestorTitles:  r.AncestorTitles,
			FailureMessages: r.FailureMessages,
		})
	}
	return out
}

// goRun tracks one `go test -json` run.
type goRun struct {
	packages     map[string]*goPackage
	runningPkgs  int
	buildOutput  map[string][]string // ImportPath -> build output lines
	passed       int
	failed       int
	total        int
	execFailures int
}

type goPackage struct {
	name      string
	tests     map[string]*goTest
	testOrder []string // Chronological order of test starts
	console   []ConsoleEntry
	done      bool
}

type goTest struct {
	name        string
	status      string // "running", "pass", "fail", "skip"
	output      []string
	summaryLine string // The final "---" line
}

func (c *Collector) handleTestEvent(event parser.TestEvent) {
	if c.run == nil {
		c.run = &goRun{
			packages:    make(map[string]*goPackage),
			buildOutput: make(map[string][]string),
		}
		c.reporter.OnRunStart(RunConfig{})
	}
	run := c.run

	// Build output arrives before, and separately from, the package events
	if event.Package == "" {
		switch event.Action {
		case "build-output":
			if out := strings.TrimRight(event.Output, "\n"); out != "" {
				run.buildOutput[event.ImportPath] = append(run.buildOutput[event.ImportPath], out)
			}
		}
		return
	}

	pkg, exists := run.packages[event.Package]
	if !exists {
		pkg = &goPackage{
			name:  event.Package,
			tests: make(map[string]*goTest),
		}
		run.packages[event.Package] = pkg
		run.runningPkgs++
	}
	if pkg.done {
		return
	}

	if event.Test == "" {
		c.handlePackageEvent(run, pkg, event)
		return
	}
	c.handleTestLevelEvent(pkg, event)
}

func (c *Collector) handlePackageEvent(run *goRun, pkg *goPackage, event parser.TestEvent) {
	switch event.Action {
	case "output":
		line := strings.TrimRight(event.Output, "\n")
		if line == "" || isPackageSummary(line) {
			return
		}
		pkg.console = append(pkg.console, ConsoleEntry{
			Origin:  pkg.name,
			Message: line,
			Level:   levelOf(line),
		})

	case "pass", "skip":
		c.finishPackage(run, pkg, false, "")

	case "fail":
		c.finishPackage(run, pkg, true, event.FailedBuild)
	}
}

func (c *Collector) handleTestLevelEvent(pkg *goPackage, event parser.TestEvent) {
	test, exists := pkg.tests[event.Test]
	if !exists {
		test = &goTest{name: event.Test, status: "running"}
		pkg.tests[event.Test] = test
		pkg.testOrder = append(pkg.testOrder, event.Test)
	}

	switch event.Action {
	case "run":
		test.status = "running"

	case "output":
		line := strings.TrimRight(event.Output, "\n")
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
		case strings.HasPrefix(trimmed, "---"):
			test.summaryLine = trimmed
		case strings.HasPrefix(trimmed, "==="):
		default:
			test.output = append(test.output, line)
		}

	case "pass", "fail", "skip":
		test.status = event.Action
	}
}

// finishPackage reports a completed package as one file outcome.
func (c *Collector) finishPackage(run *goRun, pkg *goPackage, failed bool, failedBuild string) {
	pkg.done = true
	run.runningPkgs--

	outcome := FileRunOutcome{FilePath: pkg.name}

	if failed && len(pkg.testOrder) == 0 {
		outcome.ExecError = c.execError(run, pkg, failedBuild)
		run.execFailures++
	} else {
		outcome.Console = pkg.console
		for _, name := range pkg.testOrder {
			outcome.CaseResults = append(outcome.CaseResults, caseResult(pkg.tests[name]))
		}
		for _, r := range outcome.CaseResults {
			run.total++
			if r.Failed() {
				run.failed++
			} else {
				run.passed++
			}
		}
	}

	c.reporter.OnTestResult(outcome)

	if run.runningPkgs == 0 {
		c.finishGoRun()
	}
}

func (c *Collector) finishGoRun() {
	run := c.run
	c.run = nil
	c.reporter.OnRunComplete(RunSummary{
		NumTotalTests:  run.total,
		NumPassedTests: run.passed,
		NumFailedTests: run.failed,
		Success:        run.failed == 0 && run.execFailures == 0,
	})
}

// execError describes a package that failed without running any test,
// usually because it did not build.
func (c *Collector) execError(run *goRun, pkg *goPackage, failedBuild string) *ExecError {
	lines := run.buildOutput[failedBuild]
	if len(lines) == 0 {
		for importPath, out := range run.buildOutput {
			if importPath == pkg.name || strings.HasPrefix(importPath, pkg.name+" ") {
				lines = out
				break
			}
		}
	}
	if len(lines) == 0 {
		for _, entry := range pkg.console {
			lines = append(lines, entry.Message)
		}
	}
	if len(lines) == 0 {
		lines = []string{"package failed without running tests"}
	}

	message := joinLines(lines)
	e := &ExecError{Message: message}
	if m := goLocation.FindStringSubmatch(message); m != nil {
		e.Line, _ = strconv.Atoi(m[1])
		e.Column, _ = strconv.Atoi(m[2])
	}
	c.logger.Printf("package %s failed to execute", pkg.name)
	return e
}

// goLocation matches the first file:line:column in compiler output.
var goLocation = regexp.MustCompile(`\.go:(\d+):(\d+)`)

// caseResult converts a go test into a case result. Subtest paths become
// ancestor titles: "TestA/b/c" is titled "c" under ["TestA", "b"].
func caseResult(t *goTest) TestCaseResult {
	parts := strings.Split(t.name, "/")
	r := TestCaseResult{
		Title:          parts[len(parts)-1],
		AncestorTitles: parts[:len(parts)-1],
	}
	switch t.status {
	case "fail":
		r.FailureMessages = []string{failureMessage(t)}
	case "running":
		r.FailureMessages = []string{"test did not complete"}
	}
	return r
}

func failureMessage(t *goTest) string {
	if len(t.output) > 0 {
		lines := make([]string, len(t.output))
		for i, l := range t.output {
			lines[i] = strings.TrimSpace(l)
		}
		return joinLines(lines)
	}
	if t.summaryLine != "" {
		return t.summaryLine
	}
	return "failed"
}

// isPackageSummary reports the per-package trailer lines that go test
// prints after the tests, which carry nothing the dashboard does not
// already show.
func isPackageSummary(line string) bool {
	switch {
	case line == "PASS", line == "FAIL":
		return true
	case strings.HasPrefix(line, "ok  "), strings.HasPrefix(line, "FAIL\t"), strings.HasPrefix(line, "?   "):
		return true
	default:
		return false
	}
}

func levelOf(line string) LogLevel {
	switch {
	case strings.HasPrefix(line, "FAIL"), strings.HasPrefix(line, "panic:"):
		return LevelError
	case strings.HasPrefix(line, "--- SKIP"), strings.HasPrefix(line, "WARNING"),
		strings.HasPrefix(line, "testing: warning"):
		return LevelWarn
	default:
		return LevelLog
	}
}
