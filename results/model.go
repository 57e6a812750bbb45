package results

import "strings"

// LogLevel is the severity of a captured console entry.
type LogLevel string

const (
	LevelLog   LogLevel = "log"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// TestCaseResult is the outcome of one executed test case within a file.
type TestCaseResult struct {
	Title           string   // The case's own title
	AncestorTitles  []string // Enclosing group titles, outermost first
	FailureMessages []string // Empty when the case passed
}

// TitlePath returns the ancestor chain followed by the case's own title.
func (r TestCaseResult) TitlePath() []string {
	path := make([]string, 0, len(r.AncestorTitles)+1)
	path = append(path, r.AncestorTitles...)
	return append(path, r.Title)
}

// NearestAncestor returns the innermost enclosing group title, or "".
func (r TestCaseResult) NearestAncestor() string {
	if len(r.AncestorTitles) == 0 {
		return ""
	}
	return r.AncestorTitles[len(r.AncestorTitles)-1]
}

// Failed reports whether the case produced any failure message.
func (r TestCaseResult) Failed() bool {
	return len(r.FailureMessages) > 0
}

// ExecError describes a file that could not be executed at all.
type ExecError struct {
	Message string
	Line    int
	Column  int
}

// ConsoleEntry is one console call captured while a file ran.
type ConsoleEntry struct {
	Origin  string
	Message string
	Level   LogLevel
}

// FileRunOutcome is reported once per completed test file.
type FileRunOutcome struct {
	FilePath    string
	ExecError   *ExecError // Non-nil when the file failed to execute
	Console     []ConsoleEntry
	CaseResults []TestCaseResult
}

// ErrorEntry is one rendered error: a failure message under its case title,
// or a synthetic file execution error block with no title.
type ErrorEntry struct {
	Title   string
	Message string
}

// Text renders the entry as it appears in the errors region.
func (e ErrorEntry) Text() string {
	if e.Title == "" {
		return e.Message
	}
	return e.Title + "\n" + e.Message
}

// RunConfig is what the runner announces when a run starts.
type RunConfig struct {
	Watch              bool
	NumTotalTestSuites int
}

// RunSummary is reported when a run completes. The dashboard only logs it.
type RunSummary struct {
	NumTotalTests  int
	NumPassedTests int
	NumFailedTests int
	Success        bool
}

// Status is the lifecycle status of the dashboard.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusComplete
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusComplete:
		return "complete"
	default:
		return "idle"
	}
}

// Reporter receives lifecycle notifications from a test runner.
type Reporter interface {
	OnRunStart(cfg RunConfig)
	OnTestResult(outcome FileRunOutcome)
	OnRunComplete(summary RunSummary)
}

// joinLines joins a slice with newlines; used for multi-line failure output.
func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
