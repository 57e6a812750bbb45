package parser

import (
	"encoding/json"
	"errors"
	"time"
)

// TestEvent represents a single event from `go test -json` output
type TestEvent struct {
	Time        time.Time `json:"Time"`
	Action      string    `json:"Action"`
	Package     string    `json:"Package"`
	Test        string    `json:"Test,omitempty"`
	Output      string    `json:"Output,omitempty"`
	Elapsed     float64   `json:"Elapsed,omitempty"`
	Source      string    `json:"Source,omitempty"`
	ImportPath  string    `json:"ImportPath,omitempty"`
	FailedBuild string    `json:"FailedBuild,omitempty"`
}

// ParseEvent parses a single line of JSON from `go test -json` output
func ParseEvent(line []byte) (TestEvent, error) {
	var event TestEvent
	if err := json.Unmarshal(line, &event); err != nil {
		return event, err
	}
	return event, nil
}

// Lifecycle event names carried in the "event" field of reporter lines.
const (
	EventRunStart    = "runStart"
	EventTestResult  = "testResult"
	EventRunComplete = "runComplete"
)

// Location is a line/column pair inside a test file.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// ExecError is the reporter's description of a file that failed to run.
type ExecError struct {
	Message string   `json:"message"`
	Loc     Location `json:"loc"`
}

// ConsoleEntry is one captured console call.
type ConsoleEntry struct {
	Message string `json:"message"`
	Origin  string `json:"origin"`
	Type    string `json:"type"`
}

// CaseResult is the reporter's per-case result.
type CaseResult struct {
	Title           string   `json:"title"`
	AncestorTitles  []string `json:"ancestorTitles"`
	FailureMessages []string `json:"failureMessages"`
}

// LifecycleEvent is one reporter lifecycle notification. Which fields are
// populated depends on Event.
type LifecycleEvent struct {
	Event string    `json:"event"`
	Time  time.Time `json:"time,omitempty"`

	// runStart
	Watch              bool `json:"watch,omitempty"`
	NumTotalTestSuites int  `json:"numTotalTestSuites,omitempty"`

	// testResult
	TestFilePath  string         `json:"testFilePath,omitempty"`
	TestExecError *ExecError     `json:"testExecError,omitempty"`
	Console       []ConsoleEntry `json:"console,omitempty"`
	TestResults   []CaseResult   `json:"testResults,omitempty"`

	// runComplete
	NumTotalTests  int  `json:"numTotalTests,omitempty"`
	NumPassedTests int  `json:"numPassedTests,omitempty"`
	NumFailedTests int  `json:"numFailedTests,omitempty"`
	Success        bool `json:"success,omitempty"`
}

// ParseLifecycle parses a single reporter lifecycle line.
func ParseLifecycle(line []byte) (LifecycleEvent, error) {
	var event LifecycleEvent
	if err := json.Unmarshal(line, &event); err != nil {
		return event, err
	}
	switch event.Event {
	case EventRunStart, EventTestResult, EventRunComplete:
		return event, nil
	default:
		return event, ErrUnknownEvent
	}
}

// Kind identifies which wire format a line was in.
type Kind int

const (
	KindRaw       Kind = iota // Not a recognized JSON event
	KindTest                  // go test -json event
	KindLifecycle             // Reporter lifecycle event
)

// Line is the result of classifying one input line.
type Line struct {
	Kind      Kind
	Test      TestEvent
	Lifecycle LifecycleEvent
}

// Time returns the event timestamp, zero for raw lines or events without one.
func (l Line) Time() time.Time {
	switch l.Kind {
	case KindTest:
		return l.Test.Time
	case KindLifecycle:
		return l.Lifecycle.Time
	default:
		return time.Time{}
	}
}

// ErrUnknownEvent is returned for JSON objects that are neither lifecycle
// nor go test events.
var ErrUnknownEvent = errors.New("unknown event")

type probe struct {
	Event  string `json:"event"`
	Action string `json:"Action"`
}

// ParseLine classifies a line as a lifecycle event, a go test event, or
// neither. The returned error is non-nil exactly when Kind is KindRaw.
func ParseLine(line []byte) (Line, error) {
	var p probe
	if err := json.Unmarshal(line, &p); err != nil {
		return Line{}, err
	}
	switch {
	case p.Event != "":
		ev, err := ParseLifecycle(line)
		if err != nil {
			return Line{}, err
		}
		return Line{Kind: KindLifecycle, Lifecycle: ev}, nil
	case p.Action != "":
		ev, err := ParseEvent(line)
		if err != nil {
			return Line{}, err
		}
		return Line{Kind: KindTest, Test: ev}, nil
	default:
		return Line{}, ErrUnknownEvent
	}
}
