package engine

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ansel1/testdash/parser"
)

// EventType identifies the type of event emitted by the engine
type EventType string

const (
	EventRawLine   EventType = "raw"       // Line that is not a recognized event
	EventTest      EventType = "test"      // Parsed event from go test -json
	EventLifecycle EventType = "lifecycle" // Parsed reporter lifecycle event
	EventError     EventType = "error"     // Error occurred during processing
	EventComplete  EventType = "complete"  // Input stream finished
)

// Event represents a single event emitted by the engine
type Event struct {
	Type      EventType
	RawLine   []byte                // Populated for EventRawLine
	TestEvent parser.TestEvent      // Populated for EventTest
	Lifecycle parser.LifecycleEvent // Populated for EventLifecycle
	Error     error                 // Populated for EventError
}

// Engine processes raw input and broadcasts events
// It maintains no state about tests - just parses and streams events
type Engine struct {
	// Output writers for pass-through file writing
	rawWriter  io.Writer
	jsonWriter io.Writer

	maxLine int
}

// Option configures the engine
type Option func(*Engine)

// WithRawOutput configures engine to write all raw lines to a file
func WithRawOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.rawWriter = w
	}
}

// WithJSONOutput configures engine to write parsed event lines to a file
func WithJSONOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.jsonWriter = w
	}
}

// NewEngine creates a new event processing engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{maxLine: maxLineSize}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stream reads from input, parses lines, and emits events via channel
// The channel is closed when input is exhausted or a read error occurs.
// Oversized lines are reported as EventError and skipped, so a writer on
// the other end of a pipe is never left blocked.
func (e *Engine) Stream(input io.Reader) <-chan Event {
	events := make(chan Event, 100)

	go func() {
		defer close(events)

		r := bufio.NewReaderSize(input, 64*1024)
		for {
			line, err := readLine(r, e.maxLine)
			if errors.Is(err, ErrLineTooLong) {
				events <- Event{Type: EventError, Error: err}
				continue
			}
			if err != nil {
				if err != io.EOF {
					events <- Event{
						Type:  EventError,
						Error: err,
					}
				}
				break
			}
			events <- e.classify(line)
		}

		events <- Event{
			Type: EventComplete,
		}
	}()

	return events
}

// maxLineSize bounds a single event line; testResult lines carrying long
// failure messages can be far larger than bufio's default.
const maxLineSize = 16 * 1024 * 1024

// ErrLineTooLong reports an input line over the engine's size limit.
var ErrLineTooLong = errors.New("line too long")

// readLine returns the next line without its line ending. A line over limit
// is consumed in full and reported with ErrLineTooLong. io.EOF is returned
// only when no bytes remain.
func readLine(r *bufio.Reader, limit int) ([]byte, error) {
	var line []byte
	size := 0
	for {
		chunk, err := r.ReadSlice('\n')
		size += len(chunk)
		if size <= limit+2 {
			line = append(line, chunk...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && (err != io.EOF || size == 0) {
			return nil, err
		}
		break
	}

	if size > limit+2 {
		return nil, fmt.Errorf("%w: over %d bytes", ErrLineTooLong, limit)
	}
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", ErrLineTooLong, limit)
	}
	return line, nil
}

// classify tees the line to the configured writers and turns it into an
// event. The returned event never aliases line.
func (e *Engine) classify(line []byte) Event {
	if e.rawWriter != nil {
		e.rawWriter.Write(line)
		e.rawWriter.Write([]byte("\n"))
	}

	parsed, err := parser.ParseLine(line)
	if err != nil {
		lineCopy := make([]byte, len(line))
		copy(lineCopy, line)
		return Event{
			Type:    EventRawLine,
			RawLine: lineCopy,
		}
	}

	if e.jsonWriter != nil {
		e.jsonWriter.Write(line)
		e.jsonWriter.Write([]byte("\n"))
	}

	if parsed.Kind == parser.KindLifecycle {
		return Event{
			Type:      EventLifecycle,
			Lifecycle: parsed.Lifecycle,
		}
	}
	return Event{
		Type:      EventTest,
		TestEvent: parsed.Test,
	}
}
