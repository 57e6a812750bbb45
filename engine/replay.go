package engine

import (
	"bufio"
	"io"
	"time"

	"github.com/ansel1/testdash/parser"
)

// lineWithTiming represents a line from the input with its associated timestamp
type lineWithTiming struct {
	line      []byte
	timestamp time.Time
}

// ReplayReader wraps an io.Reader and replays its content with timing delays
// based on the timestamps carried by go test -json and lifecycle events
type ReplayReader struct {
	lines         []lineWithTiming
	rate          float64
	currentIdx    int
	lineBuffer    []byte
	bufferPos     int
	firstRead     bool
	lastEventTime time.Time
	sleep         func(time.Duration)
}

// NewReplayReader creates a new replay reader that simulates timing from
// recorded events. A rate of 0 replays instantly; 0.5 replays at 2x speed.
func NewReplayReader(r io.Reader, rate float64) (*ReplayReader, error) {
	var lines []lineWithTiming
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		lineCopy := make([]byte, len(line))
		copy(lineCopy, line)

		// Lines without a timestamp inherit the previous one
		var ts time.Time
		if parsed, err := parser.ParseLine(lineCopy); err == nil && !parsed.Time().IsZero() {
			ts = parsed.Time()
		} else if len(lines) > 0 {
			ts = lines[len(lines)-1].timestamp
		}
		lines = append(lines, lineWithTiming{line: lineCopy, timestamp: ts})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &ReplayReader{
		lines:     lines,
		rate:      rate,
		firstRead: true,
		sleep:     time.Sleep,
	}, nil
}

// Read implements io.Reader, returning data line-by-line with timing delays
func (r *ReplayReader) Read(p []byte) (n int, err error) {
	// If we're in the middle of returning a line, continue from buffer
	if r.bufferPos < len(r.lineBuffer) {
		n = copy(p, r.lineBuffer[r.bufferPos:])
		r.bufferPos += n
		return n, nil
	}

	if r.currentIdx >= len(r.lines) {
		return 0, io.EOF
	}

	current := r.lines[r.currentIdx]

	if !r.firstRead && r.rate > 0 && !r.lastEventTime.IsZero() && !current.timestamp.IsZero() {
		if delay := current.timestamp.Sub(r.lastEventTime); delay > 0 {
			r.sleep(time.Duration(float64(delay) * r.rate))
		}
	}

	r.firstRead = false
	if !current.timestamp.IsZero() {
		r.lastEventTime = current.timestamp
	}

	r.lineBuffer = make([]byte, len(current.line)+1)
	copy(r.lineBuffer, current.line)
	r.lineBuffer[len(current.line)] = '\n'
	r.bufferPos = 0
	r.currentIdx++

	n = copy(p, r.lineBuffer)
	r.bufferPos += n

	return n, nil
}
