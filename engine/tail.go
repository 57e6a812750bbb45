package engine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fsnotify/fsnotify"
)

// Tail follows an events file that a runner appends to, emitting an event
// for every complete line: first the lines already present, then each line
// written later. The file is created if it does not exist yet. The channel
// is closed after ctx is cancelled.
func (e *Engine) Tail(ctx context.Context, path string) (<-chan Event, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open events file: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		_ = f.Close()
		return nil, fmt.Errorf("failed to watch events file: %w", err)
	}

	events := make(chan Event, 100)
	t := &tailer{reader: bufio.NewReader(f)}

	go func() {
		defer close(events)
		defer f.Close()
		defer watcher.Close()

		send := func(evt Event) bool {
			select {
			case events <- evt:
				return true
			case <-ctx.Done():
				return false
			}
		}

		// drain emits every complete line currently readable
		drain := func() bool {
			lines, err := t.readLines()
			for _, line := range lines {
				if !send(e.classify(line)) {
					return false
				}
			}
			if err != nil {
				return send(Event{Type: EventError, Error: err})
			}
			return true
		}

		if !drain() {
			return
		}

		for {
			select {
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Has(fsnotify.Write) && !drain() {
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if !send(Event{Type: EventError, Error: fmt.Errorf("watcher error: %w", err)}) {
					return
				}

			case <-ctx.Done():
				select {
				case events <- Event{Type: EventComplete}:
				default:
				}
				return
			}
		}
	}()

	return events, nil
}

// tailer reads newline-terminated lines, holding back a trailing partial
// line until the rest of it is written.
type tailer struct {
	reader  *bufio.Reader
	pending []byte
}

func (t *tailer) readLines() ([][]byte, error) {
	var lines [][]byte
	for {
		chunk, err := t.reader.ReadBytes('\n')
		t.pending = append(t.pending, chunk...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return lines, nil
			}
			return lines, err
		}
		lines = append(lines, bytes.TrimRight(t.pending, "\r\n"))
		t.pending = nil
	}
}
