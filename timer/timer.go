// Package timer provides the dashboard's once-per-second run timer.
//
// A Timer owns at most one repeating task obtained from a Scheduler. The
// Scheduler is injectable so tests can drive ticks by hand with Manual
// instead of waiting on the wall clock.
package timer

import (
	"sync"
	"time"
)

// Interval is the tick period of a running Timer.
const Interval = time.Second

// Handle cancels a repeating task.
type Handle interface {
	Stop()
}

// Scheduler runs fn every d until the returned Handle is stopped.
type Scheduler interface {
	Every(d time.Duration, fn func()) Handle
}

// Timer is a start/stop tick source with states Idle and Running.
//
// Start and Stop must be called with guard held. Each tick acquires guard
// and only fires if the task that produced it is still the current one, so
// once Stop returns no further tick is delivered, even if the scheduler had
// already queued one.
type Timer struct {
	sched   Scheduler
	guard   sync.Locker
	current *task
}

type task struct {
	handle Handle
}

// New creates an idle timer. A nil guard is only safe when the scheduler
// fires ticks on the goroutine that calls Start and Stop.
func New(s Scheduler, guard sync.Locker) *Timer {
	if s == nil {
		s = Clock{}
	}
	if guard == nil {
		guard = nopLocker{}
	}
	return &Timer{sched: s, guard: guard}
}

// Start begins ticking onTick once per Interval. It does nothing and
// returns false when the timer is already running.
func (t *Timer) Start(onTick func()) bool {
	if t.current != nil {
		return false
	}
	tk := &task{}
	t.current = tk
	tk.handle = t.sched.Every(Interval, func() {
		t.guard.Lock()
		defer t.guard.Unlock()
		if t.current != tk {
			return
		}
		onTick()
	})
	return true
}

// Stop cancels the running task and returns the timer to Idle. Stopping an
// idle timer is a no-op.
func (t *Timer) Stop() {
	if t.current == nil {
		return
	}
	tk := t.current
	t.current = nil
	if tk.handle != nil {
		tk.handle.Stop()
	}
}

// Running reports whether a task is active.
func (t *Timer) Running() bool {
	return t.current != nil
}

type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

// Clock schedules tasks on the wall clock.
type Clock struct{}

// Every starts a ticker goroutine calling fn every d.
func (Clock) Every(d time.Duration, fn func()) Handle {
	h := &tickerHandle{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-h.done:
				return
			case <-h.ticker.C:
				fn()
			}
		}
	}()
	return h
}

type tickerHandle struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (h *tickerHandle) Stop() {
	h.once.Do(func() {
		h.ticker.Stop()
		close(h.done)
	})
}
