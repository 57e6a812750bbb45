package timer

import (
	"sync"
	"time"
)

// Manual is a Scheduler whose tasks only fire when Advance is called.
type Manual struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	m       *Manual
	fn      func()
	stopped bool
}

func (t *manualTask) Stop() {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	t.stopped = true
}

// Every registers fn; it fires once per Advance step until stopped.
func (m *Manual) Every(_ time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTask{m: m, fn: fn}
	m.tasks = append(m.tasks, t)
	return t
}

// Advance fires every live task n times, in registration order. A task
// stopped during a step does not fire afterwards.
func (m *Manual) Advance(n int) {
	for i := 0; i < n; i++ {
		for _, t := range m.live() {
			m.mu.Lock()
			stopped := t.stopped
			m.mu.Unlock()
			if !stopped {
				t.fn()
			}
		}
	}
}

// FireStale invokes the callbacks of stopped tasks, as a wall-clock
// scheduler might when a tick was already in flight during Stop.
func (m *Manual) FireStale() {
	m.mu.Lock()
	var stale []*manualTask
	for _, t := range m.tasks {
		if t.stopped {
			stale = append(stale, t)
		}
	}
	m.mu.Unlock()
	for _, t := range stale {
		t.fn()
	}
}

// Active returns the number of tasks that have not been stopped.
func (m *Manual) Active() int {
	return len(m.live())
}

func (m *Manual) live() []*manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	var live []*manualTask
	for _, t := range m.tasks {
		if !t.stopped {
			live = append(live, t)
		}
	}
	return live
}
