package scheduler

import (
	"slices"
	"sync"
	"time"
)

type manualTask struct {
	key    string
	due    time.Time
	seq    uint64
	action func()
}

// Manual is a virtual clock and scheduler. Nothing runs until Advance moves
// the clock past a task's due time. It is safe for concurrent use, and
// actions run outside its lock so they may schedule further work.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	tasks   map[string]manualTask
	seq     uint64
	stopped bool
}

// NewManual returns a Manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start, tasks: make(map[string]manualTask)}
}

// Now implements Clock.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Schedule implements Scheduler.
func (m *Manual) Schedule(key string, delay time.Duration, action func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.seq++
	m.tasks[key] = manualTask{key: key, due: m.now.Add(delay), seq: m.seq, action: action}
}

// Cancel implements Scheduler.
func (m *Manual) Cancel(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, key)
}

// Stop implements Scheduler.
func (m *Manual) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.tasks)
	m.stopped = true
}

// Pending reports whether an action is scheduled under key.
func (m *Manual) Pending(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[key]
	return ok
}

// Advance moves the clock forward by d, running every task that becomes due
// in due-time order. Tasks scheduled by running actions are honoured if they
// fall due within the same window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next, ok := m.nextDue(target)
		if !ok {
			m.now = target
			m.mu.Unlock()
			return
		}
		delete(m.tasks, next.key)
		if next.due.After(m.now) {
			m.now = next.due
		}
		m.mu.Unlock()
		next.action()
	}
}

func (m *Manual) nextDue(target time.Time) (manualTask, bool) {
	due := make([]manualTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		if !t.due.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return manualTask{}, false
	}
	slices.SortFunc(due, func(a, b manualTask) int {
		if c := a.due.Compare(b.due); c != 0 {
			return c
		}
		return int(a.seq) - int(b.seq)
	})
	return due[0], true
}

var (
	_ Scheduler = (*Manual)(nil)
	_ Clock     = (*Manual)(nil)
)
