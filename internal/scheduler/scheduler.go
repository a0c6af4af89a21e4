// Package scheduler provides keyed debounce timers with a real and a
// virtual-clock implementation.
package scheduler

import (
	"sync"
	"time"
)

// Scheduler runs at most one pending action per key. Scheduling a key that
// is already pending cancels the previous action and restarts the delay.
type Scheduler interface {
	Schedule(key string, delay time.Duration, action func())
	Cancel(key string)
	Stop()
}

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

type pending struct {
	timer *time.Timer
	gen   uint64
}

// Timers implements Scheduler on top of time.AfterFunc.
type Timers struct {
	mu      sync.Mutex
	pending map[string]pending
	gen     uint64
	stopped bool
}

// NewTimers creates a wall-clock scheduler.
func NewTimers() *Timers {
	return &Timers{pending: make(map[string]pending)}
}

// Schedule implements Scheduler.
func (t *Timers) Schedule(key string, delay time.Duration, action func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if p, ok := t.pending[key]; ok {
		p.timer.Stop()
	}
	t.gen++
	gen := t.gen
	timer := time.AfterFunc(delay, func() {
		// A timer that already fired cannot be stopped; the generation
		// check drops it if it was cancelled or superseded meanwhile.
		t.mu.Lock()
		p, ok := t.pending[key]
		if !ok || p.gen != gen {
			t.mu.Unlock()
			return
		}
		delete(t.pending, key)
		t.mu.Unlock()
		action()
	})
	t.pending[key] = pending{timer: timer, gen: gen}
}

// Cancel implements Scheduler.
func (t *Timers) Cancel(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.pending[key]; ok {
		p.timer.Stop()
		delete(t.pending, key)
	}
}

// Stop cancels everything and rejects further scheduling.
func (t *Timers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, p := range t.pending {
		p.timer.Stop()
		delete(t.pending, key)
	}
	t.stopped = true
}

var _ Scheduler = (*Timers)(nil)
