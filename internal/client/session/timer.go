package session

import (
	"sync"
	"time"
)

// Stopper cancels a scheduled callback; *time.Timer satisfies it.
type Stopper interface {
	Stop() bool
}

// Scheduler runs f once after d on another goroutine; it must not call f
// synchronously. time.AfterFunc is the production scheduler.
type Scheduler func(d time.Duration, f func()) Stopper

func afterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// Timer holds at most one armed wake-up.
//
// Every Arm cancels the previous arming first, and each arming delivers its
// callback at most once: a callback that fires after being superseded or
// cancelled, or that fires a second time, is dropped.
type Timer struct {
	mu       sync.Mutex
	now      func() time.Time
	schedule Scheduler
	gen      uint64
	pending  Stopper
}

type TimerOption func(*Timer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TimerOption {
	return func(t *Timer) {
		if now != nil {
			t.now = now
		}
	}
}

// WithScheduler replaces time.AfterFunc.
func WithScheduler(s Scheduler) TimerOption {
	return func(t *Timer) {
		if s != nil {
			t.schedule = s
		}
	}
}

func NewTimer(opts ...TimerOption) *Timer {
	t := &Timer{now: time.Now, schedule: afterFunc}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Arm schedules fn at the instant at, or immediately when at has passed.
func (t *Timer) Arm(at time.Time, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	gen := t.gen

	d := at.Sub(t.now())
	if d < 0 {
		d = 0
	}
	t.pending = t.schedule(d, func() { t.fire(gen, fn) })
}

func (t *Timer) fire(gen uint64, fn func()) {
	t.mu.Lock()
	if gen != t.gen || t.pending == nil {
		t.mu.Unlock()
		return
	}
	t.pending = nil
	t.mu.Unlock()

	fn()
}

// Cancel disarms the timer. It is safe to call when nothing is armed.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Timer) stopLocked() {
	t.gen++
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}

// Armed reports whether a callback is scheduled and not yet delivered.
func (t *Timer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}
