// Package sessiontest provides a manual clock and scheduler for driving
// session timers deterministically in tests.
package sessiontest

import (
	"sort"
	"sync"
	"time"
)

// Task is one scheduled callback.
type Task struct {
	clock   *Clock
	At      time.Time
	f       func()
	stopped bool
	fired   bool
}

// Stop cancels the task; it reports whether the task was still pending.
func (t *Task) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

// Run invokes the callback directly, ignoring Stop. It simulates a runtime
// timer that fires late or twice.
func (t *Task) Run() {
	t.f()
}

// Clock is a manual time source that also acts as a scheduler.
type Clock struct {
	mu    sync.Mutex
	now   time.Time
	tasks []*Task
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Schedule registers f to run once the clock reaches now+d.
func (c *Clock) Schedule(d time.Duration, f func()) *Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &Task{clock: c, At: c.now.Add(d), f: f}
	c.tasks = append(c.tasks, t)
	return t
}

// Advance moves the clock forward and runs every due pending task, earliest
// first, on the calling goroutine.
func (c *Clock) Advance(d time.Duration) {
	c.Set(c.Now().Add(d))
}

// Set moves the clock to now and runs every due pending task.
func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	var due []*Task
	for _, t := range c.tasks {
		if !t.stopped && !t.fired && !t.At.After(now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].At.Before(due[j].At) })
	for _, t := range due {
		t.f()
	}
}

// Tasks returns every task scheduled so far.
func (c *Clock) Tasks() []*Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Task(nil), c.tasks...)
}

// Pending counts tasks neither stopped nor fired.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tasks {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}
