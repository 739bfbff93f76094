package session_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/swpa/internal/client/session"
	"github.com/dmitrijs2005/swpa/internal/client/session/sessiontest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func newTimer(clk *sessiontest.Clock) *session.Timer {
	return session.NewTimer(
		session.WithClock(clk.Now),
		session.WithScheduler(func(d time.Duration, f func()) session.Stopper { return clk.Schedule(d, f) }),
	)
}

func TestTimer_FiresAtInstantOnce(t *testing.T) {
	clk := sessiontest.NewClock(t0)
	tm := newTimer(clk)

	var fired int32
	tm.Arm(t0.Add(time.Hour), func() { atomic.AddInt32(&fired, 1) })
	require.True(t, tm.Armed())

	clk.Advance(time.Hour - time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))

	clk.Advance(2 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
	assert.False(t, tm.Armed())

	// the runtime delivering the same callback again must not fire twice
	tasks := clk.Tasks()
	require.Len(t, tasks, 1)
	tasks[0].Run()
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestTimer_PastInstantFiresImmediately(t *testing.T) {
	clk := sessiontest.NewClock(t0)
	tm := newTimer(clk)

	var fired int32
	tm.Arm(t0.Add(-time.Minute), func() { atomic.AddInt32(&fired, 1) })

	tasks := clk.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, t0, tasks[0].At, "delay must be clamped to zero")

	clk.Advance(0)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestTimer_RearmCancelsPrevious(t *testing.T) {
	clk := sessiontest.NewClock(t0)
	tm := newTimer(clk)

	var first, second int32
	tm.Arm(t0.Add(time.Minute), func() { atomic.AddInt32(&first, 1) })
	tm.Arm(t0.Add(2*time.Minute), func() { atomic.AddInt32(&second, 1) })

	assert.Equal(t, 1, clk.Pending(), "only one timer may be armed")

	clk.Advance(time.Hour)
	assert.Equal(t, int32(0), atomic.LoadInt32(&first))
	assert.Equal(t, int32(1), atomic.LoadInt32(&second))

	// a late delivery of the superseded arming is dropped
	clk.Tasks()[0].Run()
	assert.Equal(t, int32(0), atomic.LoadInt32(&first))
}

func TestTimer_CancelLeavesNoResidualFire(t *testing.T) {
	clk := sessiontest.NewClock(t0)
	tm := newTimer(clk)

	var fired int32
	tm.Arm(t0.Add(time.Minute), func() { atomic.AddInt32(&fired, 1) })
	tm.Cancel()

	assert.False(t, tm.Armed())
	assert.Equal(t, 0, clk.Pending())

	clk.Advance(time.Hour)
	clk.Tasks()[0].Run()
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))

	tm.Cancel()
}

func TestTimer_RealScheduler(t *testing.T) {
	tm := session.NewTimer()

	done := make(chan struct{})
	tm.Arm(time.Now().Add(10*time.Millisecond), func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	assert.False(t, tm.Armed())
}
