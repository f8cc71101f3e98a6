package hal

import (
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting: %s", msg)
}

func TestRepeatTimerFires(t *testing.T) {
	var ticks atomic.Int32
	tm := newRepeatTimer(func() { ticks.Add(1) })
	tm.Start(time.Millisecond)
	defer tm.Stop()

	waitFor(t, func() bool { return ticks.Load() >= 3 }, "3 ticks")
}

func TestRepeatTimerStop(t *testing.T) {
	var ticks atomic.Int32
	tm := newRepeatTimer(func() { ticks.Add(1) })
	tm.Start(time.Millisecond)
	waitFor(t, func() bool { return ticks.Load() >= 1 }, "first tick")

	tm.Stop()
	tm.Stop() // idempotent

	settled := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	// One tick may already be in flight at Stop; none after that.
	if got := ticks.Load(); got > settled+1 {
		t.Fatalf("timer ticked %d times after Stop(), want at most 1", got-settled)
	}
}

func TestRepeatTimerRestart(t *testing.T) {
	var ticks atomic.Int32
	tm := newRepeatTimer(func() { ticks.Add(1) })
	tm.Start(time.Hour) // would never fire
	tm.Start(time.Millisecond)
	defer tm.Stop()

	waitFor(t, func() bool { return ticks.Load() >= 2 }, "ticks after restart")
}

func TestSleepClockBusyWait(t *testing.T) {
	var c sleepClock

	start := time.Now()
	c.BusyWait(200 * time.Microsecond)
	if elapsed := time.Since(start); elapsed < 200*time.Microsecond {
		t.Fatalf("BusyWait returned after %v, want at least 200µs", elapsed)
	}

	c.BusyWait(0)
	c.Sleep(0)
}
