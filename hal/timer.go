package hal

import (
	"sync"
	"time"
)

// sleepClock implements Clock on top of the Go runtime.
//
// BusyWait spins for sub-millisecond delays because the scheduler
// cannot honor sleeps that short with sample-pacing accuracy.
type sleepClock struct{}

func (sleepClock) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

func (sleepClock) BusyWait(d time.Duration) {
	if d <= 0 {
		return
	}
	if d >= time.Millisecond {
		time.Sleep(d)
		return
	}
	start := time.Now()
	for time.Since(start) < d {
	}
}

// repeatTimer runs a callback on its own goroutine at a fixed interval.
type repeatTimer struct {
	mu   sync.Mutex
	fn   func()
	stop chan struct{}
}

func newRepeatTimer(fn func()) *repeatTimer {
	return &repeatTimer{fn: fn}
}

func (t *repeatTimer) Start(interval time.Duration) {
	if t == nil || t.fn == nil || interval <= 0 {
		return
	}
	t.mu.Lock()
	t.stopLocked()
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()

	go func() {
		tk := time.NewTicker(interval)
		defer tk.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tk.C:
				t.fn()
			}
		}
	}()
}

func (t *repeatTimer) Stop() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.stopLocked()
	t.mu.Unlock()
}

func (t *repeatTimer) stopLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}
