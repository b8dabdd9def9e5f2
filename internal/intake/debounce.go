package intake

import (
	"sync"
	"time"
)

// Scheduler manages one cancellable delayed action per sender. Arming a key
// that already has a pending action supersedes it: the old timer is stopped
// and, if it was already past the point of stopping, its action is rejected
// by the store's epoch check instead. Correctness therefore never rests on
// timer cancellation alone.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

// NewScheduler creates an idle scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[string]*time.Timer)}
}

// Arm schedules fn to run after delay, cancelling any action previously
// armed for key. After StopAll, Arm is a no-op.
func (d *Scheduler) Arm(key string, delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if prev, ok := d.timers[key]; ok {
		prev.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		d.mu.Lock()
		// Drop our handle, but only if a re-arm hasn't replaced it already.
		if d.timers[key] == t {
			delete(d.timers, key)
		}
		stopped := d.stopped
		d.mu.Unlock()

		if stopped {
			return
		}
		fn()
	})
	d.timers[key] = t
}

// Pending reports whether key currently has an armed action.
func (d *Scheduler) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.timers[key]
	return ok
}

// StopAll cancels every pending action and rejects future arms. Sessions
// still buffering at shutdown are dropped, not persisted.
func (d *Scheduler) StopAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
