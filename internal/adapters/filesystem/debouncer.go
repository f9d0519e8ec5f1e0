package filesystem

import (
	"sync"
	"time"
)

// Debouncer batches rapid triggers into a single action after a quiet period.
// Safe for concurrent triggers.
type Debouncer struct {
	mu       sync.Mutex
	timer    *time.Timer
	duration time.Duration
	action   func()
	seq      uint64 // invalidates timers that were reset after firing began
	wg       sync.WaitGroup
}

// NewDebouncer creates a debouncer that runs action once duration has passed
// since the last Trigger.
func NewDebouncer(duration time.Duration, action func()) *Debouncer {
	return &Debouncer{duration: duration, action: action}
}

// Trigger (re)starts the quiet period.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}

	d.seq++
	current := d.seq

	d.wg.Add(1)
	d.timer = time.AfterFunc(d.duration, func() {
		defer d.wg.Done()

		d.mu.Lock()
		if d.seq != current {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		d.action()
	})
}

// Cancel drops any pending action. It does not wait for a running one.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		if d.timer.Stop() {
			d.wg.Done()
		}
		d.timer = nil
	}
}

// Wait blocks until pending and running actions have finished.
func (d *Debouncer) Wait() {
	d.wg.Wait()
}
