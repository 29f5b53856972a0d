// Package debounce delays a call until its trigger has been quiet for a while.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the most recently triggered function once the delay passed
// without another trigger. Each Debouncer owns its timer, so two instances
// never cancel each other.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	// gen numbers the triggers; a timer only fires the trigger it was armed for.
	gen     uint64
	pending func()
}

// New returns a Debouncer with the given quiet period.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn. A function still waiting for its timer is replaced;
// one that already started keeps running.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.gen++
	gen := d.gen

	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
	d.pending = fn
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()

	if d.timer == nil || d.gen != gen {
		// superseded after the timer had already fired
		d.mu.Unlock()
		return
	}

	fn := d.pending
	d.timer = nil
	d.pending = nil
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Flush runs a waiting function immediately on the calling goroutine.
// It reports whether there was one.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()

	if d.timer == nil {
		d.mu.Unlock()
		return false
	}

	d.timer.Stop()
	fn := d.pending
	d.timer = nil
	d.pending = nil
	d.mu.Unlock()

	if fn != nil {
		fn()
	}

	return true
}

// Stop drops a waiting function without running it.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}

	d.timer.Stop()
	d.timer = nil
	d.pending = nil

	return true
}

// Pending reports whether a function is waiting for its timer.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.timer != nil
}
