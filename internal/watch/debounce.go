package watch

import (
	"sync"
	"time"
)

// debouncer coalesces a burst of raw filesystem events for one path into a
// single settle callback after a quiet period. Editors emit several raw
// notifications per logical save; acting on the last one avoids redundant
// regenerations and partial-write races.
//
// States: idle (no timer) and pending (timer armed). Every Bump while
// pending restarts the quiet window.
type debouncer struct {
	quiet time.Duration
	fire  func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func newDebouncer(quiet time.Duration, fire func()) *debouncer {
	return &debouncer{quiet: quiet, fire: fire}
}

// Bump records a raw change event, (re)starting the quiet-period timer.
func (d *debouncer) Bump() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, d.settle)
}

// Stop cancels any pending settle and prevents future ones. Idempotent.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *debouncer) settle() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	// Outside the lock: the callback may take arbitrary time and must not
	// delay a concurrent Bump.
	d.fire()
}
