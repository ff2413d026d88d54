package timer

import (
	"sync"
	"time"

	"github.com/hammamikhairi/ottointake/internal/logger"
)

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithClock sets the clock used to schedule the action.
func WithClock(c Clock) Option {
	return func(d *Debouncer) {
		d.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(d *Debouncer) {
		d.log = log
	}
}

// Debouncer runs an action once a quiet period has passed since the last
// Trigger. A Trigger during the wait cancels the pending run and starts
// the wait again, so a burst of triggers produces exactly one run.
type Debouncer struct {
	wait  time.Duration
	fn    func()
	clock Clock
	log   *logger.Logger

	mu      sync.Mutex
	timer   Timer
	gen     uint64
	pending bool
	stopped bool
}

// NewDebouncer creates a debouncer that runs fn after wait of quiet.
func NewDebouncer(wait time.Duration, fn func(), opts ...Option) *Debouncer {
	d := &Debouncer{
		wait:  wait,
		fn:    fn,
		clock: Real(),
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Trigger (re)starts the quiet period.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = true
	d.timer = d.clock.AfterFunc(d.wait, func() { d.fire(gen) })
	d.log.Debug("debounce restarted (gen=%d, wait=%s)", gen, d.wait)
}

// Cancel drops the pending run. Returns true if one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

// Flush runs the pending action now instead of waiting. Returns false if
// nothing was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if !d.cancelLocked() {
		d.mu.Unlock()
		return false
	}
	d.mu.Unlock()

	d.fn()
	return true
}

// Pending reports whether a run is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop cancels any pending run and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

func (d *Debouncer) cancelLocked() bool {
	if !d.pending {
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	// A timer that already fired but has not taken the lock yet sees a
	// newer generation and does nothing.
	d.gen++
	d.pending = false
	return true
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}
