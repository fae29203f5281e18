package app

import "time"

// defaultResizeDelay is how long a terminal size must hold still before the
// expensive reflow runs.
const defaultResizeDelay = 100 * time.Millisecond

// ResizeDebouncer holds at most one pending terminal size. A resize burst
// keeps replacing the slot; the size is released only once it has been
// stable for the configured delay.
type ResizeDebouncer struct {
	delay    time.Duration
	w, h     int
	queuedAt time.Time
	pending  bool
}

func NewResizeDebouncer(delay time.Duration) *ResizeDebouncer {
	if delay <= 0 {
		delay = defaultResizeDelay
	}
	return &ResizeDebouncer{delay: delay}
}

// Queue replaces the pending slot with (w, h) observed at now.
func (d *ResizeDebouncer) Queue(w, h int, now time.Time) {
	d.w, d.h = w, h
	d.queuedAt = now
	d.pending = true
}

// TakeReady returns the queued size and clears the slot if the size has
// been stable for the delay. Otherwise it reports false and keeps the slot.
func (d *ResizeDebouncer) TakeReady(now time.Time) (int, int, bool) {
	if !d.pending || now.Sub(d.queuedAt) < d.delay {
		return 0, 0, false
	}
	d.pending = false
	return d.w, d.h, true
}

// IsPending is true while a size sits in the slot.
func (d *ResizeDebouncer) IsPending() bool { return d.pending }
