package query

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period for search inputs.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer delivers only the last value of a burst, once no new value has arrived for delay.
type Debouncer[T any] struct {
	delay time.Duration
	fn    func(T)

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64
	pending bool
	value   T
	stopped bool
}

// NewDebouncer returns a Debouncer that calls fn on its own goroutine.
func NewDebouncer[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Trigger records v and restarts the quiet period.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.seq++
	seq := d.seq
	d.value, d.pending = v, true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || !d.pending || d.stopped {
		d.mu.Unlock()
		return
	}
	v := d.value
	d.pending = false
	d.mu.Unlock()
	d.fn(v)
}

// Flush delivers a pending value now on the caller's goroutine. It reports whether one was pending.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.pending || d.stopped {
		d.mu.Unlock()
		return false
	}
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
	}
	v := d.value
	d.pending = false
	d.mu.Unlock()
	d.fn(v)
	return true
}

// Stop drops any pending value. Later triggers are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped, d.pending = true, false
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
	}
}
