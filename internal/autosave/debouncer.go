// Package autosave delays saves until edits settle.
package autosave

import (
	"sync"
	"time"

	"github.com/local/pdfplatypus/internal/metrics"
)

// DefaultDelay is the quiet period before a scheduled save runs.
const DefaultDelay = time.Second

// Debouncer keeps at most one pending save per key. Scheduling again
// restarts the wait and replaces the pending save.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*entry
}

type entry struct {
	timer *time.Timer
	fn    func()
}

func New(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay, pending: map[string]*entry{}}
}

// Schedule runs fn after the delay unless key is scheduled, flushed or
// cancelled again first.
func (d *Debouncer) Schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if old, ok := d.pending[key]; ok {
		old.timer.Stop()
	}
	e := &entry{fn: fn}
	e.timer = time.AfterFunc(d.delay, func() { d.fire(key, e) })
	d.pending[key] = e
}

func (d *Debouncer) fire(key string, e *entry) {
	d.mu.Lock()
	if d.pending[key] != e {
		// superseded, flushed or cancelled while the timer was firing
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()
	metrics.IncAutosave("timer")
	e.fn()
}

// Flush runs the pending save for key now, on the caller's goroutine.
// It reports whether there was one.
func (d *Debouncer) Flush(key string) bool {
	e := d.take(key)
	if e == nil {
		return false
	}
	metrics.IncAutosave("flush")
	e.fn()
	return true
}

// Cancel drops the pending save for key.
func (d *Debouncer) Cancel(key string) bool { return d.take(key) != nil }

// Pending reports whether a save is waiting for key.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// FlushAll runs every pending save; used on shutdown.
func (d *Debouncer) FlushAll() int {
	d.mu.Lock()
	keys := make([]string, 0, len(d.pending))
	for k := range d.pending {
		keys = append(keys, k)
	}
	d.mu.Unlock()
	n := 0
	for _, k := range keys {
		if d.Flush(k) {
			n++
		}
	}
	return n
}

// Stop drops every pending save without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, e := range d.pending {
		e.timer.Stop()
		delete(d.pending, k)
	}
}

func (d *Debouncer) take(key string) *entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.pending[key]
	if !ok {
		return nil
	}
	e.timer.Stop()
	delete(d.pending, key)
	return e
}
