package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDuration is how long a burst of change events is
// collapsed into a single notification.
const DefaultDebounceDuration = 250 * time.Millisecond

// Debouncer collapses rapid triggers into one callback after a quiet
// period. Safe for concurrent use.
type Debouncer struct {
	d     time.Duration
	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period. A
// non-positive duration falls back to DefaultDebounceDuration.
func NewDebouncer(d time.Duration) *Debouncer {
	if d <= 0 {
		d = DefaultDebounceDuration
	}
	return &Debouncer{d: d}
}

// Duration returns the quiet period.
func (db *Debouncer) Duration() time.Duration { return db.d }

// Trigger schedules fn after the quiet period, resetting any pending
// schedule. Only the last fn of a burst runs.
func (db *Debouncer) Trigger(fn func()) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.timer != nil {
		db.timer.Stop()
	}
	db.timer = time.AfterFunc(db.d, fn)
}

// Cancel drops any pending callback.
func (db *Debouncer) Cancel() {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.timer != nil {
		db.timer.Stop()
		db.timer = nil
	}
}
