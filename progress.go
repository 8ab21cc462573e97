package confluence

import (
	"sync"
	"time"
)

// ProgressSnapshot reports how far one merge has advanced. Both byte
// counters are monotonically non-decreasing for the lifetime of the
// call; InputIndex is the currently (or most recently) active chunk.
type ProgressSnapshot struct {
	InputIndex  int
	TotalInputs int
	InputBytes  int64
	MergedBytes int64
}

const (
	// Unthrottled disables progress throttling: every counter update
	// invokes the callback.
	Unthrottled = time.Duration(-1)

	defaultThrottle = time.Second
)

// tracker is owned by exactly one merge call: two monotonic counters,
// the active input index, a last-emit timestamp and the throttle
// interval. No state survives the call.
type tracker struct {
	mu       sync.Mutex
	snap     ProgressSnapshot
	interval time.Duration
	lastEmit time.Time
	emit     func(ProgressSnapshot)
}

func newTracker(totalInputs int, interval time.Duration, emit func(ProgressSnapshot)) *tracker {
	if interval == 0 {
		interval = defaultThrottle
	}
	return &tracker{
		snap:     ProgressSnapshot{TotalInputs: totalInputs},
		interval: interval,
		emit:     emit,
	}
}

func (t *tracker) beginInput(i int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.InputIndex = i
	t.maybeEmitLocked()
}

func (t *tracker) addRead(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.InputBytes += int64(n)
	t.maybeEmitLocked()
}

func (t *tracker) addWritten(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.MergedBytes += int64(n)
	t.maybeEmitLocked()
}

func (t *tracker) maybeEmitLocked() {
	if t.emit == nil {
		return
	}
	if t.interval > 0 && time.Since(t.lastEmit) < t.interval {
		return
	}
	t.lastEmit = time.Now()
	t.emit(t.snap)
}

// finish emits one unconditional final snapshot so the caller always
// observes true totals, however aggressive the throttle.
func (t *tracker) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.emit == nil {
		return
	}
	t.emit(t.snap)
}
