package safety

import (
	"fmt"
	"time"
)

// window is a sliding-window counter over admission timestamps. Entries
// expire continuously as they age past the span; there is no fixed-boundary
// reset.
type window struct {
	span  time.Duration
	times []time.Time
}

func newWindow(span time.Duration) *window {
	return &window{span: span}
}

// prune drops entries older than the span relative to now.
func (w *window) prune(now time.Time) {
	cutoff := now.Add(-w.span)
	i := 0
	for i < len(w.times) && !w.times[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.times = append(w.times[:0], w.times[i:]...)
	}
}

// count returns the number of live entries at now.
func (w *window) count(now time.Time) int {
	w.prune(now)
	return len(w.times)
}

// add records one admission at now. Entries are appended in admission
// order, which is non-decreasing because all callers hold the budget lock.
func (w *window) add(now time.Time) {
	w.times = append(w.times, now)
}

// removeLast releases the most recent reservation. An empty window here
// means the accounting went negative, which is a fatal invariant violation:
// abort rather than silently clamp.
func (w *window) removeLast() {
	if len(w.times) == 0 {
		panic(fmt.Sprintf("safety: window count would go negative (span %s)", w.span))
	}
	w.times = w.times[:len(w.times)-1]
}
