package resilience

import (
	"sync"
	"time"
)

// windowEntry is one {key, value, timestamp} triple (spec.md §3).
type windowEntry[K comparable, V any] struct {
	key       K
	value     V
	timestamp time.Time
}

// SlidingWindowConfig configures a SlidingWindow.
type SlidingWindowConfig struct {
	MaxEntries int
	MaxAge     time.Duration
}

// SlidingWindow bounds entries by both count and age (spec.md §4.3 / C1).
// Every read prunes aged-out entries first; Add then applies capacity
// eviction — prune-before-capacity, per spec.md §9's resolved Open Question.
// It is safe for concurrent use.
type SlidingWindow[K comparable, V any] struct {
	mu      sync.Mutex
	cfg     SlidingWindowConfig
	order   []K // oldest first
	entries map[K]*windowEntry[K, V]
	now     func() time.Time
}

// NewSlidingWindow builds a window with the given bounds.
func NewSlidingWindow[K comparable, V any](cfg SlidingWindowConfig) *SlidingWindow[K, V] {
	if cfg.MaxEntries < 1 {
		cfg.MaxEntries = 1
	}
	return &SlidingWindow[K, V]{
		cfg:     cfg,
		entries: make(map[K]*windowEntry[K, V]),
		now:     time.Now,
	}
}

func (w *SlidingWindow[K, V]) pruneLocked() {
	if w.cfg.MaxAge <= 0 {
		return
	}
	cutoff := w.now().Add(-w.cfg.MaxAge)
	i := 0
	for i < len(w.order) {
		k := w.order[i]
		e, ok := w.entries[k]
		if !ok || e.timestamp.Before(cutoff) {
			delete(w.entries, k)
			i++
			continue
		}
		break
	}
	if i > 0 {
		w.order = append([]K(nil), w.order[i:]...)
	}
}

func (w *SlidingWindow[K, V]) removeLocked(k K) {
	if _, ok := w.entries[k]; !ok {
		return
	}
	delete(w.entries, k)
	for i, existing := range w.order {
		if existing == k {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// Add prunes aged entries, removes any existing entry for k (so a re-add
// refreshes its timestamp without growing size), evicts the oldest entry if
// at capacity, then inserts k with the current timestamp.
func (w *SlidingWindow[K, V]) Add(k K, v V) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked()
	w.removeLocked(k)

	if len(w.order) >= w.cfg.MaxEntries && len(w.order) > 0 {
		oldest := w.order[0]
		w.order = w.order[1:]
		delete(w.entries, oldest)
	}

	w.entries[k] = &windowEntry[K, V]{key: k, value: v, timestamp: w.now()}
	w.order = append(w.order, k)
}

// Has reports whether k is present, after pruning.
func (w *SlidingWindow[K, V]) Has(k K) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pruneLocked()
	_, ok := w.entries[k]
	return ok
}

// Get returns the value for k, after pruning.
func (w *SlidingWindow[K, V]) Get(k K) (V, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pruneLocked()
	e, ok := w.entries[k]
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Timestamp returns the recorded insertion time for k, after pruning, for
// callers that need the time of the last add rather than a plain presence
// check.
func (w *SlidingWindow[K, V]) Timestamp(k K) (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pruneLocked()
	e, ok := w.entries[k]
	if !ok {
		return time.Time{}, false
	}
	return e.timestamp, true
}

// GetKeys returns all keys, oldest first, after pruning.
func (w *SlidingWindow[K, V]) GetKeys() []K {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pruneLocked()
	out := make([]K, len(w.order))
	copy(out, w.order)
	return out
}

// GetValues returns all values, oldest first, after pruning.
func (w *SlidingWindow[K, V]) GetValues() []V {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pruneLocked()
	out := make([]V, 0, len(w.order))
	for _, k := range w.order {
		out = append(out, w.entries[k].value)
	}
	return out
}

// Size returns the entry count, after pruning.
func (w *SlidingWindow[K, V]) Size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pruneLocked()
	return len(w.order)
}
