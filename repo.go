package tabula

import (
	"iter"
	"sync/atomic"
)

// TableRepo holds a key-to-record collection for one table model. External
// access is read-only; only the orchestrator's load path replaces the
// backing collection, and it always replaces it wholesale, so in-flight
// readers see either the fully-old or fully-new snapshot, never a mix.
type TableRepo[K comparable, R Keyed[K]] struct {
	snap atomic.Pointer[tableSnapshot[K, R]]
}

type tableSnapshot[K comparable, R Keyed[K]] struct {
	byKey map[K]R
	order []K
}

// Get returns the record for key, or ok=false when the key is absent or
// the dataset was never loaded.
func (t *TableRepo[K, R]) Get(key K) (R, bool) {
	snap := t.snap.Load()
	if snap == nil {
		var zero R
		return zero, false
	}
	r, ok := snap.byKey[key]
	return r, ok
}

// All returns a finite, restartable sequence over the records in load
// order. The sequence iterates the snapshot current at the time of each
// call, so a concurrent reload does not disturb a running iteration.
func (t *TableRepo[K, R]) All() iter.Seq[R] {
	return func(yield func(R) bool) {
		snap := t.snap.Load()
		if snap == nil {
			return
		}
		for _, k := range snap.order {
			if !yield(snap.byKey[k]) {
				return
			}
		}
	}
}

// Len returns the number of records currently held.
func (t *TableRepo[K, R]) Len() int {
	snap := t.snap.Load()
	if snap == nil {
		return 0
	}
	return len(snap.order)
}

// install replaces the backing collection wholesale. Duplicate keys are
// last-writer-wins: the later record replaces the earlier one at its
// original position. This is deliberate leniency, not a merge.
func (t *TableRepo[K, R]) install(records []R) {
	snap := &tableSnapshot[K, R]{
		byKey: make(map[K]R, len(records)),
		order: make([]K, 0, len(records)),
	}
	for _, r := range records {
		k := r.Key()
		if _, dup := snap.byKey[k]; !dup {
			snap.order = append(snap.order, k)
		}
		snap.byKey[k] = r
	}
	t.snap.Store(snap)
}

// records returns the current contents in load order, for serialization.
func (t *TableRepo[K, R]) records() []R {
	snap := t.snap.Load()
	if snap == nil {
		return nil
	}
	out := make([]R, 0, len(snap.order))
	for _, k := range snap.order {
		out = append(out, snap.byKey[k])
	}
	return out
}

// SingleRepo holds the one persisted instance of a single model, or
// nothing if the dataset was never loaded.
type SingleRepo[R any] struct {
	record atomic.Pointer[R]
}

// Get returns the record, or ok=false when the dataset was never loaded.
func (s *SingleRepo[R]) Get() (R, bool) {
	p := s.record.Load()
	if p == nil {
		var zero R
		return zero, false
	}
	return *p, true
}

// install replaces the held record wholesale.
func (s *SingleRepo[R]) install(record R) {
	s.record.Store(&record)
}
