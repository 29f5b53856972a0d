// Package overlay keeps optimistic edits on top of a confirmed snapshot.
//
// An edit is staged under its key and shows up in Merge right away. When the
// write that carried it succeeds the entry is confirmed, when it fails it is
// rolled back; both drop the entry only if no newer edit for the same key was
// staged in the meantime.
package overlay

import "sync"

type entry[V any] struct {
	value   V
	version uint64
}

// Overlay is a set of pending edits keyed by K. The zero value is not usable, use New.
type Overlay[K comparable, V any] struct {
	mu      sync.Mutex
	seq     uint64
	entries map[K]entry[V]
}

// New returns an empty overlay.
func New[K comparable, V any]() *Overlay[K, V] {
	return &Overlay[K, V]{entries: make(map[K]entry[V])}
}

// Stage records v for key and returns the version of the edit.
func (o *Overlay[K, V]) Stage(key K, v V) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.seq++
	o.entries[key] = entry[V]{value: v, version: o.seq}

	return o.seq
}

// Get returns the pending edit for key.
func (o *Overlay[K, V]) Get(key K) (V, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	e, ok := o.entries[key]

	return e.value, ok
}

// Versions returns the version of every pending edit.
func (o *Overlay[K, V]) Versions() map[K]uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make(map[K]uint64, len(o.entries))
	for k, e := range o.entries {
		out[k] = e.version
	}

	return out
}

// Confirm drops the edits the store accepted.
func (o *Overlay[K, V]) Confirm(versions map[K]uint64) {
	o.drop(versions)
}

// Rollback drops the edits the store rejected, so the confirmed value shows again.
func (o *Overlay[K, V]) Rollback(versions map[K]uint64) {
	o.drop(versions)
}

func (o *Overlay[K, V]) drop(versions map[K]uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for k, v := range versions {
		if e, ok := o.entries[k]; ok && e.version == v {
			delete(o.entries, k)
		}
	}
}

// Len returns the number of pending edits.
func (o *Overlay[K, V]) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return len(o.entries)
}

// Clear drops every pending edit.
func (o *Overlay[K, V]) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.entries = make(map[K]entry[V])
}

// Merge returns confirmed with every pending edit applied in place.
// Pending edits for keys missing from confirmed are ignored.
func (o *Overlay[K, V]) Merge(confirmed []V, keyOf func(V) K) []V {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]V, len(confirmed))

	for i, v := range confirmed {
		if e, ok := o.entries[keyOf(v)]; ok {
			out[i] = e.value
			continue
		}

		out[i] = v
	}

	return out
}
