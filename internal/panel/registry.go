package panel

import (
	"sync"
	"time"
)

type key struct {
	userID uint64
	mode   Mode
}

// Registry hands out one panel per user and mode.
type Registry struct {
	store Store
	delay time.Duration

	mu     sync.Mutex
	panels map[key]*Panel
}

// NewRegistry returns an empty registry whose panels use store and delay.
func NewRegistry(store Store, delay time.Duration) *Registry {
	return &Registry{
		store:  store,
		delay:  delay,
		panels: make(map[key]*Panel),
	}
}

// Get returns the panel of userID in mode, creating it on first use.
func (r *Registry) Get(userID uint64, mode Mode) *Panel {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{userID: userID, mode: mode}

	p, ok := r.panels[k]
	if !ok {
		p = New(r.store, userID, mode, r.delay)
		r.panels[k] = p
	}

	return p
}

// Flush writes the pending edits of every panel of userID and forgets them.
func (r *Registry) Flush(userID uint64) {
	for _, p := range r.take(userID) {
		p.Flush()
	}
}

// Discard drops every panel of userID without writing.
func (r *Registry) Discard(userID uint64) {
	for _, p := range r.take(userID) {
		p.Discard()
	}
}

func (r *Registry) take(userID uint64) []*Panel {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Panel

	for _, m := range []Mode{Owner, Admin} {
		k := key{userID: userID, mode: m}
		if p, ok := r.panels[k]; ok {
			out = append(out, p)
			delete(r.panels, k)
		}
	}

	return out
}

// Close writes every pending edit. The registry stays usable.
func (r *Registry) Close() {
	r.mu.Lock()
	panels := r.panels
	r.panels = make(map[key]*Panel)
	r.mu.Unlock()

	for _, p := range panels {
		p.Flush()
	}
}
