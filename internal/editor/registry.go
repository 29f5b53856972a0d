package editor

import (
	"sync"
	"time"
)

type key struct {
	userID uint64
	docID  string
}

// Registry keeps the open editors, one per user and document.
type Registry struct {
	dispatcher *Dispatcher
	delay      time.Duration
	clearDelay time.Duration

	mu      sync.Mutex
	editors map[key]*Editor
}

// NewRegistry returns an empty registry.
func NewRegistry(dispatcher *Dispatcher, delay, clearDelay time.Duration) *Registry {
	return &Registry{
		dispatcher: dispatcher,
		delay:      delay,
		clearDelay: clearDelay,
		editors:    make(map[key]*Editor),
	}
}

// Get returns the editor of docID opened by userID, creating it on first use.
func (r *Registry) Get(userID uint64, docID string) *Editor {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{userID: userID, docID: docID}

	e, ok := r.editors[k]
	if !ok {
		e = New(r.dispatcher, docID, r.delay, r.clearDelay)
		r.editors[k] = e
	}

	return e
}

// Lookup returns the editor of docID opened by userID, if any.
func (r *Registry) Lookup(userID uint64, docID string) (*Editor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.editors[key{userID: userID, docID: docID}]

	return e, ok
}

// DiscardDocument stops and forgets every editor of docID.
func (r *Registry) DiscardDocument(docID string) {
	r.discard(func(k key) bool { return k.docID == docID })
}

// DiscardUser stops and forgets every editor opened by userID.
func (r *Registry) DiscardUser(userID uint64) {
	r.discard(func(k key) bool { return k.userID == userID })
}

// FlushUser runs the waiting autosaves of userID, then stops and forgets
// that user's editors.
func (r *Registry) FlushUser(userID uint64) {
	for _, e := range r.take(func(k key) bool { return k.userID == userID }) {
		e.Flush()
		e.Stop()
	}
}

func (r *Registry) discard(match func(key) bool) {
	for _, e := range r.take(match) {
		e.Stop()
	}
}

func (r *Registry) take(match func(key) bool) []*Editor {
	r.mu.Lock()
	defer r.mu.Unlock()

	var taken []*Editor

	for k, e := range r.editors {
		if match(k) {
			taken = append(taken, e)
			delete(r.editors, k)
		}
	}

	return taken
}

// Close runs every waiting autosave and forgets all editors.
func (r *Registry) Close() {
	r.mu.Lock()
	editors := r.editors
	r.editors = make(map[key]*Editor)
	r.mu.Unlock()

	for _, e := range editors {
		e.Flush()
		e.Stop()
	}
}
