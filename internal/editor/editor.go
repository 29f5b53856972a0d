package editor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/docket-app/docket/internal/debounce"
	"github.com/docket-app/docket/internal/metrics"
)

// Default timings of the autosave.
const (
	DefaultDebounce   = 300 * time.Millisecond
	DefaultClearDelay = time.Second
)

const saveTimeout = 10 * time.Second

// Status is what the save indicator of an editor shows.
type Status struct {
	Saving    bool      `json:"saving"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
	Error     string    `json:"error,omitempty"`
}

// Editor is one user's open editor of one document.
type Editor struct {
	docID      string
	dispatcher *Dispatcher
	debounce   *debounce.Debouncer
	clearDelay time.Duration

	mu         sync.Mutex
	status     Status
	generation uint64
	clearTimer *time.Timer
}

// New returns an editor of docID. Zero durations use the defaults.
func New(dispatcher *Dispatcher, docID string, delay, clearDelay time.Duration) *Editor {
	if delay <= 0 {
		delay = DefaultDebounce
	}

	if clearDelay <= 0 {
		clearDelay = DefaultClearDelay
	}

	return &Editor{
		docID:      docID,
		dispatcher: dispatcher,
		debounce:   debounce.New(delay),
		clearDelay: clearDelay,
	}
}

// Autosave marks the editor as saving and schedules an Update with the
// trimmed title and body. Calls within the debounce window collapse into one.
func (e *Editor) Autosave(title, body string) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.status.Saving = true

	if e.clearTimer != nil {
		e.clearTimer.Stop()
		e.clearTimer = nil
	}
	e.mu.Unlock()

	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)

	e.debounce.Trigger(func() { e.save(gen, Update{Title: &title, Body: &body}) })
}

func (e *Editor) save(gen uint64, cmd Update) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	doc, err := e.dispatcher.Dispatch(ctx, e.docID, cmd)
	metrics.Flushes.WithLabelValues("editor", metrics.Result(err)).Inc()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("document_id", e.docID).Msg("autosave failed")
		e.status.Error = err.Error()
	} else {
		e.status.Error = ""
		e.status.UpdatedAt = doc.UpdatedAt
	}

	if gen != e.generation {
		// a newer autosave is waiting and owns the indicator
		return
	}

	e.clearTimer = time.AfterFunc(e.clearDelay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		if gen == e.generation {
			e.status.Saving = false
			e.clearTimer = nil
		}
	})
}

// Status returns the current save state.
func (e *Editor) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.status
}

// Flush runs a waiting autosave now.
func (e *Editor) Flush() bool {
	return e.debounce.Flush()
}

// Stop drops a waiting autosave and the indicator timer.
func (e *Editor) Stop() {
	e.debounce.Stop()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.clearTimer != nil {
		e.clearTimer.Stop()
		e.clearTimer = nil
	}

	e.status.Saving = false
}
