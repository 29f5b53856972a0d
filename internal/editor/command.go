// Package editor applies document commands and runs the autosave of open
// documents.
package editor

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/docket-app/docket/internal/db/controller/document"
	"github.com/docket-app/docket/internal/db/models"
	"github.com/docket-app/docket/internal/metrics"
)

// ErrUnknownCommand is returned for a command the dispatcher does not handle.
var ErrUnknownCommand = errors.New("unknown document command")

// Command is a mutation of one document: Update or Remove.
type Command interface {
	name() string
}

// Update changes the fields that are set.
type Update struct {
	Title    *string
	Body     *string
	IsPublic *bool
}

// Remove deletes the document.
type Remove struct{}

func (Update) name() string { return "update" }
func (Remove) name() string { return "remove" }

// Store writes documents.
type Store interface {
	Update(ctx context.Context, id string, p document.Patch) (*models.Document, error)
	Delete(ctx context.Context, id string) error
}

// DBStore is the gorm backed Store.
type DBStore struct {
	db *gorm.DB
}

// NewDBStore returns a Store on db.
func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

// Update implements Store.
func (s *DBStore) Update(ctx context.Context, id string, p document.Patch) (*models.Document, error) {
	return document.Update(s.db.WithContext(ctx), id, p)
}

// Delete implements Store.
func (s *DBStore) Delete(ctx context.Context, id string) error {
	return document.Delete(s.db.WithContext(ctx), id)
}

// Dispatcher is the single entry point for document commands.
type Dispatcher struct {
	store Store
}

// NewDispatcher returns a dispatcher writing to store.
func NewDispatcher(store Store) *Dispatcher {
	return &Dispatcher{store: store}
}

// Dispatch applies cmd to the document id. For Update it returns the stored
// document, for Remove nil.
func (d *Dispatcher) Dispatch(ctx context.Context, id string, cmd Command) (doc *models.Document, err error) {
	if cmd == nil {
		return nil, ErrUnknownCommand
	}

	defer func() {
		metrics.Mutations.WithLabelValues(cmd.name(), metrics.Result(err)).Inc()
	}()

	switch c := cmd.(type) {
	case Update:
		return d.store.Update(ctx, id, document.Patch{Title: c.Title, Body: c.Body, IsPublic: c.IsPublic})
	case Remove:
		return nil, d.store.Delete(ctx, id)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}
