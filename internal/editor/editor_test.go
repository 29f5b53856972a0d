package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket-app/docket/internal/db/controller/document"
	"github.com/docket-app/docket/internal/db/dbtest"
	"github.com/docket-app/docket/internal/db/models"
)

type fakeStore struct {
	mu      sync.Mutex
	patches []document.Patch
	deleted []string
	fail    error
}

func (f *fakeStore) Update(_ context.Context, id string, p document.Patch) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail != nil {
		return nil, f.fail
	}

	f.patches = append(f.patches, p)

	return &models.Document{ID: id, UpdatedAt: time.Now()}, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, id)

	return f.fail
}

func (f *fakeStore) updates() []document.Patch {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]document.Patch(nil), f.patches...)
}

func TestDispatch(t *testing.T) {
	store := &fakeStore{}
	d := NewDispatcher(store)
	ctx := context.Background()

	public := true
	doc, err := d.Dispatch(ctx, "doc", Update{IsPublic: &public})
	require.NoError(t, err)
	assert.Equal(t, "doc", doc.ID)
	assert.Equal(t, &public, store.updates()[0].IsPublic)

	doc, err = d.Dispatch(ctx, "doc", Remove{})
	require.NoError(t, err)
	assert.Nil(t, doc)
	assert.Equal(t, []string{"doc"}, store.deleted)

	_, err = d.Dispatch(ctx, "doc", nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestAutosaveDebouncesAndTrims(t *testing.T) {
	store := &fakeStore{}
	e := New(NewDispatcher(store), "doc", 20*time.Millisecond, 30*time.Millisecond)

	e.Autosave(" a ", "b")
	e.Autosave(" ab ", " body \n")
	assert.True(t, e.Status().Saving)

	require.Eventually(t, func() bool { return len(store.updates()) == 1 }, time.Second, 5*time.Millisecond)

	p := store.updates()[0]
	assert.Equal(t, "ab", *p.Title)
	assert.Equal(t, "body", *p.Body)
	assert.Nil(t, p.IsPublic)

	require.Eventually(t, func() bool { return !e.Status().Saving }, time.Second, 5*time.Millisecond)
	assert.False(t, e.Status().UpdatedAt.IsZero())
	assert.Len(t, store.updates(), 1)
}

func TestSavingStaysWhileNewerAutosaveWaits(t *testing.T) {
	store := &fakeStore{}
	e := New(NewDispatcher(store), "doc", time.Hour, 10*time.Millisecond)

	e.Autosave("one", "")
	require.True(t, e.Flush())

	e.Autosave("two", "")
	time.Sleep(50 * time.Millisecond)
	assert.True(t, e.Status().Saving, "the pending save keeps the indicator on")

	require.True(t, e.Flush())
	require.Eventually(t, func() bool { return !e.Status().Saving }, time.Second, 5*time.Millisecond)
}

func TestAutosaveFailureIsReported(t *testing.T) {
	store := &fakeStore{fail: errors.New("disk full")}
	e := New(NewDispatcher(store), "doc", time.Hour, time.Hour)

	e.Autosave("t", "b")
	e.Flush()

	s := e.Status()
	assert.Equal(t, "disk full", s.Error)
	assert.True(t, s.Saving)
}

func TestRegistry(t *testing.T) {
	store := &fakeStore{}
	r := NewRegistry(NewDispatcher(store), time.Hour, time.Hour)

	e := r.Get(1, "doc")
	assert.Same(t, e, r.Get(1, "doc"))
	assert.NotSame(t, e, r.Get(2, "doc"))

	e.Autosave("t", "b")
	r.DiscardDocument("doc")
	_, ok := r.Lookup(1, "doc")
	assert.False(t, ok)
	assert.False(t, e.Flush(), "discarded editors drop their pending save")

	r.Get(3, "other").Autosave("x", "y")
	r.Get(4, "mine").Autosave("x", "y")
	r.DiscardUser(4)
	r.Close()
	assert.Len(t, store.updates(), 1)
}

func TestRegistryFlushUser(t *testing.T) {
	store := &fakeStore{}
	r := NewRegistry(NewDispatcher(store), time.Hour, time.Hour)

	mine := r.Get(1, "doc")
	mine.Autosave("Final title", "body")
	r.Get(2, "doc").Autosave("other", "body")

	r.FlushUser(1)

	require.Len(t, store.updates(), 1)
	_, ok := r.Lookup(1, "doc")
	assert.False(t, ok)
	_, ok = r.Lookup(2, "doc")
	assert.True(t, ok, "other users keep their editors")
	assert.False(t, mine.Status().Saving)
}

func TestDBStore(t *testing.T) {
	db := dbtest.Open(t)
	owner := dbtest.User(t, db, "alice")

	doc, err := document.Create(db, owner.ID)
	require.NoError(t, err)

	d := NewDispatcher(NewDBStore(db))
	title := "Plans"

	updated, err := d.Dispatch(context.Background(), doc.ID, Update{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Plans", updated.Title)

	_, err = d.Dispatch(context.Background(), doc.ID, Remove{})
	require.NoError(t, err)

	_, err = d.Dispatch(context.Background(), doc.ID, Remove{})
	assert.ErrorIs(t, err, document.ErrDocumentNotFound)
}
