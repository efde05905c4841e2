package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/itish2003/notevault/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDocumentCreateAndGet(t *testing.T) {
	store := NewDocumentStore(openTestDB(t))

	doc := &models.Document{Title: "First", Content: "body", Tags: []string{"go", "notes"}}
	require.NoError(t, store.Create(doc))
	require.NotEmpty(t, doc.ID)
	assert.Equal(t, 1, doc.Version)

	got, err := store.Get(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "First", got.Title)
	assert.Equal(t, "body", got.Content)
	assert.Equal(t, []string{"go", "notes"}, got.Tags)
	assert.Equal(t, 1, got.Version)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Nil(t, got.DeletedAt)
}

func TestDocumentGetMissing(t *testing.T) {
	store := NewDocumentStore(openTestDB(t))

	_, err := store.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDocumentUpdateVersioning(t *testing.T) {
	store := NewDocumentStore(openTestDB(t))

	doc := &models.Document{Title: "Draft", Content: "v1"}
	require.NoError(t, store.Create(doc))

	updated, err := store.Update(doc.ID, "Draft", "v2", []string{"edited"}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "v2", updated.Content)
	assert.Equal(t, []string{"edited"}, updated.Tags)

	// A second writer holding the stale version must be rejected.
	_, err = store.Update(doc.ID, "Draft", "v3", nil, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)

	_, err = store.Update("missing", "x", "y", nil, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDocumentSoftDelete(t *testing.T) {
	store := NewDocumentStore(openTestDB(t))

	doc := &models.Document{Title: "Gone", Content: "soon"}
	require.NoError(t, store.Create(doc))
	require.NoError(t, store.SoftDelete(doc.ID))

	_, err := store.Get(doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.SoftDelete(doc.ID), ErrNotFound)

	count, err := store.CountLive()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDocumentListPaginationAndTagFilter(t *testing.T) {
	store := NewDocumentStore(openTestDB(t))

	for i, title := range []string{"a", "b", "c"} {
		tags := []string{"common"}
		if i == 1 {
			tags = append(tags, "special")
		}
		doc := &models.Document{Title: title, Content: "x", Tags: tags}
		require.NoError(t, store.Create(doc))
		// Updated-at ordering needs distinct timestamps.
		time.Sleep(2 * time.Millisecond)
	}

	docs, total, err := store.List(1, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, docs, 2)
	assert.Equal(t, "c", docs[0].Title)
	assert.Equal(t, "b", docs[1].Title)

	docs, total, err = store.List(2, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, docs, 1)
	assert.Equal(t, "a", docs[0].Title)

	docs, total, err = store.List(1, 10, []string{"special"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, docs, 1)
	assert.Equal(t, "b", docs[0].Title)
}

func TestDocumentTagCounts(t *testing.T) {
	store := NewDocumentStore(openTestDB(t))

	require.NoError(t, store.Create(&models.Document{Title: "1", Content: "x", Tags: []string{"go", "web"}}))
	require.NoError(t, store.Create(&models.Document{Title: "2", Content: "x", Tags: []string{"go"}}))
	deleted := &models.Document{Title: "3", Content: "x", Tags: []string{"web"}}
	require.NoError(t, store.Create(deleted))
	require.NoError(t, store.SoftDelete(deleted.ID))

	counts, err := store.TagCounts()
	require.NoError(t, err)
	assert.Equal(t, []models.TagCount{{Tag: "go", Count: 2}, {Tag: "web", Count: 1}}, counts)
}

func TestDocumentSourcePathLookup(t *testing.T) {
	store := NewDocumentStore(openTestDB(t))

	doc := &models.Document{Title: "Imported", Content: "x", SourcePath: "/drop/readme.md", ContentHash: "abc"}
	require.NoError(t, store.Create(doc))

	got, err := store.GetBySourcePath("/drop/readme.md")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, "abc", got.ContentHash)

	_, err = store.GetBySourcePath("/drop/other.md")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDocumentVectorIDRoundTrip(t *testing.T) {
	store := NewDocumentStore(openTestDB(t))

	doc := &models.Document{Title: "Vec", Content: "x"}
	require.NoError(t, store.Create(doc))
	require.NoError(t, store.SetVectorID(doc.ID, "uuid-chunk0"))

	got, err := store.Get(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "uuid-chunk0", got.VectorID)
}
