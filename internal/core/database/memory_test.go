package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notebookbobu/backend/internal/core"
	"github.com/notebookbobu/backend/internal/models"
)

func newDoc(id, ownerID string, created time.Time) *models.Document {
	return &models.Document{
		ID:        id,
		UserID:    ownerID,
		Title:     "Doc " + id,
		Type:      models.TypeText,
		Status:    models.StatusUploaded,
		Strategy:  models.DefaultStrategy(),
		CreatedAt: created,
		UpdatedAt: created,
		Metadata:  map[string]any{},
	}
}

func TestMemoryStoreCreateConflict(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.CreateDocument(ctx, newDoc("d1", "u1", time.Now()))
	require.NoError(t, err)

	_, err = store.CreateDocument(ctx, newDoc("d1", "u1", time.Now()))
	var conflict *core.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestMemoryStoreOwnerScoping(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_, err := store.CreateDocument(ctx, newDoc("d1", "u1", time.Now()))
	require.NoError(t, err)

	doc, err := store.GetDocumentByID(ctx, "d1", "u1")
	require.NoError(t, err)
	require.NotNil(t, doc)

	// Foreign and missing documents are indistinguishable.
	doc, err = store.GetDocumentByID(ctx, "d1", "u2")
	require.NoError(t, err)
	assert.Nil(t, doc)

	doc, err = store.GetDocumentByID(ctx, "nope", "u1")
	require.NoError(t, err)
	assert.Nil(t, doc)

	// Empty owner bypasses scoping for internal callers.
	doc, err = store.GetDocumentByID(ctx, "d1", "")
	require.NoError(t, err)
	assert.NotNil(t, doc)
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"old", "mid", "new"} {
		_, err := store.CreateDocument(ctx, newDoc(id, "u1", base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}
	_, err := store.CreateDocument(ctx, newDoc("other", "u2", base))
	require.NoError(t, err)

	docs, err := store.ListDocumentsByOwner(ctx, "u1", 10, 0)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "new", docs[0].ID)
	assert.Equal(t, "old", docs[2].ID)

	docs, err = store.ListDocumentsByOwner(ctx, "u1", 10, 5)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestMemoryStoreReturnsIndependentCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_, err := store.CreateDocument(ctx, newDoc("d1", "u1", time.Now()))
	require.NoError(t, err)

	first, err := store.GetDocumentByID(ctx, "d1", "u1")
	require.NoError(t, err)
	first.Metadata["poison"] = true
	first.Title = "mutated"

	second, err := store.GetDocumentByID(ctx, "d1", "u1")
	require.NoError(t, err)
	assert.NotContains(t, second.Metadata, "poison")
	assert.Equal(t, "Doc d1", second.Title)
}

func TestMemoryStoreStatusUpdates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_, err := store.CreateDocument(ctx, newDoc("d1", "u1", time.Now()))
	require.NoError(t, err)

	require.NoError(t, store.UpdateDocumentStatus(ctx, "d1", models.StatusProcessing, "working"))
	doc, _ := store.GetDocumentByID(ctx, "d1", "u1")
	assert.Equal(t, models.StatusProcessing, doc.Status)
	assert.Equal(t, "working", doc.StatusMessage)

	err = store.UpdateDocumentStatus(ctx, "missing", models.StatusFailed, "boom")
	var notFound *core.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestMemoryStoreListByStatus(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()

	for _, id := range []string{"a", "b"} {
		doc := newDoc(id, "u1", base)
		doc.Status = models.StatusProcessing
		_, err := store.CreateDocument(ctx, doc)
		require.NoError(t, err)
	}
	_, err := store.CreateDocument(ctx, newDoc("c", "u1", base))
	require.NoError(t, err)

	docs, err := store.ListDocumentsByStatus(ctx, models.StatusProcessing, 10)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestMemoryStoreChunkLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_, err := store.CreateDocument(ctx, newDoc("d1", "u1", time.Now()))
	require.NoError(t, err)

	chunks := []models.DocumentChunk{
		{ID: "c2", DocumentID: "d1", ChunkIndex: 1, Content: "second"},
		{ID: "c1", DocumentID: "d1", ChunkIndex: 0, Content: "first"},
	}
	_, err = store.CreateChunks(ctx, chunks)
	require.NoError(t, err)

	got, err := store.GetChunksByDocument(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].ChunkIndex)
	assert.Equal(t, "first", got[0].Content)

	existed, err := store.DeleteChunksByDocument(ctx, "d1")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = store.DeleteChunksByDocument(ctx, "d1")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestMemoryStoreSearchChunks(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_, err := store.CreateDocument(ctx, newDoc("d1", "u1", time.Now()))
	require.NoError(t, err)
	_, err = store.CreateDocument(ctx, newDoc("d2", "u2", time.Now()))
	require.NoError(t, err)

	_, err = store.CreateChunks(ctx, []models.DocumentChunk{
		{ID: "c1", DocumentID: "d1", ChunkIndex: 0, Content: "The Quarterly Report"},
		{ID: "c2", DocumentID: "d2", ChunkIndex: 0, Content: "the quarterly report"},
	})
	require.NoError(t, err)

	got, err := store.SearchChunks(ctx, "QUARTERLY", "u1", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)
}

func TestMemoryStoreUsers(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	user := &models.User{ID: "u1", Email: "a@example.com", PasswordHash: "hash"}
	require.NoError(t, store.CreateUser(ctx, user))

	err := store.CreateUser(ctx, &models.User{ID: "u2", Email: "a@example.com"})
	var conflict *core.ConflictError
	require.ErrorAs(t, err, &conflict)

	got, err := store.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.ID)

	got, err = store.GetUserByEmail(ctx, "missing@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}
