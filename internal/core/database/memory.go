package db

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/notebookbobu/backend/internal/core"
	"github.com/notebookbobu/backend/internal/models"
)

// MemoryStore is an in-process implementation of the repositories.
// It backs the test suite and the no-DATABASE_URL development mode.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string]models.Document
	chunks map[string][]models.DocumentChunk
	users  map[string]models.User // keyed by email
}

var (
	_ core.DocumentRepository = (*MemoryStore)(nil)
	_ core.ChunkRepository    = (*MemoryStore)(nil)
	_ core.UserRepository     = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:   make(map[string]models.Document),
		chunks: make(map[string][]models.DocumentChunk),
		users:  make(map[string]models.User),
	}
}

func (m *MemoryStore) CreateDocument(_ context.Context, doc *models.Document) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[doc.ID]; ok {
		return nil, &core.ConflictError{Resource: "document", ID: doc.ID}
	}
	m.docs[doc.ID] = cloneDocument(*doc)
	return doc, nil
}

func (m *MemoryStore) GetDocumentByID(_ context.Context, id, ownerID string) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	// Someone else's document is reported as absent, not forbidden.
	if ownerID != "" && doc.UserID != ownerID {
		return nil, nil
	}
	out := cloneDocument(doc)
	return &out, nil
}

func (m *MemoryStore) ListDocumentsByOwner(_ context.Context, ownerID string, limit, offset int) ([]models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Document
	for _, doc := range m.docs {
		if doc.UserID == ownerID {
			out = append(out, cloneDocument(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) ListDocumentsByStatus(_ context.Context, status models.DocumentStatus, limit int) ([]models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Document
	for _, doc := range m.docs {
		if doc.Status == status {
			out = append(out, cloneDocument(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.Before(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) UpdateDocument(_ context.Context, doc *models.Document) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[doc.ID]; !ok {
		return nil, &core.NotFoundError{Resource: "document", ID: doc.ID}
	}
	m.docs[doc.ID] = cloneDocument(*doc)
	return doc, nil
}

func (m *MemoryStore) UpdateDocumentStatus(_ context.Context, id string, status models.DocumentStatus, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return &core.NotFoundError{Resource: "document", ID: id}
	}
	switch status {
	case models.StatusProcessing:
		doc.MarkProcessing(message)
	case models.StatusFailed:
		doc.MarkFailed(message)
	default:
		doc.Status = status
		doc.StatusMessage = message
	}
	m.docs[id] = doc
	return nil
}

func (m *MemoryStore) DeleteDocument(_ context.Context, id, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return false, nil
	}
	if ownerID != "" && doc.UserID != ownerID {
		return false, nil
	}
	delete(m.docs, id)
	return true, nil
}

func (m *MemoryStore) CreateChunks(_ context.Context, chunks []models.DocumentChunk) ([]models.DocumentChunk, error) {
	if len(chunks) == 0 {
		return chunks, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range chunks {
		m.chunks[ch.DocumentID] = append(m.chunks[ch.DocumentID], ch)
	}
	return chunks, nil
}

func (m *MemoryStore) GetChunksByDocument(_ context.Context, documentID string) ([]models.DocumentChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]models.DocumentChunk(nil), m.chunks[documentID]...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].ChunkIndex < out[j].ChunkIndex
	})
	return out, nil
}

func (m *MemoryStore) DeleteChunksByDocument(_ context.Context, documentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.chunks[documentID]
	delete(m.chunks, documentID)
	return ok, nil
}

func (m *MemoryStore) SearchChunks(_ context.Context, query, ownerID string, limit int) ([]models.DocumentChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(query)
	var out []models.DocumentChunk
	for docID, chunks := range m.chunks {
		doc, ok := m.docs[docID]
		if !ok || doc.UserID != ownerID {
			continue
		}
		for _, ch := range chunks {
			if strings.Contains(strings.ToLower(ch.Content), needle) {
				out = append(out, ch)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ChunkIndex < out[j].ChunkIndex
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Email]; ok {
		return &core.ConflictError{Resource: "user", ID: user.Email}
	}
	m.users[user.Email] = *user
	return nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// cloneDocument copies the metadata map so callers never share one
// mutable container with the store.
func cloneDocument(doc models.Document) models.Document {
	md := make(map[string]any, len(doc.Metadata))
	for k, v := range doc.Metadata {
		md[k] = v
	}
	doc.Metadata = md
	return doc
}
