package core

import (
	"context"

	"github.com/notebookbobu/backend/internal/models"
)

// DocumentRepository abstracts document persistence so higher layers
// never depend on a specific store.
//
// GetDocumentByID returns (nil, nil) when the document is absent. When
// ownerID is non-empty, a document owned by someone else is reported as
// absent too, not as a permission error.
type DocumentRepository interface {
	// CreateDocument persists a document whose identity the caller has
	// already assigned. Duplicate ids yield a *ConflictError.
	CreateDocument(ctx context.Context, doc *models.Document) (*models.Document, error)

	GetDocumentByID(ctx context.Context, id, ownerID string) (*models.Document, error)

	// ListDocumentsByOwner returns the owner's documents newest first.
	ListDocumentsByOwner(ctx context.Context, ownerID string, limit, offset int) ([]models.Document, error)

	// UpdateDocument overwrites the mutable fields of an existing
	// document. Missing ids yield a *NotFoundError.
	UpdateDocument(ctx context.Context, doc *models.Document) (*models.Document, error)

	// UpdateDocumentStatus persists only the status and its message.
	UpdateDocumentStatus(ctx context.Context, id string, status models.DocumentStatus, message string) error

	// DeleteDocument reports whether a row was actually removed and
	// never errors for "already absent".
	DeleteDocument(ctx context.Context, id, ownerID string) (bool, error)

	// ListDocumentsByStatus serves out-of-band sweepers.
	ListDocumentsByStatus(ctx context.Context, status models.DocumentStatus, limit int) ([]models.Document, error)
}

// ChunkRepository abstracts chunk persistence.
type ChunkRepository interface {
	CreateChunks(ctx context.Context, chunks []models.DocumentChunk) ([]models.DocumentChunk, error)

	// GetChunksByDocument returns chunks ordered by chunk index.
	GetChunksByDocument(ctx context.Context, documentID string) ([]models.DocumentChunk, error)

	// DeleteChunksByDocument reports whether any chunk was removed.
	DeleteChunksByDocument(ctx context.Context, documentID string) (bool, error)

	// SearchChunks is a lexical substring filter over the owner's
	// chunks.
	SearchChunks(ctx context.Context, query, ownerID string, limit int) ([]models.DocumentChunk, error)
}

// UserRepository backs the thin auth layer.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}
