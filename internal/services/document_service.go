package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/notebookbobu/backend/internal/core"
	"github.com/notebookbobu/backend/internal/core/extract"
	"github.com/notebookbobu/backend/internal/core/processing"
	"github.com/notebookbobu/backend/internal/models"
)

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".md":   true,
	".docx": true,
}

const (
	defaultListLimit   = 50
	maxListLimit       = 100
	defaultSearchLimit = 10
	maxSearchLimit     = 50
	minQueryLength     = 2
)

// DocumentService exposes the document operations: process an upload
// end to end, read, list, delete, list chunks and search. All reads and
// writes are scoped to the calling owner.
type DocumentService struct {
	docs      core.DocumentRepository
	chunks    core.ChunkRepository
	processor *processing.Orchestrator
	storage   core.ObjectClient  // optional
	extractor core.TextExtractor // optional

	bucket      string
	maxFileSize int64
	strategy    models.ProcessingStrategy

	log *logrus.Entry
}

func NewDocumentService(
	docs core.DocumentRepository,
	chunks core.ChunkRepository,
	processor *processing.Orchestrator,
	storage core.ObjectClient,
	extractor core.TextExtractor,
	bucket string,
	maxFileSize int64,
	strategy models.ProcessingStrategy,
) *DocumentService {
	return &DocumentService{
		docs:        docs,
		chunks:      chunks,
		processor:   processor,
		storage:     storage,
		extractor:   extractor,
		bucket:      bucket,
		maxFileSize: maxFileSize,
		strategy:    strategy,
		log:         logrus.WithField("component", "document_service"),
	}
}

// Process validates and stores an upload, creates the document record
// and immediately runs the processing pipeline. The returned document
// is terminal: processed, or failed alongside a *core.ProcessingError.
// Validation happens before any state is created.
func (s *DocumentService) Process(ctx context.Context, ownerID, filename, title string, content []byte) (*models.Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, &core.ValidationError{Msg: fmt.Sprintf("unsupported file type %q; allowed: .pdf, .txt, .md, .docx", ext)}
	}
	if int64(len(content)) > s.maxFileSize {
		return nil, &core.ValidationError{Msg: fmt.Sprintf("file exceeds maximum size of %d bytes", s.maxFileSize)}
	}
	if strings.TrimSpace(title) == "" {
		return nil, &core.ValidationError{Msg: "title is required"}
	}

	doc := models.NewDocumentFromUpload(ownerID, title, filename, content, s.strategy)

	// Best-effort text extraction for binary types. Failure leaves the
	// document without raw content; the pipeline then produces its
	// synthetic placeholder result.
	if !doc.Type.TextLike() && doc.Status != models.StatusFailed && s.extractor != nil {
		text, err := s.extractor.ExtractText(ctx, content, extract.ContentTypeForExtension(doc.FileExtension))
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"document_id": doc.ID,
				"error":       err.Error(),
			}).Warn("binary text extraction failed")
		} else {
			doc.SetRawContent(text)
		}
	}

	if s.storage != nil {
		key := s.objectKey(ownerID, doc.ID, filename)
		url, err := s.storage.UploadFile(ctx, s.bucket, key, bytes.NewReader(content), contentType(ext))
		if err != nil {
			return nil, fmt.Errorf("store upload: %w", err)
		}
		doc.StorageURI = fmt.Sprintf("s3://%s/%s", s.bucket, key)
		doc.StorageURL = url
	}

	if _, err := s.docs.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	// A decode failure at construction time is terminal before the
	// pipeline ever runs.
	if doc.Status == models.StatusFailed {
		return doc, &core.ProcessingError{DocumentID: doc.ID, Err: errors.New(doc.StatusMessage)}
	}

	return s.processor.Process(ctx, doc.ID)
}

// Get returns an owner's document and bumps its hit counter.
func (s *DocumentService) Get(ctx context.Context, documentID, ownerID string) (*models.Document, error) {
	doc, err := s.docs.GetDocumentByID(ctx, documentID, ownerID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &core.NotFoundError{Resource: "document", ID: documentID}
	}

	doc.Hits++
	if _, err := s.docs.UpdateDocument(ctx, doc); err != nil {
		s.log.WithFields(logrus.Fields{
			"document_id": documentID,
			"error":       err.Error(),
		}).Debug("hit counter update failed")
	}
	return doc, nil
}

// List returns the owner's documents newest first.
func (s *DocumentService) List(ctx context.Context, ownerID string, limit, offset int) ([]models.Document, error) {
	if offset < 0 {
		return nil, &core.ValidationError{Msg: "offset must be >= 0"}
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.docs.ListDocumentsByOwner(ctx, ownerID, limit, offset)
}

// Delete removes a document and its chunks. Chunk deletion is attempted
// first but never blocks removal of the document itself, which is the
// user-visible record. Reports false for an absent or foreign document.
func (s *DocumentService) Delete(ctx context.Context, documentID, ownerID string) (bool, error) {
	doc, err := s.docs.GetDocumentByID(ctx, documentID, ownerID)
	if err != nil {
		return false, err
	}
	if doc == nil {
		return false, nil
	}

	if _, err := s.chunks.DeleteChunksByDocument(ctx, documentID); err != nil {
		s.log.WithFields(logrus.Fields{
			"document_id": documentID,
			"error":       err.Error(),
		}).Warn("chunk cleanup failed, deleting document anyway")
	}

	if s.storage != nil && doc.StorageURI != "" {
		if bucket, key, ok := parseStorageURI(doc.StorageURI); ok {
			if err := s.storage.DeleteFile(ctx, bucket, key); err != nil {
				s.log.WithFields(logrus.Fields{
					"document_id": documentID,
					"error":       err.Error(),
				}).Warn("stored object cleanup failed")
			}
		}
	}

	return s.docs.DeleteDocument(ctx, documentID, ownerID)
}

// ListChunks returns a document's chunks in index order. Ownership is
// verified via the parent document before any chunk is fetched.
func (s *DocumentService) ListChunks(ctx context.Context, documentID, ownerID string) ([]models.DocumentChunk, error) {
	doc, err := s.docs.GetDocumentByID(ctx, documentID, ownerID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &core.NotFoundError{Resource: "document", ID: documentID}
	}
	return s.chunks.GetChunksByDocument(ctx, documentID)
}

// Search runs a lexical filter over the owner's chunks.
func (s *DocumentService) Search(ctx context.Context, query, ownerID string, limit int) ([]models.DocumentChunk, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minQueryLength {
		return nil, &core.ValidationError{Msg: "query must be at least 2 characters"}
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	return s.chunks.SearchChunks(ctx, query, ownerID, limit)
}

// Reprocess re-runs the pipeline for a terminal (or stuck) document.
// Callers are responsible for not issuing concurrent reprocess calls
// for the same document.
func (s *DocumentService) Reprocess(ctx context.Context, documentID, ownerID string) (*models.Document, error) {
	doc, err := s.docs.GetDocumentByID(ctx, documentID, ownerID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &core.NotFoundError{Resource: "document", ID: documentID}
	}
	return s.processor.Process(ctx, documentID)
}

// objectKey creates a consistent S3 key layout.
func (s *DocumentService) objectKey(userID, docID, filename string) string {
	filename = strings.TrimSpace(filepath.Base(filename))
	filename = strings.ReplaceAll(filename, " ", "_")
	return path.Join("users", userID, "documents", docID, filename)
}

func parseStorageURI(uri string) (bucket, key string, ok bool) {
	trimmed := strings.TrimPrefix(uri, "s3://")
	if trimmed == uri {
		return "", "", false
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func contentType(ext string) string {
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".md":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
