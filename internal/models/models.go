package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DocumentType is the closed set of accepted document formats.
type DocumentType string

const (
	TypePDF      DocumentType = "pdf"
	TypeText     DocumentType = "txt"
	TypeMarkdown DocumentType = "md"
	TypeDocx     DocumentType = "docx"
)

// DocumentStatus is the processing state machine:
// uploaded -> processing -> processed | failed.
// Processed and failed are terminal; only an explicit reprocess request
// re-enters processing from a terminal state.
type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusProcessed  DocumentStatus = "processed"
	StatusFailed     DocumentStatus = "failed"
)

// DocumentSource records how a document entered the system.
type DocumentSource string

const (
	SourceUpload DocumentSource = "upload"
	SourceURL    DocumentSource = "url"
	SourceAPI    DocumentSource = "api"
)

var extensionTypes = map[string]DocumentType{
	"pdf":  TypePDF,
	"txt":  TypeText,
	"md":   TypeMarkdown,
	"docx": TypeDocx,
}

// TypeForExtension maps a file extension (without the dot, any case) to
// a document type. Unrecognized extensions map to plain text rather
// than rejecting the upload; acceptance filtering happens at the API
// boundary before a document is ever constructed.
func TypeForExtension(ext string) DocumentType {
	if t, ok := extensionTypes[strings.ToLower(ext)]; ok {
		return t
	}
	return TypeText
}

// ParseDocumentStatus converts a wire/database string into a status.
// Conversion happens only at the boundary; everything else works with
// the typed constants.
func ParseDocumentStatus(s string) (DocumentStatus, error) {
	switch DocumentStatus(s) {
	case StatusUploaded, StatusProcessing, StatusProcessed, StatusFailed:
		return DocumentStatus(s), nil
	}
	return "", fmt.Errorf("unknown document status %q", s)
}

// Terminal reports whether no further automatic transition occurs.
func (s DocumentStatus) Terminal() bool {
	return s == StatusProcessed || s == StatusFailed
}

// TextLike reports whether raw bytes of this type are decoded into
// raw_content at upload time.
func (t DocumentType) TextLike() bool {
	return t == TypeText || t == TypeMarkdown
}

// ProcessingStrategy carries per-document chunking configuration.
type ProcessingStrategy struct {
	ChunkSize     int  `json:"chunk_size"`
	ChunkOverlap  int  `json:"chunk_overlap"`
	ExtractImages bool `json:"extract_images"`
	ExtractTables bool `json:"extract_tables"`
}

// DefaultStrategy returns the baseline processing configuration.
func DefaultStrategy() ProcessingStrategy {
	return ProcessingStrategy{
		ChunkSize:     1000,
		ChunkOverlap:  200,
		ExtractImages: false,
		ExtractTables: true,
	}
}

// Document is a user-owned uploaded document moving through the
// processing pipeline.
type Document struct {
	ID     string `db:"id" json:"id"`
	UserID string `db:"user_id" json:"user_id"`
	Title  string `db:"title" json:"title"`

	Type          DocumentType `db:"type" json:"type"`
	FileExtension string       `db:"file_extension" json:"file_extension"`
	Size          int64        `db:"size" json:"size"`
	CharCount     int          `db:"char_count" json:"char_count,omitempty"`

	// RawContent is set only when the upload could be decoded (or
	// extracted) into text; nil means "no text available", which is
	// distinct from an empty text file.
	RawContent       *string `db:"raw_content" json:"-"`
	ProcessedContent string  `db:"processed_content" json:"summary,omitempty"`
	StorageURI       string  `db:"storage_uri" json:"storage_uri,omitempty"`
	StorageURL       string  `db:"storage_url" json:"storage_url,omitempty"`

	Status        DocumentStatus     `db:"status" json:"status"`
	StatusMessage string             `db:"status_message" json:"status_message,omitempty"`
	Strategy      ProcessingStrategy `db:"processing_strategy" json:"processing_strategy"`

	Hits   int            `db:"hits" json:"hits"`
	Source DocumentSource `db:"source" json:"source"`

	ChunkCount int `db:"chunk_count" json:"chunk_count"`

	// Advisory CRM linkage; never enforced.
	ClientID      string `db:"client_id" json:"client_id,omitempty"`
	ClientContext string `db:"client_context" json:"client_context,omitempty"`

	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	ProcessedAt *time.Time `db:"processed_at" json:"processed_at,omitempty"`

	Metadata map[string]any `db:"metadata" json:"metadata,omitempty"`
}

// DocumentChunk is one bounded contiguous slice of a document's text.
type DocumentChunk struct {
	ID         string `db:"id" json:"id"`
	DocumentID string `db:"document_id" json:"document_id"`
	ChunkIndex int    `db:"chunk_index" json:"chunk_index"`
	Content    string `db:"content" json:"content"`

	Metadata map[string]any `db:"metadata" json:"metadata,omitempty"`

	// Embedding is reserved for similarity search; the pipeline stores
	// chunks without computing one.
	Embedding []float32 `db:"embedding" json:"-"`

	// Offsets into the parent's extracted text. Nil for synthetic
	// chunks that were not cut from real text.
	StartChar *int `db:"start_char" json:"start_char,omitempty"`
	EndChar   *int `db:"end_char" json:"end_char,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// NewDocumentFromUpload builds a document from upload metadata. The
// extension is mapped case-insensitively onto the type enum. For
// text-like types the raw bytes are decoded as UTF-8 immediately; a
// decode failure leaves the document failed before the pipeline ever
// runs. Every construction allocates its own metadata map.
func NewDocumentFromUpload(userID, title, filename string, content []byte, strategy ProcessingStrategy) *Document {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	now := time.Now().UTC()

	doc := &Document{
		ID:            uuid.NewString(),
		UserID:        userID,
		Title:         title,
		Type:          TypeForExtension(ext),
		FileExtension: ext,
		Size:          int64(len(content)),
		Status:        StatusUploaded,
		Source:        SourceUpload,
		Strategy:      strategy,
		CreatedAt:     now,
		UpdatedAt:     now,
		Metadata:      map[string]any{},
	}

	if doc.Type.TextLike() {
		if utf8.Valid(content) {
			doc.SetRawContent(string(content))
		} else {
			doc.MarkFailed("Failed to decode text content")
		}
	}

	return doc
}

// SetRawContent attaches decoded or extracted text to the document.
func (d *Document) SetRawContent(text string) {
	d.RawContent = &text
	d.CharCount = utf8.RuneCountInString(text)
}

// MarkProcessing enters the in-progress state. Valid from uploaded and,
// for an explicit reprocess, from either terminal state.
func (d *Document) MarkProcessing(message string) {
	d.Status = StatusProcessing
	d.StatusMessage = message
	d.UpdatedAt = time.Now().UTC()
}

// MarkProcessed enters the terminal success state.
func (d *Document) MarkProcessed(summary string, chunkCount int) {
	now := time.Now().UTC()
	d.Status = StatusProcessed
	d.StatusMessage = "Successfully processed"
	d.ProcessedContent = summary
	d.ChunkCount = chunkCount
	d.ProcessedAt = &now
	d.UpdatedAt = now
}

// MarkFailed enters the terminal failure state. A failed document
// always carries a non-empty message.
func (d *Document) MarkFailed(message string) {
	if message == "" {
		message = "processing failed"
	}
	d.Status = StatusFailed
	d.StatusMessage = message
	d.UpdatedAt = time.Now().UTC()
}
