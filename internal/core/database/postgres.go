package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/notebookbobu/backend/internal/core"
	"github.com/notebookbobu/backend/internal/models"
)

// DatabaseClient implements the document, chunk and user repositories
// over Postgres via the pgx stdlib driver.
type DatabaseClient struct {
	db *sql.DB
}

var (
	_ core.DocumentRepository = (*DatabaseClient)(nil)
	_ core.ChunkRepository    = (*DatabaseClient)(nil)
	_ core.UserRepository     = (*DatabaseClient)(nil)
)

func NewDatabaseClient(ctx context.Context, databaseURL string) (*DatabaseClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Document repository

const documentColumns = `
	id, user_id, title, type, file_extension, size, char_count,
	raw_content, processed_content, storage_uri, storage_url,
	status, status_message, processing_strategy, hits, source,
	chunk_count, client_id, client_context,
	created_at, updated_at, processed_at, metadata`

func (c *DatabaseClient) CreateDocument(ctx context.Context, doc *models.Document) (*models.Document, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}

	strategy, err := json.Marshal(doc.Strategy)
	if err != nil {
		return nil, fmt.Errorf("marshal strategy: %w", err)
	}
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	const q = `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
	`
	_, err = c.db.ExecContext(ctx, q,
		doc.ID, doc.UserID, doc.Title, string(doc.Type), doc.FileExtension, doc.Size, doc.CharCount,
		doc.RawContent, doc.ProcessedContent, doc.StorageURI, doc.StorageURL,
		string(doc.Status), doc.StatusMessage, strategy, doc.Hits, string(doc.Source),
		doc.ChunkCount, doc.ClientID, doc.ClientContext,
		doc.CreatedAt, doc.UpdatedAt, doc.ProcessedAt, metadata,
	)
	if isUniqueViolation(err) {
		return nil, &core.ConflictError{Resource: "document", ID: doc.ID}
	}
	if err != nil {
		return nil, &core.RepositoryError{Op: "create document", Err: err}
	}
	return doc, nil
}

func (c *DatabaseClient) GetDocumentByID(ctx context.Context, id, ownerID string) (*models.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1 AND ($2 = '' OR user_id = $2)
	`
	doc, err := scanDocument(c.db.QueryRowContext(ctx, q, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &core.RepositoryError{Op: "get document", Err: err}
	}
	return doc, nil
}

func (c *DatabaseClient) ListDocumentsByOwner(ctx context.Context, ownerID string, limit, offset int) ([]models.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return c.queryDocuments(ctx, q, ownerID, limit, offset)
}

func (c *DatabaseClient) ListDocumentsByStatus(ctx context.Context, status models.DocumentStatus, limit int) ([]models.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE status = $1
		ORDER BY updated_at ASC
		LIMIT $2
	`
	return c.queryDocuments(ctx, q, string(status), limit)
}

func (c *DatabaseClient) queryDocuments(ctx context.Context, q string, args ...any) ([]models.Document, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, &core.RepositoryError{Op: "list documents", Err: err}
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, &core.RepositoryError{Op: "scan document", Err: err}
		}
		out = append(out, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.RepositoryError{Op: "list documents", Err: err}
	}
	return out, nil
}

func (c *DatabaseClient) UpdateDocument(ctx context.Context, doc *models.Document) (*models.Document, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}

	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	doc.UpdatedAt = time.Now().UTC()
	const q = `
		UPDATE documents SET
			title = $2, processed_content = $3, status = $4, status_message = $5,
			hits = $6, chunk_count = $7, char_count = $8, raw_content = $9,
			storage_uri = $10, storage_url = $11, metadata = $12,
			processed_at = $13, updated_at = $14
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q,
		doc.ID, doc.Title, doc.ProcessedContent, string(doc.Status), doc.StatusMessage,
		doc.Hits, doc.ChunkCount, doc.CharCount, doc.RawContent,
		doc.StorageURI, doc.StorageURL, metadata,
		doc.ProcessedAt, doc.UpdatedAt,
	)
	if err != nil {
		return nil, &core.RepositoryError{Op: "update document", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, &core.NotFoundError{Resource: "document", ID: doc.ID}
	}
	return doc, nil
}

func (c *DatabaseClient) UpdateDocumentStatus(ctx context.Context, id string, status models.DocumentStatus, message string) error {
	const q = `
		UPDATE documents
		SET status = $2, status_message = $3, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, string(status), message)
	if err != nil {
		return &core.RepositoryError{Op: "update status", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Resource: "document", ID: id}
	}
	return nil
}

func (c *DatabaseClient) DeleteDocument(ctx context.Context, id, ownerID string) (bool, error) {
	const q = `
		DELETE FROM documents
		WHERE id = $1 AND ($2 = '' OR user_id = $2)
	`
	res, err := c.db.ExecContext(ctx, q, id, ownerID)
	if err != nil {
		return false, &core.RepositoryError{Op: "delete document", Err: err}
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Chunk repository

func (c *DatabaseClient) CreateChunks(ctx context.Context, chunks []models.DocumentChunk) ([]models.DocumentChunk, error) {
	if len(chunks) == 0 {
		return chunks, nil
	}

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, &core.RepositoryError{Op: "begin chunk tx", Err: err}
	}

	const q = `
		INSERT INTO document_chunks
			(id, document_id, chunk_index, content, metadata, embedding, start_char, end_char, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return nil, &core.RepositoryError{Op: "prepare chunk insert", Err: err}
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		metadata, err := json.Marshal(ch.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("marshal chunk metadata: %w", err)
		}
		// Embeddings are optional; chunks are stored without one until
		// something computes it.
		var emb any
		if len(ch.Embedding) > 0 {
			emb = pgvector.NewVector(ch.Embedding)
		}
		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.DocumentID, ch.ChunkIndex, ch.Content, metadata, emb, ch.StartChar, ch.EndChar, ch.CreatedAt,
		); err != nil {
			_ = tx.Rollback()
			return nil, &core.RepositoryError{Op: "insert chunk", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, &core.RepositoryError{Op: "commit chunks", Err: err}
	}
	return chunks, nil
}

const chunkColumns = `id, document_id, chunk_index, content, metadata, start_char, end_char, created_at`

func (c *DatabaseClient) GetChunksByDocument(ctx context.Context, documentID string) ([]models.DocumentChunk, error) {
	const q = `
		SELECT ` + chunkColumns + `
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_index ASC
	`
	return c.queryChunks(ctx, q, documentID)
}

func (c *DatabaseClient) DeleteChunksByDocument(ctx context.Context, documentID string) (bool, error) {
	const q = `DELETE FROM document_chunks WHERE document_id = $1`
	res, err := c.db.ExecContext(ctx, q, documentID)
	if err != nil {
		return false, &core.RepositoryError{Op: "delete chunks", Err: err}
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (c *DatabaseClient) SearchChunks(ctx context.Context, query, ownerID string, limit int) ([]models.DocumentChunk, error) {
	const q = `
		SELECT c.id, c.document_id, c.chunk_index, c.content, c.metadata, c.start_char, c.end_char, c.created_at
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE d.user_id = $2 AND c.content ILIKE '%' || $1 || '%'
		ORDER BY c.created_at DESC, c.chunk_index ASC
		LIMIT $3
	`
	return c.queryChunks(ctx, q, query, ownerID, limit)
}

func (c *DatabaseClient) queryChunks(ctx context.Context, q string, args ...any) ([]models.DocumentChunk, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, &core.RepositoryError{Op: "query chunks", Err: err}
	}
	defer rows.Close()

	var out []models.DocumentChunk
	for rows.Next() {
		var (
			ch       models.DocumentChunk
			metadata []byte
			start    sql.NullInt64
			end      sql.NullInt64
		)
		if err := rows.Scan(&ch.ID, &ch.DocumentID, &ch.ChunkIndex, &ch.Content, &metadata, &start, &end, &ch.CreatedAt); err != nil {
			return nil, &core.RepositoryError{Op: "scan chunk", Err: err}
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &ch.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal chunk metadata: %w", err)
			}
		}
		if ch.Metadata == nil {
			ch.Metadata = map[string]any{}
		}
		if start.Valid {
			v := int(start.Int64)
			ch.StartChar = &v
		}
		if end.Valid {
			v := int(end.Int64)
			ch.EndChar = &v
		}
		out = append(out, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.RepositoryError{Op: "query chunks", Err: err}
	}
	return out, nil
}

// User repository

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, first_name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()), COALESCE($6, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.FirstName, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if isUniqueViolation(err) {
		return &core.ConflictError{Resource: "user", ID: user.Email}
	}
	if err != nil {
		return &core.RepositoryError{Op: "create user", Err: err}
	}
	return nil
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, first_name, email, password_hash, created_at, updated_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID, &u.FirstName, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &core.RepositoryError{Op: "get user", Err: err}
	}
	return &u, nil
}

// scanning

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		d             models.Document
		typ, status   string
		source        string
		rawContent    sql.NullString
		processedAt   sql.NullTime
		strategyBytes []byte
		metadataBytes []byte
	)
	err := row.Scan(
		&d.ID, &d.UserID, &d.Title, &typ, &d.FileExtension, &d.Size, &d.CharCount,
		&rawContent, &d.ProcessedContent, &d.StorageURI, &d.StorageURL,
		&status, &d.StatusMessage, &strategyBytes, &d.Hits, &source,
		&d.ChunkCount, &d.ClientID, &d.ClientContext,
		&d.CreatedAt, &d.UpdatedAt, &processedAt, &metadataBytes,
	)
	if err != nil {
		return nil, err
	}

	parsedStatus, err := models.ParseDocumentStatus(status)
	if err != nil {
		return nil, err
	}
	d.Status = parsedStatus
	d.Type = models.DocumentType(typ)
	d.Source = models.DocumentSource(source)

	if rawContent.Valid {
		s := rawContent.String
		d.RawContent = &s
	}
	if processedAt.Valid {
		t := processedAt.Time
		d.ProcessedAt = &t
	}
	if len(strategyBytes) > 0 {
		if err := json.Unmarshal(strategyBytes, &d.Strategy); err != nil {
			return nil, fmt.Errorf("unmarshal strategy: %w", err)
		}
	}
	if len(metadataBytes) > 0 {
		if err := json.Unmarshal(metadataBytes, &d.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if d.Metadata == nil {
		d.Metadata = map[string]any{}
	}
	return &d, nil
}
