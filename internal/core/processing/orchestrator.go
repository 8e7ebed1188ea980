package processing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/notebookbobu/backend/internal/core"
	"github.com/notebookbobu/backend/internal/models"
)

// Orchestrator drives a single document from uploaded to a terminal
// state, exactly once per invocation. Invoking it again on a terminal
// document re-runs processing (the reprocess path); guarding against
// concurrent duplicate invocations for one id is the caller's job.
type Orchestrator struct {
	docs         core.DocumentRepository
	chunks       core.ChunkRepository
	analyzer     core.ContentAnalyzer
	fallback     core.ContentAnalyzer
	honorOverlap bool
	log          *logrus.Entry
}

// NewOrchestrator wires the pipeline. analyzer may equal fallback when
// no model-backed capability is configured; fallback must never be nil
// and must never return an error.
func NewOrchestrator(docs core.DocumentRepository, chunks core.ChunkRepository, analyzer, fallback core.ContentAnalyzer, honorOverlap bool) *Orchestrator {
	if analyzer == nil {
		analyzer = fallback
	}
	return &Orchestrator{
		docs:         docs,
		chunks:       chunks,
		analyzer:     analyzer,
		fallback:     fallback,
		honorOverlap: honorOverlap,
		log:          logrus.WithField("component", "processor"),
	}
}

// Process runs the pipeline for one document id.
//
// The processing status is persisted before any expensive work so
// concurrent readers observe the in-progress state, and the terminal
// status is persisted only after chunk persistence completes, so a
// reader never sees processed with an inconsistent chunk set. On
// failure the document is persisted as failed and returned alongside a
// *core.ProcessingError; retrying is left to the caller.
func (o *Orchestrator) Process(ctx context.Context, documentID string) (*models.Document, error) {
	doc, err := o.docs.GetDocumentByID(ctx, documentID, "")
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &core.NotFoundError{Resource: "document", ID: documentID}
	}

	doc.MarkProcessing("Processing document content")
	if err := o.docs.UpdateDocumentStatus(ctx, doc.ID, models.StatusProcessing, doc.StatusMessage); err != nil {
		return nil, err
	}

	result, err := o.analyze(ctx, doc)
	if err != nil {
		return doc, o.fail(ctx, doc, err)
	}

	chunks := o.buildChunks(doc, result)

	if err := o.persistResult(ctx, doc, result, chunks); err != nil {
		return doc, o.fail(ctx, doc, err)
	}

	o.log.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"chunks":      len(chunks),
	}).Info("document processed")
	return doc, nil
}

// analyze obtains summary/key points for the document's text. Binary
// uploads without extracted text get a synthetic single-topic result
// so downstream consumers keep their contract shape. Analyzer
// unavailability is answered with the deterministic fallback, never an
// error.
func (o *Orchestrator) analyze(ctx context.Context, doc *models.Document) (*core.AnalysisResult, error) {
	if doc.RawContent == nil {
		placeholder := fmt.Sprintf("Binary document %q (%s, %d bytes). Text extraction is delegated to an external parser.",
			doc.Title, doc.Type, doc.Size)
		return &core.AnalysisResult{
			Summary:    placeholder,
			KeyPoints:  []string{fmt.Sprintf("Document: %s", doc.Title), "Content stored, not yet extracted"},
			Confidence: "low",
			Chunks: []core.AnalysisChunk{{
				Content:  placeholder,
				Metadata: map[string]any{"chunk_type": "synthetic"},
			}},
		}, nil
	}

	result, err := o.analyzer.Analyze(ctx, *doc.RawContent, doc.Title)
	var unavailable *core.CollaboratorUnavailableError
	if errors.As(err, &unavailable) {
		o.log.WithFields(logrus.Fields{
			"document_id": doc.ID,
			"reason":      unavailable.Error(),
		}).Warn("analyzer unavailable, using fallback analysis")
		return o.fallback.Analyze(ctx, *doc.RawContent, doc.Title)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// buildChunks turns the analysis result into sequentially indexed chunk
// records. Pre-chunked analyzer output wins; otherwise the splitter
// runs over the raw text.
func (o *Orchestrator) buildChunks(doc *models.Document, result *core.AnalysisResult) []models.DocumentChunk {
	now := time.Now().UTC()

	if len(result.Chunks) > 0 {
		out := make([]models.DocumentChunk, 0, len(result.Chunks))
		for i, c := range result.Chunks {
			md := c.Metadata
			if md == nil {
				md = map[string]any{}
			}
			out = append(out, models.DocumentChunk{
				ID:         uuid.NewString(),
				DocumentID: doc.ID,
				ChunkIndex: i,
				Content:    c.Content,
				Metadata:   md,
				CreatedAt:  now,
			})
		}
		return out
	}

	if doc.RawContent == nil {
		return nil
	}

	overlap := 0
	if o.honorOverlap {
		overlap = doc.Strategy.ChunkOverlap
	}

	pieces := SplitText(*doc.RawContent, doc.Strategy.ChunkSize, overlap)
	out := make([]models.DocumentChunk, 0, len(pieces))
	for _, p := range pieces {
		start, end := p.Start, p.End
		out = append(out, models.DocumentChunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			ChunkIndex: p.Index,
			Content:    p.Content,
			Metadata:   map[string]any{"chunk_type": "text"},
			StartChar:  &start,
			EndChar:    &end,
			CreatedAt:  now,
		})
	}
	return out
}

// persistResult replaces the chunk set and then writes the terminal
// document update, in that order. Reprocessing therefore never leaves a
// partially overwritten chunk set behind a processed status.
func (o *Orchestrator) persistResult(ctx context.Context, doc *models.Document, result *core.AnalysisResult, chunks []models.DocumentChunk) error {
	if _, err := o.chunks.DeleteChunksByDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("replace chunks: %w", err)
	}
	if len(chunks) > 0 {
		if _, err := o.chunks.CreateChunks(ctx, chunks); err != nil {
			return fmt.Errorf("persist chunks: %w", err)
		}
	}

	doc.MarkProcessed(result.Summary, len(chunks))
	if doc.Metadata == nil {
		doc.Metadata = map[string]any{}
	}
	doc.Metadata["key_points"] = result.KeyPoints
	doc.Metadata["processing_time"] = time.Now().UTC().Format(time.RFC3339)
	if result.Confidence != "" {
		doc.Metadata["confidence"] = result.Confidence
	}

	updated, err := o.docs.UpdateDocument(ctx, doc)
	if err != nil {
		return err
	}
	*doc = *updated
	return nil
}

// fail persists the terminal failure state and wraps the cause. The
// document stays around (not deleted) for inspection and reprocessing.
func (o *Orchestrator) fail(ctx context.Context, doc *models.Document, cause error) error {
	doc.MarkFailed("Processing failed: " + cause.Error())
	if err := o.docs.UpdateDocumentStatus(ctx, doc.ID, models.StatusFailed, doc.StatusMessage); err != nil {
		o.log.WithFields(logrus.Fields{
			"document_id": doc.ID,
			"error":       err.Error(),
		}).Error("could not persist failed status")
	}
	return &core.ProcessingError{DocumentID: doc.ID, Err: cause}
}
