package core

import "context"

// AnalysisChunk is a pre-chunked piece of content returned by an
// analyzer. Most analyzers return none and leave chunking to the
// pipeline's own splitter.
type AnalysisChunk struct {
	Content  string
	Metadata map[string]any
}

// AnalysisResult is what the pipeline obtains for a document's text.
type AnalysisResult struct {
	Summary   string
	KeyPoints []string
	Chunks    []AnalysisChunk
	// Confidence is "high" for model-backed analysis and "low" for the
	// deterministic fallback.
	Confidence string
}

// ContentAnalyzer is the external capability that turns raw text into a
// summary and key points. Implementations wrap transport failures in
// *CollaboratorUnavailableError so the pipeline can fall back instead
// of failing the document.
type ContentAnalyzer interface {
	Analyze(ctx context.Context, text, title string) (*AnalysisResult, error)
}

// TextExtractor derives plain text from binary uploads (PDF, DOCX).
// Best effort: extraction failure is not a processing failure.
type TextExtractor interface {
	ExtractText(ctx context.Context, content []byte, contentType string) (string, error)
}
