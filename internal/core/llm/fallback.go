package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/notebookbobu/backend/internal/core"
)

// FallbackAnalyzer produces a low-confidence analysis from simple text
// statistics. It is fully deterministic, makes no external calls and
// never fails, which is exactly what the pipeline needs when no model
// credential is configured or the model API is unreachable.
type FallbackAnalyzer struct{}

func NewFallbackAnalyzer() *FallbackAnalyzer {
	return &FallbackAnalyzer{}
}

func (a *FallbackAnalyzer) Analyze(_ context.Context, text, title string) (*core.AnalysisResult, error) {
	chars := utf8.RuneCountInString(text)
	words := len(strings.Fields(text))

	summary := fmt.Sprintf("Document %q processed without model analysis: %d characters, %d words.", title, chars, words)
	keyPoints := []string{
		fmt.Sprintf("Document: %s", title),
		fmt.Sprintf("Content length: %d characters", chars),
		"Processing: completed",
	}

	return &core.AnalysisResult{
		Summary:    summary,
		KeyPoints:  keyPoints,
		Confidence: "low",
	}, nil
}

var _ core.ContentAnalyzer = (*FallbackAnalyzer)(nil)
