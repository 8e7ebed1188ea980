package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/notebookbobu/backend/internal/core"
)

// GeminiAnalyzer implements content analysis over the Gemini API.
type GeminiAnalyzer struct {
	client    *genai.Client
	modelName string
}

func NewGeminiAnalyzer(ctx context.Context, apiKey, modelName string) (*GeminiAnalyzer, error) {
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiAnalyzer{client: cl, modelName: modelName}, nil
}

func (g *GeminiAnalyzer) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiAnalyzer) Analyze(ctx context.Context, text, title string) (*core.AnalysisResult, error) {
	m := g.client.GenerativeModel(g.modelName)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text("You summarize documents concisely and answer with plain text only.")},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(analysisPrompt(text, title)))
	if err != nil {
		return nil, &core.CollaboratorUnavailableError{Collaborator: "gemini", Err: err}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, &core.CollaboratorUnavailableError{Collaborator: "gemini", Err: errors.New("empty candidate")}
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}

	summary, keyPoints := parseAnalysis(b.String())
	if summary == "" {
		summary = fmt.Sprintf("Analysis of %q completed.", title)
	}

	return &core.AnalysisResult{
		Summary:    summary,
		KeyPoints:  keyPoints,
		Confidence: "high",
	}, nil
}

var _ core.ContentAnalyzer = (*GeminiAnalyzer)(nil)
