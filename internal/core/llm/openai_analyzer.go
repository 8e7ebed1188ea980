package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/notebookbobu/backend/internal/core"
)

// OpenAIAnalyzer implements content analysis over the OpenAI chat API.
// Transport and API failures are reported as collaborator
// unavailability so the pipeline falls back instead of failing the
// document.
type OpenAIAnalyzer struct {
	client *openai.Client
	model  string
}

func NewOpenAIAnalyzer(apiKey, model string) *OpenAIAnalyzer {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIAnalyzer{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (a *OpenAIAnalyzer) Analyze(ctx context.Context, text, title string) (*core.AnalysisResult, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: analysisPrompt(text, title)},
		},
		MaxTokens:   500,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, &core.CollaboratorUnavailableError{Collaborator: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &core.CollaboratorUnavailableError{Collaborator: "openai", Err: errors.New("empty completion")}
	}

	summary, keyPoints := parseAnalysis(resp.Choices[0].Message.Content)
	if summary == "" {
		summary = fmt.Sprintf("Analysis of %q completed.", title)
	}

	return &core.AnalysisResult{
		Summary:    summary,
		KeyPoints:  keyPoints,
		Confidence: "high",
	}, nil
}

var _ core.ContentAnalyzer = (*OpenAIAnalyzer)(nil)
