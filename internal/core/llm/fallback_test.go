package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackAnalyzerDeterministic(t *testing.T) {
	a := NewFallbackAnalyzer()

	first, err := a.Analyze(context.Background(), "one two three", "Doc")
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), "one two three", "Doc")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "low", first.Confidence)
	assert.Contains(t, first.Summary, "13 characters, 3 words")
	assert.Len(t, first.KeyPoints, 3)
}

func TestFallbackAnalyzerEmptyText(t *testing.T) {
	a := NewFallbackAnalyzer()

	result, err := a.Analyze(context.Background(), "", "Empty Doc")
	require.NoError(t, err)

	// Even a zero-length document gets a usable summary.
	assert.NotEmpty(t, result.Summary)
	assert.Contains(t, result.Summary, "0 characters, 0 words")
	assert.Empty(t, result.Chunks)
}
