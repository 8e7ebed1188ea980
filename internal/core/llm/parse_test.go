package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnalysis(t *testing.T) {
	raw := `Summary:
This document covers quarterly results. Revenue grew modestly.

Key points:
- Revenue up 4%
* Costs held flat
1. Headcount unchanged
2) Guidance reaffirmed`

	summary, points := parseAnalysis(raw)

	assert.Equal(t, "This document covers quarterly results. Revenue grew modestly.", summary)
	assert.Equal(t, []string{
		"Revenue up 4%",
		"Costs held flat",
		"Headcount unchanged",
		"Guidance reaffirmed",
	}, points)
}

func TestParseAnalysisDropsHeadings(t *testing.T) {
	summary, points := parseAnalysis("## Summary\nJust prose.\n**Key Points**\n- one")
	assert.Equal(t, "Just prose.", summary)
	assert.Equal(t, []string{"one"}, points)
}

func TestParseAnalysisPlainProse(t *testing.T) {
	summary, points := parseAnalysis("A single paragraph with no bullets at all.")
	assert.Equal(t, "A single paragraph with no bullets at all.", summary)
	assert.Empty(t, points)
}

func TestTruncateContent(t *testing.T) {
	short := "short text"
	assert.Equal(t, short, truncateContent(short))

	long := strings.Repeat("a", maxContentChars+100)
	got := truncateContent(long)
	assert.True(t, strings.HasSuffix(got, "...[truncated]"))
	assert.Len(t, got, maxContentChars+len("\n...[truncated]"))
}

func TestAnalysisPromptIncludesTitleAndContent(t *testing.T) {
	prompt := analysisPrompt("the body", "The Title")
	require.Contains(t, prompt, "Title: The Title")
	require.Contains(t, prompt, "the body")
}
