package processing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextEmpty(t *testing.T) {
	assert.Nil(t, SplitText("", 1000, 0))
}

func TestSplitTextShorterThanWindow(t *testing.T) {
	chunks := SplitText("hello world", 1000, 0)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 11, chunks[0].End)
}

func TestSplitTextExactWindows(t *testing.T) {
	text := strings.Repeat("a", 1200)
	chunks := SplitText(text, 1000, 0)

	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 1000, chunks[0].End)
	assert.Equal(t, 1000, chunks[1].Start)
	assert.Equal(t, 1200, chunks[1].End)
	assert.Equal(t, 200, len(chunks[1].Content))
}

func TestSplitTextReconstructsInput(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 100)

	chunks := SplitText(text, 333, 0)
	var b strings.Builder
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		b.WriteString(c.Content)
	}
	assert.Equal(t, text, b.String())

	// Boundaries are contiguous without overlap.
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].End, chunks[i].Start)
	}
}

func TestSplitTextDeterministic(t *testing.T) {
	text := strings.Repeat("determinism ", 500)
	first := SplitText(text, 250, 50)
	second := SplitText(text, 250, 50)
	assert.Equal(t, first, second)
}

func TestSplitTextOverlap(t *testing.T) {
	text := strings.Repeat("x", 100)
	chunks := SplitText(text, 40, 10)

	require.True(t, len(chunks) >= 3)
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].End-10, chunks[i].Start)
	}
	assert.Equal(t, 100, chunks[len(chunks)-1].End)
}

func TestSplitTextRuneOffsets(t *testing.T) {
	// Multibyte text: offsets count runes, not bytes.
	text := strings.Repeat("héllo wörld ", 20) // 12 runes per repeat
	chunks := SplitText(text, 100, 0)

	require.Len(t, chunks, 3)
	assert.Equal(t, 240, chunks[2].End)
	assert.Equal(t, 40, len([]rune(chunks[2].Content)))
}

func TestSplitTextGuards(t *testing.T) {
	text := strings.Repeat("a", 1500)

	// Non-positive size falls back to the default window.
	chunks := SplitText(text, 0, 0)
	require.Len(t, chunks, 2)
	assert.Equal(t, DefaultChunkSize, chunks[0].End)

	// Overlap >= size would never advance; it is ignored.
	chunks = SplitText(text, 100, 100)
	require.Len(t, chunks, 15)
	assert.Equal(t, 100, chunks[1].Start)
}
