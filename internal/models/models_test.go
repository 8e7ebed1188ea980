package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeForExtension(t *testing.T) {
	assert.Equal(t, TypePDF, TypeForExtension("pdf"))
	assert.Equal(t, TypePDF, TypeForExtension("PDF"))
	assert.Equal(t, TypeMarkdown, TypeForExtension("md"))
	assert.Equal(t, TypeDocx, TypeForExtension("docx"))
	assert.Equal(t, TypeText, TypeForExtension("txt"))
	assert.Equal(t, TypeText, TypeForExtension("weird"))
}

func TestParseDocumentStatus(t *testing.T) {
	s, err := ParseDocumentStatus("processing")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, s)

	_, err = ParseDocumentStatus("exploded")
	assert.Error(t, err)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusUploaded.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	assert.True(t, StatusProcessed.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestNewDocumentFromUploadText(t *testing.T) {
	doc := NewDocumentFromUpload("user-1", "Notes", "notes.txt", []byte("héllo"), DefaultStrategy())

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, TypeText, doc.Type)
	assert.Equal(t, "txt", doc.FileExtension)
	assert.Equal(t, StatusUploaded, doc.Status)
	assert.Equal(t, SourceUpload, doc.Source)
	require.NotNil(t, doc.RawContent)
	assert.Equal(t, "héllo", *doc.RawContent)
	assert.Equal(t, 5, doc.CharCount)
	assert.Equal(t, int64(6), doc.Size)
	assert.NotNil(t, doc.Metadata)
}

func TestNewDocumentFromUploadEmptyText(t *testing.T) {
	doc := NewDocumentFromUpload("user-1", "Empty", "empty.txt", nil, DefaultStrategy())

	// An empty text file has text, just zero of it.
	require.NotNil(t, doc.RawContent)
	assert.Equal(t, "", *doc.RawContent)
	assert.Equal(t, 0, doc.CharCount)
	assert.Equal(t, StatusUploaded, doc.Status)
}

func TestNewDocumentFromUploadBinary(t *testing.T) {
	doc := NewDocumentFromUpload("user-1", "Report", "report.pdf", []byte{0xff, 0xfe}, DefaultStrategy())

	assert.Nil(t, doc.RawContent)
	assert.Equal(t, StatusUploaded, doc.Status)
}

func TestNewDocumentFromUploadDecodeFailure(t *testing.T) {
	doc := NewDocumentFromUpload("user-1", "Broken", "broken.txt", []byte{0xff, 0xfe, 0xfd}, DefaultStrategy())

	assert.Equal(t, StatusFailed, doc.Status)
	assert.Equal(t, "Failed to decode text content", doc.StatusMessage)
	assert.Nil(t, doc.RawContent)
}

func TestMetadataMapsAreIndependent(t *testing.T) {
	a := NewDocumentFromUpload("u", "A", "a.txt", []byte("a"), DefaultStrategy())
	b := NewDocumentFromUpload("u", "B", "b.txt", []byte("b"), DefaultStrategy())

	a.Metadata["key"] = "value"
	assert.Empty(t, b.Metadata)
}

func TestStatusTransitions(t *testing.T) {
	doc := NewDocumentFromUpload("u", "T", "t.txt", []byte("text"), DefaultStrategy())

	doc.MarkProcessing("Processing document content")
	assert.Equal(t, StatusProcessing, doc.Status)
	assert.Nil(t, doc.ProcessedAt)

	doc.MarkProcessed("a summary", 4)
	assert.Equal(t, StatusProcessed, doc.Status)
	assert.Equal(t, "Successfully processed", doc.StatusMessage)
	assert.Equal(t, 4, doc.ChunkCount)
	require.NotNil(t, doc.ProcessedAt)

	doc.MarkFailed("")
	assert.Equal(t, StatusFailed, doc.Status)
	assert.NotEmpty(t, doc.StatusMessage)
}
