package ingest

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/upliftai/uplift/pkg/models"
)

func TestChunkText(t *testing.T) {
	chunks, err := ChunkText("abcdefghij", 4, 2)
	assert.NoError(t, err)

	contents := make([]string, len(chunks))
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		contents[i] = c.Content
	}
	assert.Equal(t, []string{"abcd", "cdef", "efgh", "ghij", "ij"}, contents)
}

func TestChunkText_NoOverlap(t *testing.T) {
	chunks, err := ChunkText("abcdefghij", 5, 0)
	assert.NoError(t, err)
	assert.Len(t, chunks, 2)
	assert.Equal(t, "abcde", chunks[0].Content)
	assert.Equal(t, "fghij", chunks[1].Content)
}

func TestChunkText_ReconstructsText(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 100)
	chunkSize := 100
	overlap := 20

	chunks, err := ChunkText(text, chunkSize, overlap)
	assert.NoError(t, err)
	assert.NotEmpty(t, chunks)

	// Concatenating each chunk's non-overlap prefix reconstructs the text.
	var sb strings.Builder
	step := chunkSize - overlap
	for i, c := range chunks {
		if i == len(chunks)-1 {
			sb.WriteString(c.Content)
			break
		}
		if len(c.Content) > step {
			sb.WriteString(c.Content[:step])
		} else {
			sb.WriteString(c.Content)
		}
	}
	assert.Equal(t, text, sb.String())
}

func TestChunkText_EmptyText(t *testing.T) {
	chunks, err := ChunkText("", 4, 2)
	assert.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkText_InvalidArgs(t *testing.T) {
	testCases := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{"zero chunk size", 0, 0},
		{"negative overlap", 10, -1},
		{"overlap equals chunk size", 10, 10},
		{"overlap exceeds chunk size", 10, 12},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ChunkText("some text", tc.chunkSize, tc.overlap)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestExtractText_UnsupportedFormat(t *testing.T) {
	_, err := ExtractText("document.docx")
	assert.ErrorIs(t, err, models.ErrDocumentRead)
}

func TestExtractText_MissingFile(t *testing.T) {
	_, err := ExtractText("does-not-exist.txt")
	assert.ErrorIs(t, err, models.ErrDocumentRead)
}

func TestExtractText_PlainText(t *testing.T) {
	path := t.TempDir() + "/corpus.txt"
	content := "Small daily habits compound into lasting wellbeing."
	err := os.WriteFile(path, []byte(content), 0o600)
	assert.NoError(t, err)

	text, err := ExtractText(path)
	assert.NoError(t, err)
	assert.Equal(t, content, text)
}
