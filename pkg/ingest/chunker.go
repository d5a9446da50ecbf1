package ingest

import (
	"fmt"

	"github.com/upliftai/uplift/pkg/models"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// ChunkText splits text into a sliding window of chunks. The window length is
// chunkSize and each chunk overlaps the previous one by overlap characters.
// The final chunk may be shorter than chunkSize.
func ChunkText(text string, chunkSize, overlap int) ([]models.Chunk, error) {
	if chunkSize <= 0 {
		return nil, models.NewValidationError(fmt.Sprintf("chunk size must be positive, got %d", chunkSize))
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, models.NewValidationError(
			fmt.Sprintf("overlap must be in [0, chunk size), got %d for chunk size %d", overlap, chunkSize),
		)
	}

	step := chunkSize - overlap
	chunks := make([]models.Chunk, 0, len(text)/step+1)
	for start := 0; start < len(text); start += step {
		end := start + chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, models.Chunk{
			Index:   len(chunks),
			Content: text[start:end],
		})
	}

	return chunks, nil
}

// LoadChunks extracts a document and chunks it in one step.
func LoadChunks(path string, chunkSize, overlap int) ([]models.Chunk, error) {
	text, err := ExtractText(path)
	if err != nil {
		return nil, err
	}
	return ChunkText(text, chunkSize, overlap)
}
