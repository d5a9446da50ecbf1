package models

import "context"

// Chunk is a contiguous window of corpus text. Index is the chunk's ordinal
// position in the source document.
type Chunk struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
}

// RetrievalResult is a corpus chunk scored against a query.
type RetrievalResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"`
}

type Retriever interface {
	// Search returns up to k chunks with cosine similarity >= minScore,
	// ordered by descending score. An empty corpus yields an empty result.
	Search(ctx context.Context, query string, k int, minScore float32) ([]RetrievalResult, error)
}
