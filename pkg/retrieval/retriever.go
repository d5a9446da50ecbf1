// Package retrieval embeds the wellness corpus and serves top-k semantic
// search over it. The corpus is a single small document, so search is a
// linear full scan over the cached vectors rather than an ANN index.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/viterin/vek/vek32"

	"github.com/upliftai/uplift/config"
	"github.com/upliftai/uplift/internal"
	"github.com/upliftai/uplift/pkg/ingest"
	"github.com/upliftai/uplift/pkg/models"
)

const (
	DefaultTopK     = 3
	DefaultMinScore = 0.7
)

var log = internal.GetLogger()

var _ models.Retriever = &Corpus{}

// Corpus holds the chunked corpus document and its embeddings. It is
// read-only after construction and safe for concurrent use.
type Corpus struct {
	chunks     []models.Chunk
	embeddings [][]float32
	embedder   models.UpliftEmbeddingsClient
}

// NewCorpus loads the corpus document, chunks it, and populates the chunk
// embeddings. If the configured cache file exists its vectors are loaded
// instead of recomputed; otherwise all chunk texts are embedded in a single
// batched call and the result is persisted.
func NewCorpus(
	ctx context.Context,
	cfg *config.Config,
	embedder models.UpliftEmbeddingsClient,
) (*Corpus, error) {
	chunkSize := cfg.Chat.ChunkSize
	if chunkSize <= 0 {
		chunkSize = ingest.DefaultChunkSize
	}
	overlap := cfg.Chat.ChunkOverlap
	if overlap <= 0 {
		overlap = ingest.DefaultChunkOverlap
	}

	chunks, err := ingest.LoadChunks(cfg.Chat.CorpusPath, chunkSize, overlap)
	if err != nil {
		return nil, err
	}

	corpus := &Corpus{chunks: chunks, embedder: embedder}
	if len(chunks) == 0 {
		log.Warnf("corpus document %s produced no chunks", cfg.Chat.CorpusPath)
		return corpus, nil
	}

	embeddings, err := populateEmbeddings(ctx, cfg.Chat.CachePath, chunks, embedder)
	if err != nil {
		return nil, err
	}
	corpus.embeddings = embeddings

	return corpus, nil
}

func populateEmbeddings(
	ctx context.Context,
	cachePath string,
	chunks []models.Chunk,
	embedder models.UpliftEmbeddingsClient,
) ([][]float32, error) {
	if cachePath != "" {
		embeddings, err := loadEmbeddings(cachePath)
		switch {
		case err == nil:
			if len(embeddings) != len(chunks) {
				return nil, fmt.Errorf(
					"embedding cache %s holds %d vectors for %d chunks; delete the cache file to recompute",
					cachePath, len(embeddings), len(chunks),
				)
			}
			log.Debugf("loaded %d embeddings from cache %s", len(embeddings), cachePath)
			return embeddings, nil
		case errors.Is(err, os.ErrNotExist):
			// fall through to compute
		default:
			return nil, err
		}
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	// One batched call for the whole corpus. The batch fails atomically;
	// there are no partial results.
	embeddings, err := embedder.EmbedTexts(ctx, texts)
	if err != nil {
		if errors.Is(err, models.ErrEmbeddingService) {
			return nil, err
		}
		return nil, models.NewEmbeddingServiceError(err)
	}
	if len(embeddings) != len(chunks) {
		return nil, models.NewEmbeddingServiceError(
			fmt.Errorf("embedding service returned %d vectors for %d chunks", len(embeddings), len(chunks)),
		)
	}

	if cachePath != "" {
		if err := saveEmbeddings(cachePath, embeddings); err != nil {
			return nil, err
		}
		log.Infof("cached %d corpus embeddings to %s", len(embeddings), cachePath)
	}

	return embeddings, nil
}

// ChunkCount returns the number of chunks in the corpus.
func (c *Corpus) ChunkCount() int {
	return len(c.chunks)
}

// Search embeds the query and returns up to k chunks whose cosine similarity
// meets minScore, ordered by descending score. Ties keep ascending chunk
// order. An empty corpus yields an empty result without an embedding call.
func (c *Corpus) Search(
	ctx context.Context,
	query string,
	k int,
	minScore float32,
) ([]models.RetrievalResult, error) {
	if len(c.chunks) == 0 {
		return []models.RetrievalResult{}, nil
	}
	if k <= 0 {
		k = DefaultTopK
	}

	queryVectors, err := c.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		if errors.Is(err, models.ErrEmbeddingService) {
			return nil, err
		}
		return nil, models.NewEmbeddingServiceError(err)
	}
	if len(queryVectors) != 1 {
		return nil, models.NewEmbeddingServiceError(
			fmt.Errorf("embedding service returned %d vectors for one query", len(queryVectors)),
		)
	}
	queryVector := queryVectors[0]

	results := make([]models.RetrievalResult, len(c.chunks))
	for i, chunk := range c.chunks {
		results[i] = models.RetrievalResult{
			Chunk: chunk,
			Score: vek32.CosineSimilarity(queryVector, c.embeddings[i]),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}

	filtered := results[:0]
	for _, r := range results {
		if r.Score >= minScore {
			filtered = append(filtered, r)
		}
	}

	return filtered, nil
}
