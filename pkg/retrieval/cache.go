package retrieval

import (
	"encoding/gob"
	"fmt"
	"os"
)

// embeddingCache is the on-disk format of the corpus embeddings: one vector
// per chunk, in chunk order. The whole file is read at startup and written
// once after first computation. There is no invalidation; if the corpus
// document changes, the cache file must be deleted manually.
type embeddingCache struct {
	Embeddings [][]float32
}

func loadEmbeddings(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cache embeddingCache
	if err := gob.NewDecoder(f).Decode(&cache); err != nil {
		return nil, fmt.Errorf("failed to decode embedding cache %s: %w", path, err)
	}

	return cache.Embeddings, nil
}

func saveEmbeddings(path string, embeddings [][]float32) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if err := gob.NewEncoder(f).Encode(embeddingCache{Embeddings: embeddings}); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to encode embedding cache: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}
