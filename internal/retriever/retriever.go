// Package retriever answers similarity queries over the vector index.
package retriever

import (
	"context"
	"fmt"

	"docqa/internal/domain"
)

// Retriever embeds a query with the same embedder used at ingest time and
// returns the k most similar chunks, best first.
type Retriever struct {
	index    domain.VectorIndex
	embedder domain.Embedder
	name     string
}

func New(index domain.VectorIndex, embedder domain.Embedder, indexName string) *Retriever {
	return &Retriever{index: index, embedder: embedder, name: indexName}
}

// Search returns fewer than k documents only when the index holds fewer
// matching records; an empty corpus yields an empty slice, not an error.
func (r *Retriever) Search(ctx context.Context, query string, k int, filter map[string]string) ([]domain.RetrievedDocument, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrConfiguration, k)
	}
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrRetrieval, err)
	}
	records, err := r.index.Search(ctx, r.name, vector, k, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity search: %w", domain.ErrRetrieval, err)
	}
	documents := make([]domain.RetrievedDocument, len(records))
	for i, rec := range records {
		documents[i] = domain.RetrievedDocument{Chunk: rec.Chunk, Score: rec.Score}
	}
	return documents, nil
}
