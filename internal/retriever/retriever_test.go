package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
	"docqa/internal/embedding/hash"
	"docqa/internal/index"
	"docqa/internal/vectorindex/memory"
)

// failingEmbedder implements domain.Embedder and always fails.
type failingEmbedder struct{}

func (failingEmbedder) Model() string  { return "failing" }
func (failingEmbedder) Dimension() int { return 4 }
func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding service unreachable")
}
func (failingEmbedder) EmbedMany(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedding service unreachable")
}

func ingestCorpus(t *testing.T, contents []string) (*memory.Index, *hash.Embedder) {
	t.Helper()
	ctx := context.Background()
	idx := memory.NewIndex()
	emb := hash.NewEmbedder(64)

	mgr, err := index.NewManager(idx, emb, index.Config{Name: "docs"})
	require.NoError(t, err)
	require.NoError(t, mgr.EnsureIndex(ctx, emb.Dimension(), "cosine"))

	chunks := make([]domain.Chunk, len(contents))
	for i, c := range contents {
		chunks[i] = domain.Chunk{
			ID:       "src:" + string(rune('0'+i)),
			Content:  c,
			Metadata: domain.Metadata{Source: "corpus.txt"},
		}
	}
	require.NoError(t, mgr.Ingest(ctx, chunks, 100))
	return idx, emb
}

func TestSearchRoundTrip(t *testing.T) {
	ctx := context.Background()
	idx, emb := ingestCorpus(t, []string{
		"The API uses OAuth2 bearer tokens.",
		"Rate limiting is 100 req/min per key.",
		"Database backups run nightly.",
	})
	r := New(idx, emb, "docs")

	// Searching with text equal to an ingested chunk ranks that chunk first.
	docs, err := r.Search(ctx, "The API uses OAuth2 bearer tokens.", 3, nil)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "The API uses OAuth2 bearer tokens.", docs[0].Content)
	for i := 1; i < len(docs); i++ {
		assert.GreaterOrEqual(t, docs[i-1].Score, docs[i].Score, "results must be sorted best first")
	}
}

func TestSearchEmptyCorpus(t *testing.T) {
	ctx := context.Background()
	idx := memory.NewIndex()
	emb := hash.NewEmbedder(64)
	require.NoError(t, idx.Create(ctx, "docs", 64, "cosine"))

	docs, err := New(idx, emb, "docs").Search(ctx, "anything", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSearchFewerThanK(t *testing.T) {
	ctx := context.Background()
	idx, emb := ingestCorpus(t, []string{"only one chunk here"})

	docs, err := New(idx, emb, "docs").Search(ctx, "chunk", 10, nil)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestSearchEmbedderFailure(t *testing.T) {
	ctx := context.Background()
	idx := memory.NewIndex()
	require.NoError(t, idx.Create(ctx, "docs", 4, "cosine"))

	_, err := New(idx, failingEmbedder{}, "docs").Search(ctx, "question", 3, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRetrieval)
}

func TestSearchIndexFailure(t *testing.T) {
	ctx := context.Background()
	// Index without the collection: provider errors, wrapped as retrieval.
	idx := memory.NewIndex()
	emb := hash.NewEmbedder(64)

	_, err := New(idx, emb, "missing").Search(ctx, "question", 3, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRetrieval)
}

func TestSearchInvalidK(t *testing.T) {
	ctx := context.Background()
	idx := memory.NewIndex()
	emb := hash.NewEmbedder(64)

	_, err := New(idx, emb, "docs").Search(ctx, "question", 0, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
