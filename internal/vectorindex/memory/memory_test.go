package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func record(id, source, content string, vector []float32) domain.Record {
	return domain.Record{
		ID:     id,
		Vector: vector,
		Chunk:  domain.Chunk{ID: id, Content: content, Metadata: domain.Metadata{Source: source}},
	}
}

func TestIndexLifecycle(t *testing.T) {
	ctx := context.Background()
	x := NewIndex()

	names, err := x.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, x.Create(ctx, "docs", 2, "cosine"))

	ready, err := x.Ready(ctx, "docs")
	require.NoError(t, err)
	assert.True(t, ready)

	names, err = x.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, names)

	// Duplicate creation is the provider's rejection; idempotence lives in
	// the index manager.
	assert.Error(t, x.Create(ctx, "docs", 2, "cosine"))

	require.NoError(t, x.Delete(ctx, "docs"))
	ready, err = x.Ready(ctx, "docs")
	require.NoError(t, err)
	assert.False(t, ready)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	x := NewIndex()
	assert.Error(t, x.Create(ctx, "bad", 0, "cosine"))
	assert.Error(t, x.Create(ctx, "bad", 2, "manhattan"))
}

func TestSearchOrdering(t *testing.T) {
	ctx := context.Background()
	x := NewIndex()
	require.NoError(t, x.Create(ctx, "docs", 2, "cosine"))

	require.NoError(t, x.Upsert(ctx, "docs", []domain.Record{
		record("a", "a.txt", "east", []float32{1, 0}),
		record("b", "b.txt", "north", []float32{0, 1}),
		record("c", "c.txt", "northeast", []float32{1, 1}),
	}))

	results, err := x.Search(ctx, "docs", []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "c", results[1].ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchFilter(t *testing.T) {
	ctx := context.Background()
	x := NewIndex()
	require.NoError(t, x.Create(ctx, "docs", 2, "cosine"))
	require.NoError(t, x.Upsert(ctx, "docs", []domain.Record{
		record("a", "a.txt", "one", []float32{1, 0}),
		record("b", "b.txt", "two", []float32{1, 0}),
	}))

	results, err := x.Search(ctx, "docs", []float32{1, 0}, 5, map[string]string{"source": "b.txt"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)
}

func TestSearchEmptyCollection(t *testing.T) {
	ctx := context.Background()
	x := NewIndex()
	require.NoError(t, x.Create(ctx, "docs", 2, "cosine"))

	results, err := x.Search(ctx, "docs", []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUpsertReplacesByID(t *testing.T) {
	ctx := context.Background()
	x := NewIndex()
	require.NoError(t, x.Create(ctx, "docs", 2, "cosine"))

	require.NoError(t, x.Upsert(ctx, "docs", []domain.Record{record("a", "a.txt", "old", []float32{1, 0})}))
	require.NoError(t, x.Upsert(ctx, "docs", []domain.Record{record("a", "a.txt", "new", []float32{0, 1})}))

	results, err := x.Search(ctx, "docs", []float32{0, 1}, 5, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].Chunk.Content)
}

func TestUpsertDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	x := NewIndex()
	require.NoError(t, x.Create(ctx, "docs", 2, "cosine"))
	err := x.Upsert(ctx, "docs", []domain.Record{record("a", "a.txt", "bad", []float32{1, 0, 0})})
	assert.Error(t, err)
}
