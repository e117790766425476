package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/chunker"
	"docqa/internal/domain"
	"docqa/internal/embedding/hash"
	"docqa/internal/index"
	"docqa/internal/loader"
	"docqa/internal/pipeline"
	"docqa/internal/retriever"
	"docqa/internal/vectorindex/memory"
)

type staticGenerator struct {
	answer string
}

func (g *staticGenerator) Generate(_ context.Context, _ string, _ domain.GenOptions) (string, error) {
	return g.answer, nil
}

func (g *staticGenerator) GenerateStream(_ context.Context, _ string, _ domain.GenOptions) (domain.AnswerStream, error) {
	return nil, nil
}

func newTestService(t *testing.T) (*Service, *memory.Index) {
	t.Helper()
	idx := memory.NewIndex()
	emb := hash.NewEmbedder(64)

	ch, err := chunker.New(200, 20)
	require.NoError(t, err)

	mgr, err := index.NewManager(idx, emb, index.Config{Name: "corpus"})
	require.NoError(t, err)

	p, err := pipeline.New(retriever.New(idx, emb, "corpus"), &staticGenerator{answer: "ok"}, domain.FastMode(""))
	require.NoError(t, err)

	svc, err := New(loader.New(), ch, mgr, p, Config{Dimension: emb.Dimension(), Metric: "cosine", BatchSize: 100})
	require.NoError(t, err)
	return svc, idx
}

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestIndexCorpusAndAsk(t *testing.T) {
	svc, _ := newTestService(t)
	dir := writeCorpus(t, map[string]string{
		"auth.txt":   "The API uses OAuth2 bearer tokens for authentication.",
		"limits.txt": "Rate limiting is 100 requests per minute per key.",
	})

	stats, err := svc.IndexCorpus(context.Background(), dir, "*.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.GreaterOrEqual(t, stats.Chunks, 2)

	result, err := svc.Ask(context.Background(), "How does authentication work?")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "ok", result.Answer)
	assert.NotEmpty(t, result.Documents)
	assert.Greater(t, result.Latency.Nanoseconds(), int64(0))
}

func TestIndexCorpusIsIdempotent(t *testing.T) {
	svc, idx := newTestService(t)
	dir := writeCorpus(t, map[string]string{"a.txt": "Some document content here."})

	first, err := svc.IndexCorpus(context.Background(), dir, "*.txt")
	require.NoError(t, err)
	second, err := svc.IndexCorpus(context.Background(), dir, "*.txt")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	names, err := idx.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"corpus"}, names)
}

func TestIndexCorpusEmptyDir(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.IndexCorpus(context.Background(), t.TempDir(), "*.txt")
	assert.Error(t, err)
}

func TestWipe(t *testing.T) {
	svc, idx := newTestService(t)
	dir := writeCorpus(t, map[string]string{"a.txt": "Some document content here."})

	_, err := svc.IndexCorpus(context.Background(), dir, "*.txt")
	require.NoError(t, err)

	require.NoError(t, svc.Wipe(context.Background()))
	names, err := idx.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(loader.New(), nil, nil, nil, Config{Dimension: 0, BatchSize: 100})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = New(loader.New(), nil, nil, nil, Config{Dimension: 64, BatchSize: 0})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
