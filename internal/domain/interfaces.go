package domain

import "context"

// Loader yields raw documents from a directory tree matching a glob pattern.
type Loader interface {
	Load(dir, pattern string) ([]Document, error)
}

// Chunker splits documents into chunks suitable for embedding and retrieval.
type Chunker interface {
	Split(documents []Document) []Chunk
}

// Embedder converts text into a fixed-dimension vector. The same embedder
// configuration must be used at ingest and query time; mixing models
// invalidates similarity scores.
type Embedder interface {
	Model() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex is the capability surface of a vector index provider.
// Implementations need not be safe for concurrent administrative calls;
// callers serialize Create/Delete against ongoing Upsert traffic.
type VectorIndex interface {
	List(ctx context.Context) ([]string, error)
	Create(ctx context.Context, name string, dimension int, metric string) error
	Ready(ctx context.Context, name string) (bool, error)
	Upsert(ctx context.Context, name string, records []Record) error
	Search(ctx context.Context, name string, vector []float32, k int, filter map[string]string) ([]ScoredRecord, error)
	Delete(ctx context.Context, name string) error
}

// GenOptions are the per-call generation parameters.
type GenOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// AnswerStream is a finite, non-restartable sequence of answer fragments.
// Recv returns io.EOF when the answer is complete. Close releases the
// underlying generation connection; fragments already received stand.
type AnswerStream interface {
	Recv() (string, error)
	Close() error
}

// Generator produces text from a prompt, either complete or incrementally.
// Errors from Generate and from a stream's Recv carry the ErrGeneration kind.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenOptions) (string, error)
	GenerateStream(ctx context.Context, prompt string, opts GenOptions) (AnswerStream, error)
}
