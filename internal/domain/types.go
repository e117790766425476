package domain

import "time"

// Metadata carries provenance for a document and every chunk derived from it.
type Metadata struct {
	Source string
	Page   int
}

// Document is a raw text unit produced by the loader. Immutable once created.
type Document struct {
	Content  string
	Metadata Metadata
}

// Chunk is a bounded-length segment of a document, sized for embedding.
// The ID is stable across ingestion runs (source hash + in-document ordinal)
// so re-ingesting the same corpus upserts rather than duplicates.
type Chunk struct {
	ID       string
	Content  string
	Metadata Metadata
}

// Record pairs a chunk with its embedding vector for storage in a vector index.
type Record struct {
	ID     string
	Vector []float32
	Chunk  Chunk
}

// ScoredRecord is a record returned by a similarity search.
type ScoredRecord struct {
	Record
	Score float32
}

// RetrievedDocument is a chunk ranked by similarity to a query.
// Rank is implicit: position in the result slice.
type RetrievedDocument struct {
	Chunk
	Score float32
}

// QueryResult is the outcome of a single question/answer cycle.
type QueryResult struct {
	Answer    string
	Latency   time.Duration
	Documents []RetrievedDocument
}
