// Package index owns the vector index lifecycle and document ingestion.
package index

import (
	"context"
	"fmt"
	"time"

	"docqa/internal/domain"
)

// Manager provisions the index and ingests chunks. Administrative calls
// (EnsureIndex, DeleteIndex) must not run concurrently with Ingest.
type Manager struct {
	index        domain.VectorIndex
	embedder     domain.Embedder
	name         string
	readyTimeout time.Duration
	pollInterval time.Duration
}

type Config struct {
	Name         string
	ReadyTimeout time.Duration // max wait for index readiness
	PollInterval time.Duration
}

func NewManager(index domain.VectorIndex, embedder domain.Embedder, cfg Config) (*Manager, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: index name must not be empty", domain.ErrConfiguration)
	}
	if cfg.ReadyTimeout == 0 {
		cfg.ReadyTimeout = time.Minute
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Second
	}
	return &Manager{
		index:        index,
		embedder:     embedder,
		name:         cfg.Name,
		readyTimeout: cfg.ReadyTimeout,
		pollInterval: cfg.PollInterval,
	}, nil
}

// EnsureIndex is idempotent: it creates the index only if absent, then waits
// until the provider reports it ready.
func (m *Manager) EnsureIndex(ctx context.Context, dimension int, metric string) error {
	names, err := m.index.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: list indexes: %w", domain.ErrIndexProvisioning, err)
	}
	exists := false
	for _, n := range names {
		if n == m.name {
			exists = true
			break
		}
	}
	if !exists {
		if err := m.index.Create(ctx, m.name, dimension, metric); err != nil {
			return fmt.Errorf("%w: create index %q: %w", domain.ErrIndexProvisioning, m.name, err)
		}
	}
	return m.waitReady(ctx)
}

func (m *Manager) waitReady(ctx context.Context) error {
	deadline := time.Now().Add(m.readyTimeout)
	for {
		ready, err := m.index.Ready(ctx, m.name)
		if err != nil {
			return fmt.Errorf("%w: describe index %q: %w", domain.ErrIndexProvisioning, m.name, err)
		}
		if ready {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: index %q not ready after %s", domain.ErrIndexProvisioning, m.name, m.readyTimeout)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", domain.ErrIndexProvisioning, ctx.Err())
		case <-time.After(m.pollInterval):
		}
	}
}

// Ingest embeds and upserts chunks in batches of batchSize, sequentially and
// in order. A failure surfaces as *domain.IngestError naming the failed
// batch's chunk IDs; chunks in earlier batches stay upserted, and no retry
// happens here.
func (m *Manager) Ingest(ctx context.Context, chunks []domain.Chunk, batchSize int) error {
	if batchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", domain.ErrConfiguration, batchSize)
	}
	confirmed := 0
	for b := 0; confirmed < len(chunks); b++ {
		end := confirmed + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[confirmed:end]

		texts := make([]string, len(batch))
		for i, ch := range batch {
			texts[i] = ch.Content
		}
		vectors, err := m.embedder.EmbedMany(ctx, texts)
		if err != nil {
			return &domain.IngestError{Batch: b, ChunkIDs: chunkIDs(batch), Confirmed: confirmed, Err: err}
		}

		records := make([]domain.Record, len(batch))
		for i, ch := range batch {
			records[i] = domain.Record{ID: ch.ID, Vector: vectors[i], Chunk: ch}
		}
		if err := m.index.Upsert(ctx, m.name, records); err != nil {
			return &domain.IngestError{Batch: b, ChunkIDs: chunkIDs(batch), Confirmed: confirmed, Err: err}
		}
		confirmed = end
	}
	return nil
}

// DeleteIndex removes the index and everything in it. Irreversible.
func (m *Manager) DeleteIndex(ctx context.Context) error {
	if err := m.index.Delete(ctx, m.name); err != nil {
		return fmt.Errorf("%w: delete index %q: %w", domain.ErrIndexProvisioning, m.name, err)
	}
	return nil
}

func chunkIDs(chunks []domain.Chunk) []string {
	ids := make([]string, len(chunks))
	for i, ch := range chunks {
		ids[i] = ch.ID
	}
	return ids
}
