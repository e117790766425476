// Package service wires loading, chunking, indexing, and answering into the
// operations the commands and the TUI call.
package service

import (
	"context"
	"fmt"

	"docqa/internal/domain"
	"docqa/internal/index"
	"docqa/internal/pipeline"
)

// IngestStats summarizes one corpus indexing run.
type IngestStats struct {
	Documents int
	Chunks    int
}

type Service struct {
	loader    domain.Loader
	chunker   domain.Chunker
	manager   *index.Manager
	pipeline  *pipeline.Pipeline
	dimension int
	metric    string
	batchSize int
}

type Config struct {
	Dimension int
	Metric    string
	BatchSize int
}

func New(loader domain.Loader, chunker domain.Chunker, manager *index.Manager, p *pipeline.Pipeline, cfg Config) (*Service, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrConfiguration, cfg.Dimension)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", domain.ErrConfiguration, cfg.BatchSize)
	}
	return &Service{
		loader:    loader,
		chunker:   chunker,
		manager:   manager,
		pipeline:  p,
		dimension: cfg.Dimension,
		metric:    cfg.Metric,
		batchSize: cfg.BatchSize,
	}, nil
}

// IndexCorpus loads every document matching glob under dir, chunks it,
// provisions the index if needed, and ingests the chunks.
func (s *Service) IndexCorpus(ctx context.Context, dir, glob string) (IngestStats, error) {
	docs, err := s.loader.Load(dir, glob)
	if err != nil {
		return IngestStats{}, fmt.Errorf("load corpus: %w", err)
	}
	if len(docs) == 0 {
		return IngestStats{}, fmt.Errorf("no documents matching %q under %s", glob, dir)
	}
	chunks := s.chunker.Split(docs)
	if len(chunks) == 0 {
		return IngestStats{}, fmt.Errorf("corpus produced no chunks")
	}
	if err := s.manager.EnsureIndex(ctx, s.dimension, s.metric); err != nil {
		return IngestStats{}, err
	}
	if err := s.manager.Ingest(ctx, chunks, s.batchSize); err != nil {
		return IngestStats{}, err
	}
	return IngestStats{Documents: len(docs), Chunks: len(chunks)}, nil
}

// Ask runs the full retrieve-and-generate pipeline for one question.
func (s *Service) Ask(ctx context.Context, question string) (*domain.QueryResult, error) {
	return s.pipeline.Query(ctx, question)
}

// Stream answers one question as an incremental token stream.
func (s *Service) Stream(ctx context.Context, question string) (domain.AnswerStream, error) {
	return s.pipeline.StreamQuery(ctx, question)
}

// Wipe deletes the index and all stored vectors.
func (s *Service) Wipe(ctx context.Context) error {
	return s.manager.DeleteIndex(ctx)
}
