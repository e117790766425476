// Package pgvector implements the VectorIndex interface on Postgres with the
// pgvector extension. Each index is a table named docqa_<index>; similarity
// search orders by the pgvector distance operator for the index's metric.
package pgvector

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"docqa/internal/domain"
)

const tablePrefix = "docqa_"

var nameRe = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

type Index struct {
	pool *pgxpool.Pool

	mu      sync.RWMutex
	metrics map[string]string // index name -> metric, set by Create
}

func New(ctx context.Context, dsn string) (*Index, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Index{pool: pool, metrics: make(map[string]string)}, nil
}

func (x *Index) Close() { x.pool.Close() }

func (x *Index) List(ctx context.Context) ([]string, error) {
	rows, err := x.pool.Query(ctx, `
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public' AND tablename LIKE $1
	`, tablePrefix+"%")
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return nil, err
		}
		names = append(names, strings.ReplaceAll(strings.TrimPrefix(table, tablePrefix), "_", "-"))
	}
	return names, rows.Err()
}

func (x *Index) Create(ctx context.Context, name string, dimension int, metric string) error {
	table, err := tableName(name)
	if err != nil {
		return err
	}
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	if _, err := distanceOperator(metric); err != nil {
		return err
	}

	if _, err := x.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("enable vector extension: %w", err)
	}
	_, err = x.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE %s (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			page INTEGER NOT NULL DEFAULT 0,
			content TEXT NOT NULL,
			metric TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)
	`, table, dimension))
	if err != nil {
		return fmt.Errorf("create index table: %w", err)
	}
	_, err = x.pool.Exec(ctx, fmt.Sprintf(`
		CREATE INDEX %s_embedding_idx ON %s
		USING ivfflat (embedding %s) WITH (lists = 100)
	`, table, table, opClass(metric)))
	if err != nil {
		return fmt.Errorf("create vector index: %w", err)
	}
	x.storeMetric(name, metric)
	return nil
}

// Ready reports whether the index table exists. Table creation is
// synchronous, so an existing table is always ready.
func (x *Index) Ready(ctx context.Context, name string) (bool, error) {
	table, err := tableName(name)
	if err != nil {
		return false, err
	}
	var exists bool
	err = x.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM pg_tables WHERE schemaname = 'public' AND tablename = $1
	)`, table).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("describe index: %w", err)
	}
	return exists, nil
}

func (x *Index) Upsert(ctx context.Context, name string, records []domain.Record) error {
	table, err := tableName(name)
	if err != nil {
		return err
	}
	metric, err := x.metric(ctx, name)
	if err != nil {
		return err
	}
	for _, r := range records {
		_, err := x.pool.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (id, source, page, content, metric, embedding)
			VALUES ($1, $2, $3, $4, $5, $6::vector)
			ON CONFLICT (id) DO UPDATE
			SET source = EXCLUDED.source, page = EXCLUDED.page,
			    content = EXCLUDED.content, embedding = EXCLUDED.embedding
		`, table),
			r.ID, r.Chunk.Metadata.Source, r.Chunk.Metadata.Page,
			r.Chunk.Content, metric, vectorLiteral(r.Vector))
		if err != nil {
			return fmt.Errorf("upsert record %s: %w", r.ID, err)
		}
	}
	return nil
}

func (x *Index) Search(ctx context.Context, name string, vector []float32, k int, filter map[string]string) ([]domain.ScoredRecord, error) {
	table, err := tableName(name)
	if err != nil {
		return nil, err
	}
	metric, err := x.metric(ctx, name)
	if err != nil {
		return nil, err
	}
	op, err := distanceOperator(metric)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, source, page, content, embedding %s $1::vector AS distance
		FROM %s
	`, op, table)
	args := []any{vectorLiteral(vector)}
	if src, ok := filter["source"]; ok {
		query += ` WHERE source = $2`
		args = append(args, src)
	}
	query += fmt.Sprintf(` ORDER BY distance LIMIT %d`, k)

	rows, err := x.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var results []domain.ScoredRecord
	for rows.Next() {
		var (
			chunk    domain.Chunk
			distance float64
		)
		if err := rows.Scan(&chunk.ID, &chunk.Metadata.Source, &chunk.Metadata.Page, &chunk.Content, &distance); err != nil {
			return nil, err
		}
		results = append(results, domain.ScoredRecord{
			Record: domain.Record{ID: chunk.ID, Chunk: chunk},
			Score:  similarity(metric, distance),
		})
	}
	return results, rows.Err()
}

func (x *Index) Delete(ctx context.Context, name string) error {
	table, err := tableName(name)
	if err != nil {
		return err
	}
	if _, err := x.pool.Exec(ctx, `DROP TABLE IF EXISTS `+table); err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	x.mu.Lock()
	delete(x.metrics, name)
	x.mu.Unlock()
	return nil
}

// metric returns the index's metric, reading it back from the table when
// this process did not create the index. An index whose metric cannot be
// read back (missing or empty table) is unusable until re-created.
func (x *Index) metric(ctx context.Context, name string) (string, error) {
	if m, ok := x.cachedMetric(name); ok {
		return m, nil
	}
	table, err := tableName(name)
	if err != nil {
		return "", err
	}
	var m string
	if err := x.pool.QueryRow(ctx, `SELECT metric FROM `+table+` LIMIT 1`).Scan(&m); err != nil {
		return "", fmt.Errorf("determine metric for index %q: %w", name, err)
	}
	x.storeMetric(name, m)
	return m, nil
}

func (x *Index) cachedMetric(name string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	m, ok := x.metrics[name]
	return m, ok
}

func (x *Index) storeMetric(name, metric string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.metrics[name] = metric
}

func tableName(name string) (string, error) {
	if !nameRe.MatchString(name) {
		return "", fmt.Errorf("invalid index name %q", name)
	}
	return tablePrefix + strings.ReplaceAll(name, "-", "_"), nil
}

func distanceOperator(metric string) (string, error) {
	switch metric {
	case "cosine":
		return "<=>", nil
	case "euclidean":
		return "<->", nil
	case "dotproduct":
		return "<#>", nil
	default:
		return "", fmt.Errorf("unsupported metric %q", metric)
	}
}

func opClass(metric string) string {
	switch metric {
	case "euclidean":
		return "vector_l2_ops"
	case "dotproduct":
		return "vector_ip_ops"
	default:
		return "vector_cosine_ops"
	}
}

// similarity converts pgvector distances to a higher-is-better score.
func similarity(metric string, distance float64) float32 {
	switch metric {
	case "cosine":
		return float32(1 - distance)
	case "dotproduct":
		// <#> returns the negated inner product.
		return float32(-distance)
	default:
		return float32(-distance)
	}
}

func vectorLiteral(vector []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
