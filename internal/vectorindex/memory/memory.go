// Package memory is an in-process vector index using brute-force similarity.
// It backs offline runs and tests; no persistence.
package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"docqa/internal/domain"
)

type collection struct {
	dimension int
	metric    string
	records   map[string]domain.Record
	order     []string // insertion order, for deterministic ties
}

// Index holds named collections guarded by a single lock. Reads and writes
// from independent callers are safe; administrative calls take the write lock.
type Index struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

func NewIndex() *Index {
	return &Index{collections: make(map[string]*collection)}
}

func (x *Index) List(_ context.Context) ([]string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	names := make([]string, 0, len(x.collections))
	for name := range x.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (x *Index) Create(_ context.Context, name string, dimension int, metric string) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	switch metric {
	case "cosine", "euclidean", "dotproduct":
	default:
		return fmt.Errorf("unsupported metric %q", metric)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.collections[name]; ok {
		return fmt.Errorf("index %q already exists", name)
	}
	x.collections[name] = &collection{
		dimension: dimension,
		metric:    metric,
		records:   make(map[string]domain.Record),
	}
	return nil
}

func (x *Index) Ready(_ context.Context, name string) (bool, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.collections[name]
	return ok, nil
}

func (x *Index) Upsert(_ context.Context, name string, records []domain.Record) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	col, ok := x.collections[name]
	if !ok {
		return fmt.Errorf("index %q does not exist", name)
	}
	for _, r := range records {
		if len(r.Vector) != col.dimension {
			return errors.New("vector dimension mismatch")
		}
		if _, exists := col.records[r.ID]; !exists {
			col.order = append(col.order, r.ID)
		}
		col.records[r.ID] = r
	}
	return nil
}

func (x *Index) Search(_ context.Context, name string, vector []float32, k int, filter map[string]string) ([]domain.ScoredRecord, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	col, ok := x.collections[name]
	if !ok {
		return nil, fmt.Errorf("index %q does not exist", name)
	}
	if k <= 0 {
		return nil, nil
	}

	scored := make([]domain.ScoredRecord, 0, len(col.order))
	for _, id := range col.order {
		r := col.records[id]
		if src, ok := filter["source"]; ok && r.Chunk.Metadata.Source != src {
			continue
		}
		scored = append(scored, domain.ScoredRecord{Record: r, Score: score(col.metric, vector, r.Vector)})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

func (x *Index) Delete(_ context.Context, name string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.collections, name)
	return nil
}

func score(metric string, a, b []float32) float32 {
	switch metric {
	case "euclidean":
		// Negated distance so that higher is always better.
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return float32(-math.Sqrt(sum))
	case "dotproduct":
		return dot(a, b)
	default: // cosine
		na, nb := norm(a), norm(b)
		if na == 0 || nb == 0 {
			return 0
		}
		return dot(a, b) / (na * nb)
	}
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sum))
}
