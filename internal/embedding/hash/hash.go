// Package hash provides a deterministic local embedder: token frequencies
// hashed into a fixed-dimension vector and L2-normalized. It needs no
// external service, which makes it the embedder for offline runs and tests;
// identical texts always map to identical vectors with cosine similarity 1.
package hash

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

type Embedder struct {
	dimension int
}

func NewEmbedder(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = 256
	}
	return &Embedder{dimension: dimension}
}

func (e *Embedder) Model() string { return "hash" }

func (e *Embedder) Dimension() int { return e.dimension }

func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimension)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, tok := range tokens {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%uint32(e.dimension)]++
	}
	normalize(vec)
	return vec, nil
}

func (e *Embedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
