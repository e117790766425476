package hash

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedder(t *testing.T) {
	e := NewEmbedder(64)
	ctx := context.Background()

	t.Run("deterministic", func(t *testing.T) {
		a, err := e.Embed(ctx, "OAuth2 bearer tokens secure the API")
		require.NoError(t, err)
		b, err := e.Embed(ctx, "OAuth2 bearer tokens secure the API")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("fixed dimension and unit norm", func(t *testing.T) {
		v, err := e.Embed(ctx, "rate limiting is enforced per key")
		require.NoError(t, err)
		require.Len(t, v, 64)

		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, sum, 1e-6)
	})

	t.Run("identical text scores highest", func(t *testing.T) {
		q, err := e.Embed(ctx, "the api uses oauth2 bearer tokens")
		require.NoError(t, err)
		same, err := e.Embed(ctx, "the api uses oauth2 bearer tokens")
		require.NoError(t, err)
		other, err := e.Embed(ctx, "database backups run nightly at two")
		require.NoError(t, err)

		assert.Greater(t, dot(q, same), dot(q, other))
		assert.InDelta(t, 1.0, dot(q, same), 1e-6)
	})

	t.Run("empty text yields zero vector", func(t *testing.T) {
		v, err := e.Embed(ctx, "")
		require.NoError(t, err)
		for _, x := range v {
			assert.Zero(t, x)
		}
	})

	t.Run("embed many preserves order", func(t *testing.T) {
		vs, err := e.EmbedMany(ctx, []string{"first text", "second text"})
		require.NoError(t, err)
		require.Len(t, vs, 2)
		single, err := e.Embed(ctx, "first text")
		require.NoError(t, err)
		assert.Equal(t, single, vs[0])
	})
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return math.Round(sum*1e9) / 1e9
}
