package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func TestNew(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		c, err := New(1000, 200)
		require.NoError(t, err)
		assert.NotNil(t, c)
	})

	t.Run("zero chunk size", func(t *testing.T) {
		_, err := New(0, 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("negative overlap", func(t *testing.T) {
		_, err := New(100, -1)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("overlap not smaller than size", func(t *testing.T) {
		_, err := New(100, 100)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})
}

func TestSplitSizeInvariant(t *testing.T) {
	c, err := New(50, 10)
	require.NoError(t, err)

	docs := []domain.Document{
		{
			Content:  strings.Repeat("alpha beta gamma delta epsilon zeta eta theta. ", 20),
			Metadata: domain.Metadata{Source: "a.txt"},
		},
		{
			Content:  "short",
			Metadata: domain.Metadata{Source: "b.txt"},
		},
	}

	chunks := c.Split(docs)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Content), 50,
			"chunk %s exceeds chunk size", ch.ID)
	}
}

func TestSplitOverlapInvariant(t *testing.T) {
	c, err := New(40, 8)
	require.NoError(t, err)

	doc := domain.Document{
		Content:  strings.Repeat("one two three four five six seven eight nine ten ", 10),
		Metadata: domain.Metadata{Source: "overlap.txt"},
	}

	chunks := c.Split([]domain.Document{doc})
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Content)
		tail := string(prev[len(prev)-8:])
		assert.True(t, strings.HasPrefix(chunks[i].Content, tail),
			"chunk %d does not start with the 8-char suffix of chunk %d", i, i-1)
	}
}

func TestSplitOrderAndMetadata(t *testing.T) {
	c, err := New(30, 5)
	require.NoError(t, err)

	docs := []domain.Document{
		{Content: strings.Repeat("first document words here ", 5), Metadata: domain.Metadata{Source: "first.txt"}},
		{Content: strings.Repeat("second document words here ", 5), Metadata: domain.Metadata{Source: "second.txt", Page: 3}},
	}

	chunks := c.Split(docs)
	require.NotEmpty(t, chunks)

	// Chunks from the first document come before any from the second.
	lastFirst, firstSecond := -1, len(chunks)
	for i, ch := range chunks {
		switch ch.Metadata.Source {
		case "first.txt":
			lastFirst = i
		case "second.txt":
			if i < firstSecond {
				firstSecond = i
			}
			assert.Equal(t, 3, ch.Metadata.Page)
		default:
			t.Fatalf("unexpected source %q", ch.Metadata.Source)
		}
	}
	assert.Less(t, lastFirst, firstSecond)

	// IDs carry the in-document ordinal.
	assert.True(t, strings.HasSuffix(chunks[0].ID, ":0"))
}

func TestSplitParagraphBoundariesPreferred(t *testing.T) {
	c, err := New(60, 0)
	require.NoError(t, err)

	content := "First paragraph fits in one chunk.\n\nSecond paragraph also fits fine."
	chunks := c.Split([]domain.Document{{Content: content, Metadata: domain.Metadata{Source: "p.txt"}}})

	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0].Content, "First paragraph")
	assert.Contains(t, chunks[1].Content, "Second paragraph")
}

func TestSplitHardFallback(t *testing.T) {
	c, err := New(20, 4)
	require.NoError(t, err)

	// A single 100-char token: no separator can make it fit.
	content := strings.Repeat("x", 100)
	chunks := c.Split([]domain.Document{{Content: content, Metadata: domain.Metadata{Source: "long.txt"}}})

	require.NotEmpty(t, chunks)
	total := 0
	for _, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Content), 20)
		total += utf8.RuneCountInString(ch.Content)
	}
	// Overlap means the chunks together carry at least the full source text.
	assert.GreaterOrEqual(t, total, 100)
}

func TestSplitEmptyDocument(t *testing.T) {
	c, err := New(100, 10)
	require.NoError(t, err)

	chunks := c.Split([]domain.Document{{Content: "   \n\n  ", Metadata: domain.Metadata{Source: "empty.txt"}}})
	assert.Empty(t, chunks)
}
