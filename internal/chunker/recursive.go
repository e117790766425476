package chunker

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"docqa/internal/domain"
)

// separators are tried coarsest first; the empty string means a hard
// character-level slice when nothing else produces a small enough piece.
var separators = []string{"\n\n", "\n", " ", ""}

// RecursiveChunker splits documents on a prioritized separator list and
// merges the pieces back into chunks of at most chunkSize characters, carrying
// the last chunkOverlap characters of each chunk into the next one so that
// retrieval context is not severed at a chunk boundary.
type RecursiveChunker struct {
	chunkSize    int
	chunkOverlap int
}

// New validates the chunking parameters. Overlap must be strictly smaller
// than the chunk size.
func New(chunkSize, chunkOverlap int) (*RecursiveChunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrConfiguration, chunkSize)
	}
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", domain.ErrConfiguration, chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d", domain.ErrConfiguration, chunkOverlap, chunkSize)
	}
	return &RecursiveChunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// Split is a pure transformation: output order matches input document order,
// then in-document chunk order; source metadata is propagated verbatim.
func (c *RecursiveChunker) Split(documents []domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	for _, doc := range documents {
		pieces := c.splitText(doc.Content, separators)
		src := hashSource(doc.Metadata.Source)
		for i, text := range c.merge(pieces) {
			chunks = append(chunks, domain.Chunk{
				ID:       src + ":" + strconv.Itoa(i),
				Content:  text,
				Metadata: doc.Metadata,
			})
		}
	}
	return chunks
}

// splitText recursively breaks text into pieces no longer than chunkSize.
// Separators are retained at the end of each piece so concatenating the
// pieces reproduces the source text.
func (c *RecursiveChunker) splitText(text string, seps []string) []string {
	if utf8.RuneCountInString(text) <= c.chunkSize {
		return []string{text}
	}
	sep, rest := seps[0], seps[1:]
	if sep == "" {
		return c.hardSlice(text)
	}
	var pieces []string
	for _, part := range strings.SplitAfter(text, sep) {
		if part == "" {
			continue
		}
		if utf8.RuneCountInString(part) <= c.chunkSize {
			pieces = append(pieces, part)
		} else {
			pieces = append(pieces, c.splitText(part, rest)...)
		}
	}
	return pieces
}

// hardSlice is the terminal fallback when no separator fits: character
// windows stepped so that the standard overlap still applies during merge.
func (c *RecursiveChunker) hardSlice(text string) []string {
	step := c.chunkSize - c.chunkOverlap
	runes := []rune(text)
	var pieces []string
	for i := 0; i < len(runes); i += step {
		end := i + step
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[i:end]))
	}
	return pieces
}

// merge packs pieces into chunks targeting chunkSize. On each boundary the
// suffix of the finished chunk (chunkOverlap characters) seeds the next chunk
// unless that would push it past chunkSize.
func (c *RecursiveChunker) merge(pieces []string) []string {
	var chunks []string
	var cur string
	for _, p := range pieces {
		if cur != "" && utf8.RuneCountInString(cur)+utf8.RuneCountInString(p) > c.chunkSize {
			if strings.TrimSpace(cur) != "" {
				chunks = append(chunks, cur)
			}
			tail := tailRunes(cur, c.chunkOverlap)
			if utf8.RuneCountInString(tail)+utf8.RuneCountInString(p) <= c.chunkSize {
				cur = tail
			} else {
				cur = ""
			}
		}
		cur += p
	}
	if strings.TrimSpace(cur) != "" {
		chunks = append(chunks, cur)
	}
	return chunks
}

func tailRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

func hashSource(source string) string {
	h := sha1.Sum([]byte(source))
	return hex.EncodeToString(h[:8])
}
