// Package pipeline composes retrieval, prompt construction, and generation
// into a question/answer pipeline.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docqa/internal/domain"
)

// Searcher is the retrieval capability the pipeline depends on.
type Searcher interface {
	Search(ctx context.Context, query string, k int, filter map[string]string) ([]domain.RetrievedDocument, error)
}

// Pipeline is immutable after construction: the mode (model, retrieval
// breadth, template) is fixed for its lifetime, so concurrent queries need no
// coordination.
type Pipeline struct {
	retriever Searcher
	generator domain.Generator
	mode      domain.Mode
}

func New(retriever Searcher, generator domain.Generator, mode domain.Mode) (*Pipeline, error) {
	if mode.TopK <= 0 {
		return nil, fmt.Errorf("%w: mode %q has non-positive retrieval k", domain.ErrConfiguration, mode.Name)
	}
	if mode.Template == "" {
		return nil, fmt.Errorf("%w: mode %q has no prompt template", domain.ErrConfiguration, mode.Name)
	}
	if mode.Model == "" {
		return nil, fmt.Errorf("%w: mode %q has no generation model", domain.ErrConfiguration, mode.Name)
	}
	return &Pipeline{retriever: retriever, generator: generator, mode: mode}, nil
}

func (p *Pipeline) Mode() domain.Mode { return p.mode }

// FormatContext renders documents as numbered source-attributed blocks in
// retrieval order. Presentation rank equals retrieval rank on purpose:
// generation quality is sensitive to evidence position, and keeping the two
// aligned makes answers reproducible.
func (p *Pipeline) FormatContext(documents []domain.RetrievedDocument) string {
	var b strings.Builder
	for i, doc := range documents {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Document %d (Source: %s):\n%s", i+1, doc.Metadata.Source, strings.TrimSpace(doc.Content))
	}
	return b.String()
}

// BuildPrompt substitutes the context and question into the mode's template.
func (p *Pipeline) BuildPrompt(question, context string) string {
	prompt := strings.ReplaceAll(p.mode.Template, "{{context}}", context)
	return strings.ReplaceAll(prompt, "{{question}}", question)
}

// Query runs a single retrieval pass, builds the prompt, and generates a
// complete answer, measuring wall-clock latency over the whole cycle. A
// retrieval failure aborts before any generation call.
func (p *Pipeline) Query(ctx context.Context, question string) (*domain.QueryResult, error) {
	start := time.Now()
	documents, err := p.retriever.Search(ctx, question, p.mode.TopK, nil)
	if err != nil {
		return nil, err
	}
	prompt := p.BuildPrompt(question, p.FormatContext(documents))
	answer, err := p.generator.Generate(ctx, prompt, p.genOptions())
	if err != nil {
		return nil, err
	}
	return &domain.QueryResult{
		Answer:    answer,
		Latency:   time.Since(start),
		Documents: documents,
	}, nil
}

// StreamQuery performs the same retrieval and prompt construction as Query
// but yields the answer incrementally. No latency is recorded; a mid-stream
// failure surfaces from the stream's Recv, and fragments already delivered
// stand.
func (p *Pipeline) StreamQuery(ctx context.Context, question string) (domain.AnswerStream, error) {
	documents, err := p.retriever.Search(ctx, question, p.mode.TopK, nil)
	if err != nil {
		return nil, err
	}
	prompt := p.BuildPrompt(question, p.FormatContext(documents))
	return p.generator.GenerateStream(ctx, prompt, p.genOptions())
}

func (p *Pipeline) genOptions() domain.GenOptions {
	return domain.GenOptions{
		Model:       p.mode.Model,
		Temperature: p.mode.Temperature,
		MaxTokens:   p.mode.MaxTokens,
	}
}
