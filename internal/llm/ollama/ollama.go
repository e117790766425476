// Package ollama implements the Generator interface on a local Ollama server
// through the official API client. The client's callback-per-token interface
// is bridged to the pull-style AnswerStream.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"docqa/internal/domain"
	"docqa/internal/llm"
)

type Generator struct {
	client *api.Client
}

type Config struct {
	Host string // e.g. http://localhost:11434
}

func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.Host == "" {
		cfg.Host = "http://localhost:11434"
	}
	u, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host: %w", err)
	}
	return &Generator{client: api.NewClient(u, http.DefaultClient)}, nil
}

func (g *Generator) Generate(ctx context.Context, prompt string, opts domain.GenOptions) (string, error) {
	var b strings.Builder
	err := g.client.Generate(ctx, request(prompt, opts), func(resp api.GenerateResponse) error {
		_, err := b.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	return b.String(), nil
}

func (g *Generator) GenerateStream(ctx context.Context, prompt string, opts domain.GenOptions) (domain.AnswerStream, error) {
	stream := llm.Run(ctx, func(ctx context.Context, emit func(string) error) error {
		err := g.client.Generate(ctx, request(prompt, opts), func(resp api.GenerateResponse) error {
			if resp.Response == "" {
				return nil
			}
			return emit(resp.Response)
		})
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrGeneration, err)
		}
		return nil
	})
	return stream, nil
}

func request(prompt string, opts domain.GenOptions) *api.GenerateRequest {
	return &api.GenerateRequest{
		Model:  opts.Model,
		Prompt: prompt,
		Options: map[string]any{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
		},
	}
}
