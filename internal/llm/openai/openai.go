// Package openai implements the Generator interface against an
// OpenAI-compatible chat completions endpoint, including SSE streaming.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"docqa/internal/domain"
	"docqa/internal/llm"
)

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	// Streaming responses can outlive any fixed timeout, so the stream
	// client has none; cancellation comes from the request context.
	streamClient *http.Client
}

type Config struct {
	BaseURL   string
	APIKeyEnv string
	Timeout   time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 120 * time.Second
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		apiKey:       key,
		client:       &http.Client{Timeout: t},
		streamClient: &http.Client{},
	}, nil
}

func (c *Client) Generate(ctx context.Context, prompt string, opts domain.GenOptions) (string, error) {
	resp, err := c.post(ctx, c.client, requestBody(prompt, opts, false))
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	defer resp.Body.Close()

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode completion: %w", domain.ErrGeneration, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion returned", domain.ErrGeneration)
	}
	return out.Choices[0].Message.Content, nil
}

func (c *Client) GenerateStream(ctx context.Context, prompt string, opts domain.GenOptions) (domain.AnswerStream, error) {
	stream := llm.Run(ctx, func(ctx context.Context, emit func(string) error) error {
		resp, err := c.post(ctx, c.streamClient, requestBody(prompt, opts, true))
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrGeneration, err)
		}
		defer resp.Body.Close()
		if err := readSSE(resp.Body, emit); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrGeneration, err)
		}
		return nil
	})
	return stream, nil
}

func requestBody(prompt string, opts domain.GenOptions, stream bool) map[string]any {
	return map[string]any{
		"model":       opts.Model,
		"messages":    []map[string]string{{"role": "user", "content": prompt}},
		"temperature": opts.Temperature,
		"max_tokens":  opts.MaxTokens,
		"stream":      stream,
	}
}

func (c *Client) post(ctx context.Context, client *http.Client, body map[string]any) (*http.Response, error) {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("chat completion failed: %s: %s", resp.Status, string(payload))
	}
	return resp, nil
}

// readSSE scans "data:" lines until the [DONE] sentinel, emitting each
// non-empty content delta.
func readSSE(body io.Reader, emit func(string) error) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			return nil
		}
		var event struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			return fmt.Errorf("decode stream event: %w", err)
		}
		if len(event.Choices) == 0 || event.Choices[0].Delta.Content == "" {
			continue
		}
		if err := emit(event.Choices[0].Delta.Content); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}
