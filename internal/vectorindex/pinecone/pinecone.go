// Package pinecone is a minimal REST client for Pinecone serverless indexes,
// implementing the VectorIndex interface. Control-plane calls go to the
// global API host; data-plane calls go to the per-index host reported by
// describe. Chunk text travels in the vector metadata.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"docqa/internal/domain"
)

const controlPlaneURL = "https://api.pinecone.io"

type Client struct {
	controlURL string
	apiKey     string
	cloud      string
	region     string
	client     *http.Client

	mu    sync.Mutex
	hosts map[string]string // index name -> data plane host
}

// Config configures the Pinecone client. The API key is read from the
// environment variable named by APIKeyEnv.
type Config struct {
	APIKeyEnv  string
	Cloud      string // serverless placement, e.g. "aws"
	Region     string // e.g. "us-east-1"
	ControlURL string // override for tests
	Timeout    time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Cloud == "" {
		cfg.Cloud = "aws"
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.ControlURL == "" {
		cfg.ControlURL = controlPlaneURL
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	return &Client{
		controlURL: cfg.ControlURL,
		apiKey:     key,
		cloud:      cfg.Cloud,
		region:     cfg.Region,
		client:     &http.Client{Timeout: t},
		hosts:      make(map[string]string),
	}, nil
}

type indexModel struct {
	Name   string `json:"name"`
	Host   string `json:"host"`
	Status struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

func (c *Client) List(ctx context.Context) ([]string, error) {
	var out struct {
		Indexes []indexModel `json:"indexes"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.controlURL+"/indexes", nil, &out); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(out.Indexes))
	for _, idx := range out.Indexes {
		names = append(names, idx.Name)
		if idx.Host != "" {
			c.setHost(idx.Name, idx.Host)
		}
	}
	return names, nil
}

func (c *Client) Create(ctx context.Context, name string, dimension int, metric string) error {
	body := map[string]any{
		"name":      name,
		"dimension": dimension,
		"metric":    metric,
		"spec": map[string]any{
			"serverless": map[string]any{
				"cloud":  c.cloud,
				"region": c.region,
			},
		},
	}
	var created indexModel
	if err := c.doJSON(ctx, http.MethodPost, c.controlURL+"/indexes", body, &created); err != nil {
		return err
	}
	if created.Host != "" {
		c.setHost(name, created.Host)
	}
	return nil
}

func (c *Client) Ready(ctx context.Context, name string) (bool, error) {
	var idx indexModel
	if err := c.doJSON(ctx, http.MethodGet, c.controlURL+"/indexes/"+name, nil, &idx); err != nil {
		return false, err
	}
	if idx.Host != "" {
		c.setHost(name, idx.Host)
	}
	return idx.Status.Ready, nil
}

func (c *Client) Upsert(ctx context.Context, name string, records []domain.Record) error {
	host, err := c.dataHost(ctx, name)
	if err != nil {
		return err
	}
	vectors := make([]map[string]any, len(records))
	for i, r := range records {
		vectors[i] = map[string]any{
			"id":     r.ID,
			"values": r.Vector,
			"metadata": map[string]any{
				"source":  r.Chunk.Metadata.Source,
				"page":    r.Chunk.Metadata.Page,
				"content": r.Chunk.Content,
			},
		}
	}
	return c.doJSON(ctx, http.MethodPost, host+"/vectors/upsert", map[string]any{"vectors": vectors}, nil)
}

func (c *Client) Search(ctx context.Context, name string, vector []float32, k int, filter map[string]string) ([]domain.ScoredRecord, error) {
	host, err := c.dataHost(ctx, name)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"vector":          vector,
		"topK":            k,
		"includeMetadata": true,
	}
	if len(filter) > 0 {
		eq := make(map[string]any, len(filter))
		for field, value := range filter {
			eq[field] = map[string]any{"$eq": value}
		}
		body["filter"] = eq
	}
	var out struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float32        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if err := c.doJSON(ctx, http.MethodPost, host+"/query", body, &out); err != nil {
		return nil, err
	}

	results := make([]domain.ScoredRecord, 0, len(out.Matches))
	for _, m := range out.Matches {
		chunk := domain.Chunk{ID: m.ID}
		if v, ok := m.Metadata["content"].(string); ok {
			chunk.Content = v
		}
		if v, ok := m.Metadata["source"].(string); ok {
			chunk.Metadata.Source = v
		}
		if v, ok := m.Metadata["page"].(float64); ok {
			chunk.Metadata.Page = int(v)
		}
		results = append(results, domain.ScoredRecord{
			Record: domain.Record{ID: m.ID, Chunk: chunk},
			Score:  m.Score,
		})
	}
	return results, nil
}

func (c *Client) Delete(ctx context.Context, name string) error {
	if err := c.doJSON(ctx, http.MethodDelete, c.controlURL+"/indexes/"+name, nil, nil); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.hosts, name)
	c.mu.Unlock()
	return nil
}

// dataHost resolves the per-index data plane host, describing the index once
// and caching the result.
func (c *Client) dataHost(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	host, ok := c.hosts[name]
	c.mu.Unlock()
	if ok {
		return "https://" + host, nil
	}
	var idx indexModel
	if err := c.doJSON(ctx, http.MethodGet, c.controlURL+"/indexes/"+name, nil, &idx); err != nil {
		return "", err
	}
	if idx.Host == "" {
		return "", fmt.Errorf("index %q has no data plane host yet", name)
	}
	c.setHost(name, idx.Host)
	return "https://" + idx.Host, nil
}

func (c *Client) setHost(name, host string) {
	c.mu.Lock()
	c.hosts[name] = host
	c.mu.Unlock()
}

func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Api-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pinecone %s %s failed: %s: %s", method, url, resp.Status, string(payload))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
