package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding/hash"
	ollamaembed "docqa/internal/embedding/ollama"
	openaiembed "docqa/internal/embedding/openai"
	"docqa/internal/index"
	"docqa/internal/loader"
	"docqa/internal/service"
	"docqa/internal/vectorindex/memory"
	"docqa/internal/vectorindex/pgvector"
	"docqa/internal/vectorindex/pinecone"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, dir, glob string
	var wipe bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docqa/config.yaml if not provided)")
	flag.StringVar(&dir, "dir", "", "Directory containing the corpus")
	flag.StringVar(&glob, "glob", "", "Filename pattern to index (overrides config)")
	flag.BoolVar(&wipe, "wipe", false, "Delete the index and exit")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if glob == "" {
		glob = cfg.Ingest.Glob
	}

	ctx := context.Background()
	emb := buildEmbedder(cfg)
	idx := buildVectorIndex(ctx, cfg)

	mgr, err := index.NewManager(idx, emb, index.Config{
		Name:         cfg.Index.Name,
		ReadyTimeout: time.Duration(cfg.Index.ReadyTimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("index manager init failed: %v", err)
	}

	if wipe {
		if err := mgr.DeleteIndex(ctx); err != nil {
			log.Fatalf("wipe failed: %v", err)
		}
		fmt.Printf("Index %q deleted.\n", cfg.Index.Name)
		return
	}

	if dir == "" {
		fmt.Println("Usage: indexer [--config=config.yaml] --dir=./corpus [--glob='*.txt'] [--wipe]")
		os.Exit(1)
	}

	ch, err := chunker.New(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	if err != nil {
		log.Fatalf("chunker init failed: %v", err)
	}

	svc, err := service.New(loader.New(), ch, mgr, nil, service.Config{
		Dimension: cfg.Index.Dimension,
		Metric:    cfg.Index.Metric,
		BatchSize: cfg.Ingest.BatchSize,
	})
	if err != nil {
		log.Fatalf("service init failed: %v", err)
	}

	stats, err := svc.IndexCorpus(ctx, dir, glob)
	if err != nil {
		log.Fatalf("indexing failed: %v", err)
	}
	fmt.Printf("Indexed %d documents (%d chunks) into %q.\n", stats.Documents, stats.Chunks, cfg.Index.Name)
}

func buildEmbedder(cfg *config.AppConfig) domain.Embedder {
	switch cfg.Embedder.Type {
	case "hash", "":
		return hash.NewEmbedder(cfg.Index.Dimension)
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatalf("openai embedder config missing")
		}
		client, err := openaiembed.NewClient(openaiembed.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Dimension: cfg.Index.Dimension,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		return client
	case "ollama":
		if cfg.Embedder.Ollama == nil {
			log.Fatalf("ollama embedder config missing")
		}
		emb, err := ollamaembed.NewEmbedder(ollamaembed.Config{
			Host:      cfg.Embedder.Ollama.Host,
			Model:     cfg.Embedder.Ollama.Model,
			Dimension: cfg.Index.Dimension,
		})
		if err != nil {
			log.Fatalf("ollama embedder init failed: %v", err)
		}
		return emb
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
		return nil
	}
}

func buildVectorIndex(ctx context.Context, cfg *config.AppConfig) domain.VectorIndex {
	switch cfg.VectorIndex.Type {
	case "memory", "":
		return memory.NewIndex()
	case "pinecone":
		if cfg.VectorIndex.Pinecone == nil {
			log.Fatalf("pinecone config missing")
		}
		client, err := pinecone.NewClient(pinecone.Config{
			APIKeyEnv: cfg.VectorIndex.Pinecone.APIKeyEnv,
			Cloud:     cfg.VectorIndex.Pinecone.Cloud,
			Region:    cfg.VectorIndex.Pinecone.Region,
			Timeout:   time.Duration(cfg.VectorIndex.Pinecone.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("pinecone init failed: %v", err)
		}
		return client
	case "pgvector":
		if cfg.VectorIndex.PgVector == nil {
			log.Fatalf("pgvector config missing")
		}
		dsn := cfg.VectorIndex.PgVector.DSN
		if dsn == "" {
			dsn = os.Getenv(cfg.VectorIndex.PgVector.DSNEnv)
		}
		if dsn == "" {
			log.Fatalf("pgvector DSN missing (set dsn or %s)", cfg.VectorIndex.PgVector.DSNEnv)
		}
		idx, err := pgvector.New(ctx, dsn)
		if err != nil {
			log.Fatalf("pgvector init failed: %v", err)
		}
		return idx
	default:
		log.Fatalf("unknown vector index: %s", cfg.VectorIndex.Type)
		return nil
	}
}
