package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding/hash"
	ollamaembed "docqa/internal/embedding/ollama"
	openaiembed "docqa/internal/embedding/openai"
	"docqa/internal/index"
	ollamagen "docqa/internal/llm/ollama"
	openaigen "docqa/internal/llm/openai"
	"docqa/internal/loader"
	"docqa/internal/pipeline"
	"docqa/internal/retriever"
	"docqa/internal/service"
	"docqa/internal/tui"
	"docqa/internal/vectorindex/memory"
	"docqa/internal/vectorindex/pgvector"
	"docqa/internal/vectorindex/pinecone"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, modeName, question, dir string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docqa/config.yaml if not provided)")
	flag.StringVar(&modeName, "mode", "", "Execution mode: standard or fast (overrides config)")
	flag.StringVar(&question, "question", "", "Ask one question and exit instead of starting the TUI")
	flag.StringVar(&dir, "dir", "", "Index this directory before answering (needed for the in-memory index)")
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
	if modeName == "" {
		modeName = cfg.Mode.Name
	}

	var mode domain.Mode
	switch modeName {
	case domain.ModeStandard, "":
		mode = domain.StandardMode(cfg.Mode.Model)
	case domain.ModeFast:
		mode = domain.FastMode(cfg.Mode.Model)
	default:
		log.Fatalf("unknown mode: %s", modeName)
	}

	ctx := context.Background()
	emb := buildEmbedder(cfg)
	idx := buildVectorIndex(ctx, cfg)
	gen := buildGenerator(cfg)

	mgr, err := index.NewManager(idx, emb, index.Config{
		Name:         cfg.Index.Name,
		ReadyTimeout: time.Duration(cfg.Index.ReadyTimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("index manager init failed: %v", err)
	}

	p, err := pipeline.New(retriever.New(idx, emb, cfg.Index.Name), gen, mode)
	if err != nil {
		log.Fatalf("pipeline init failed: %v", err)
	}

	ch, err := chunker.New(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	if err != nil {
		log.Fatalf("chunker init failed: %v", err)
	}

	svc, err := service.New(loader.New(), ch, mgr, p, service.Config{
		Dimension: cfg.Index.Dimension,
		Metric:    cfg.Index.Metric,
		BatchSize: cfg.Ingest.BatchSize,
	})
	if err != nil {
		log.Fatalf("service init failed: %v", err)
	}

	if dir != "" {
		stats, err := svc.IndexCorpus(ctx, dir, cfg.Ingest.Glob)
		if err != nil {
			log.Fatalf("indexing failed: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Indexed %d documents (%d chunks).\n", stats.Documents, stats.Chunks)
	}

	if question != "" {
		askOnce(ctx, svc, question)
		return
	}

	m := tui.New(svc, mode.Name)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}

// askOnce streams one answer to stdout.
func askOnce(ctx context.Context, svc *service.Service, question string) {
	stream, err := svc.Stream(ctx, question)
	if err != nil {
		log.Fatalf("query failed: %v", err)
	}
	defer stream.Close()
	for {
		fragment, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Println()
			log.Fatalf("generation failed: %v", err)
		}
		fmt.Print(fragment)
	}
	fmt.Println()
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

func buildGenerator(cfg *config.AppConfig) domain.Generator {
	switch cfg.Generator.Type {
	case "openai", "":
		if cfg.Generator.OpenAI == nil {
			log.Fatalf("openai generator config missing")
		}
		client, err := openaigen.NewClient(openaigen.Config{
			BaseURL:   cfg.Generator.OpenAI.BaseURL,
			APIKeyEnv: cfg.Generator.OpenAI.APIKeyEnv,
			Timeout:   time.Duration(cfg.Generator.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai generator init failed: %v", err)
		}
		return client
	case "ollama":
		if cfg.Generator.Ollama == nil {
			log.Fatalf("ollama generator config missing")
		}
		gen, err := ollamagen.NewGenerator(ollamagen.Config{Host: cfg.Generator.Ollama.Host})
		if err != nil {
			log.Fatalf("ollama generator init failed: %v", err)
		}
		return gen
	default:
		log.Fatalf("unknown generator: %s", cfg.Generator.Type)
		return nil
	}
}
