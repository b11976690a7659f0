// Package server is the public entry point for assembling the
// InsightFlow query agent: configuration, drivers, pipeline stages and
// the HTTP router, wired and ready to serve.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/adarshp14/AgentInsights/internal/agent"
	"github.com/adarshp14/AgentInsights/internal/api"
	"github.com/adarshp14/AgentInsights/internal/api/handlers"
	"github.com/adarshp14/AgentInsights/internal/classifier"
	"github.com/adarshp14/AgentInsights/internal/config"
	"github.com/adarshp14/AgentInsights/internal/embeddings"
	"github.com/adarshp14/AgentInsights/internal/generator"
	"github.com/adarshp14/AgentInsights/internal/memory"
	"github.com/adarshp14/AgentInsights/internal/retriever"
	"github.com/adarshp14/AgentInsights/internal/telemetry"
	"github.com/adarshp14/AgentInsights/internal/tools"
	"github.com/adarshp14/AgentInsights/internal/vectorstore"
	"github.com/adarshp14/AgentInsights/pkg/contracts"
)

// Server holds the initialized query agent.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Memory is exposed so main can flush the snapshot on shutdown.
	Memory *memory.Store

	// Port is the port the server should listen on.
	Port int

	// MemoryMaxIdle is how long a conversation may sit untouched
	// before the prune loop evicts it.
	MemoryMaxIdle time.Duration

	// ShutdownFunc flushes telemetry on graceful shutdown.
	ShutdownFunc func(context.Context) error
}

// New initializes the agent from environment configuration.
func New(ctx context.Context) (*Server, error) {
	return NewWithConfig(ctx, config.Load())
}

// NewWithConfig initializes the agent with an explicit configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	shutdown, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	// Conversation memory.
	memOpts := []memory.Option{
		memory.WithWindow(cfg.Memory.Window),
		memory.WithAnswerCap(cfg.Memory.AnswerCap),
	}
	if cfg.Memory.SnapshotDir != "" {
		memOpts = append(memOpts, memory.WithSnapshotDir(cfg.Memory.SnapshotDir))
	}
	mem := memory.New(memOpts...)

	// Embedding driver.
	embReg := embeddings.NewRegistry()
	var embedder contracts.EmbeddingDriver
	switch cfg.Retrieval.Embedder {
	case "openai":
		embedder = embeddings.NewOpenAIDriver(cfg.Generator.OpenAIAPIKey, cfg.Retrieval.EmbedModel)
	case "ollama":
		embedder = embeddings.NewOllamaDriver(cfg.Generator.OllamaEndpoint, cfg.Retrieval.EmbedModel)
	default:
		embedder = embeddings.NewLocalDriver(cfg.Retrieval.EmbedDimensions)
	}
	embReg.Register(cfg.Retrieval.Embedder, embedder)

	// Vector store driver.
	vecReg := vectorstore.NewRegistry()
	var store contracts.VectorStoreDriver
	if cfg.Retrieval.Store == "pgvector" && cfg.Retrieval.PgvectorURL != "" {
		pg, err := vectorstore.NewPgvectorStore(ctx, cfg.Retrieval.PgvectorURL, embedder.Dimensions())
		if err != nil {
			return nil, fmt.Errorf("init pgvector: %w", err)
		}
		store = pg
	} else {
		store = vectorstore.NewEmbeddedStore()
	}
	vecReg.Register(store.Kind(), store)

	ret := retriever.New(embedder, store,
		retriever.WithTopK(cfg.Retrieval.TopK),
		retriever.WithSimilarityFloor(cfg.Retrieval.SimilarityFloor),
	)

	// Tools.
	registry := tools.NewDefaultRegistry(&tools.WebSearchConfig{
		APIKey:   cfg.Search.GoogleAPIKey,
		EngineID: cfg.Search.GoogleEngineID,
	})

	// Generator.
	var gen contracts.GeneratorService
	switch cfg.Generator.Provider {
	case "openai":
		gen = generator.New(generator.NewOpenAIDriver(cfg.Generator.OpenAIAPIKey, cfg.Generator.Model))
	case "ollama":
		gen = generator.New(generator.NewOllamaDriver(cfg.Generator.OllamaEndpoint, cfg.Generator.Model))
	default:
		gen = generator.NewLocal()
	}

	orch := agent.New(classifier.New(), mem, ret, registry, gen)

	log.Info().
		Str("embedder", embedder.Kind()).
		Str("vector_store", store.Kind()).
		Str("generator", cfg.Generator.Provider).
		Msg("Pipeline initialized")

	h := &handlers.Handlers{
		Orchestrator: orch,
		Memory:       mem,
		Tools:        registry,
		Retriever:    ret,
		Embeddings:   embReg,
		Vectors:      vecReg,
		Version:      cfg.Version,
	}

	return &Server{
		Handler:       api.NewRouter(h),
		Memory:        mem,
		Port:          cfg.Port,
		MemoryMaxIdle: cfg.Memory.MaxIdle,
		ShutdownFunc:  shutdown,
	}, nil
}
