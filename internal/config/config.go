package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the InsightFlow query agent.
type Config struct {
	Port      int
	Version   string
	Memory    MemoryConfig
	Retrieval RetrievalConfig
	Generator GeneratorConfig
	Search    SearchConfig
	Telemetry TelemetryConfig
}

type MemoryConfig struct {
	Window      int
	AnswerCap   int
	SnapshotDir string // empty disables persistence
	MaxIdle     time.Duration
}

type RetrievalConfig struct {
	// Embedder is "local", "openai" or "ollama".
	Embedder        string
	EmbedModel      string
	EmbedDimensions int

	// Store is "embedded" or "pgvector".
	Store       string
	PgvectorURL string

	TopK            int
	SimilarityFloor float64
}

type GeneratorConfig struct {
	// Provider is "local", "openai" or "ollama".
	Provider       string
	Model          string
	OpenAIAPIKey   string
	OllamaEndpoint string
}

type SearchConfig struct {
	GoogleAPIKey   string
	GoogleEngineID string
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// Load reads configuration from environment variables with sensible
// defaults. The defaults run fully in-process: local embedder, embedded
// vector store, template generator.
func Load() *Config {
	return &Config{
		Port:    envInt("INSIGHTFLOW_PORT", 8080),
		Version: envStr("INSIGHTFLOW_VERSION", "0.2.0"),
		Memory: MemoryConfig{
			Window:      envInt("INSIGHTFLOW_MEMORY_WINDOW", 20),
			AnswerCap:   envInt("INSIGHTFLOW_MEMORY_ANSWER_CAP", 1200),
			SnapshotDir: envStr("INSIGHTFLOW_MEMORY_SNAPSHOT_DIR", ""),
			MaxIdle:     envDuration("INSIGHTFLOW_MEMORY_MAX_IDLE", 24*time.Hour),
		},
		Retrieval: RetrievalConfig{
			Embedder:        envStr("INSIGHTFLOW_EMBEDDER", "local"),
			EmbedModel:      envStr("INSIGHTFLOW_EMBED_MODEL", "nomic-embed-text"),
			EmbedDimensions: envInt("INSIGHTFLOW_EMBED_DIMENSIONS", 256),
			Store:           envStr("INSIGHTFLOW_VECTOR_STORE", "embedded"),
			PgvectorURL:     envStr("INSIGHTFLOW_PGVECTOR_URL", ""),
			TopK:            envInt("INSIGHTFLOW_RETRIEVAL_TOP_K", 3),
			SimilarityFloor: envFloat("INSIGHTFLOW_SIMILARITY_FLOOR", 0.7),
		},
		Generator: GeneratorConfig{
			Provider:       envStr("INSIGHTFLOW_GENERATOR", "local"),
			Model:          envStr("INSIGHTFLOW_GENERATOR_MODEL", "gpt-4o-mini"),
			OpenAIAPIKey:   envStr("OPENAI_API_KEY", ""),
			OllamaEndpoint: envStr("OLLAMA_ENDPOINT", ""),
		},
		Search: SearchConfig{
			GoogleAPIKey:   envStr("GOOGLE_CSE_API_KEY", ""),
			GoogleEngineID: envStr("GOOGLE_CSE_ID", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "insightflow-agent"),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
