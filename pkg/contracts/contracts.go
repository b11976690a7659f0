// Package contracts defines the service interfaces the query agent is
// composed from. The orchestrator depends only on these interfaces, so
// each collaborator can be swapped in the wiring code (pkg/server) or
// replaced with a fake in tests.
package contracts

import (
	"context"

	"github.com/adarshp14/AgentInsights/pkg/models"
)

// ── Memory Service ───────────────────────────────────────────

// MemoryService is the keyed conversation history. It is the only
// mutable state shared across requests besides the vector index.
// Appends on the same key are serialized by the implementation;
// different keys never block each other.
type MemoryService interface {
	// Recent returns up to limit most recent turns, oldest first.
	Recent(conversationKey string, limit int) []models.Turn

	// Append records a completed exchange, truncating the answer to the
	// store's cap and evicting the oldest turn past the window.
	Append(conversationKey string, turn models.Turn)

	// Turns returns the full window for a conversation.
	Turns(conversationKey string) []models.Turn

	// Info returns session metadata for a conversation key.
	Info(conversationKey string) (models.ConversationInfo, bool)

	// Stats reports cache size and active conversation keys.
	Stats() models.MemoryStats

	// ClearConversation drops one conversation's state.
	ClearConversation(conversationKey string)

	// Clear purges all conversation state.
	Clear()
}

// ── Retriever ────────────────────────────────────────────────

// RetrieverService returns org-scoped passages for a query. A failed or
// empty index yields an empty slice, never an error that fails the
// request.
type RetrieverService interface {
	Retrieve(ctx context.Context, org, query string) ([]models.Passage, error)
}

// ── Tool Registry ────────────────────────────────────────────

// ToolService is a pure dispatch table of named callable capabilities.
// Tool selection happens upstream in the orchestrator.
type ToolService interface {
	// Invoke validates arguments and executes tool.method. Failures are
	// returned as *tools.Error values.
	Invoke(ctx context.Context, tool, method string, args map[string]interface{}) (interface{}, error)

	// List returns the tool catalog.
	List() []models.ToolInfo
}

// ── Response Generator ───────────────────────────────────────

// GeneratorService produces the answer as an ordered, finite token
// stream via the emit callback. emit is called once per token, in
// generation order; a non-nil return aborts the stream. On backend
// failure Generate returns the error without emitting further tokens.
type GeneratorService interface {
	Generate(ctx context.Context, req *models.GenerationRequest, emit func(token string) error) error
}

// ── Embedding Driver ─────────────────────────────────────────

// EmbeddingDriver converts texts to vectors.
type EmbeddingDriver interface {
	Kind() string
	Dimensions() int
	MaxBatchSize() int
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	HealthCheck(ctx context.Context) error
}

// ── Vector Store Driver ──────────────────────────────────────

// VectorStoreDriver is the org-scoped document index. Implementations
// must guarantee that Search never returns another org's documents.
type VectorStoreDriver interface {
	Kind() string
	Upsert(ctx context.Context, org string, docs []models.VectorDoc) error
	Search(ctx context.Context, org string, vector []float64, topK int) ([]models.SearchResult, error)
	Delete(ctx context.Context, org string, ids []string) error
	Count(ctx context.Context, org string) (int, error)
	HealthCheck(ctx context.Context) error
}

// ── Generation Driver ────────────────────────────────────────

// GenerationDriver is a streaming model backend. Stream invokes emit
// for each chunk in arrival order and returns when the stream ends or
// fails. Implementations must respect ctx cancellation.
type GenerationDriver interface {
	Kind() string
	Stream(ctx context.Context, messages []models.ChatMessage, emit func(chunk models.GenerationChunk) error) error
	HealthCheck(ctx context.Context) error
}
