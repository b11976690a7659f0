// Package models defines the shared domain types for the InsightFlow
// query agent: conversations and turns, retrieved passages, processing
// steps, and the streamed event envelope.
package models

import "time"

// ── Query Classification ─────────────────────────────────────

// QueryType is the processing path chosen for an incoming question.
type QueryType string

const (
	QueryRetrieval QueryType = "retrieval"
	QueryToolUse   QueryType = "tool_use"
	QueryDirect    QueryType = "direct"
)

// Valid reports whether q is one of the three classifier outcomes.
func (q QueryType) Valid() bool {
	switch q {
	case QueryRetrieval, QueryToolUse, QueryDirect:
		return true
	}
	return false
}

// Classification is the classifier's verdict for one question.
// Reasoning is a human-readable explanation surfaced in step events.
type Classification struct {
	QueryType QueryType `json:"query_type"`
	Reasoning string    `json:"reasoning"`
}

// ── Conversation Memory ──────────────────────────────────────

// Turn is one completed question/answer exchange. Immutable once
// appended to a conversation.
type Turn struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"` // truncated to the store's answer cap
	QueryType QueryType `json:"query_type"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationInfo is the session metadata tracked per conversation key.
type ConversationInfo struct {
	Key          string    `json:"key"`
	CreatedAt    time.Time `json:"created_at"`
	LastActive   time.Time `json:"last_active"`
	MessageCount int       `json:"message_count"`
	TurnCount    int       `json:"turn_count"`
}

// MemoryStats is the out-of-band inspection view of the memory store.
type MemoryStats struct {
	Conversations int      `json:"conversations"`
	Turns         int      `json:"turns"`
	Keys          []string `json:"keys"`
}

// ── Retrieval ────────────────────────────────────────────────

// VectorDoc is a pre-chunked, pre-embedded passage stored in the
// organization-scoped vector index.
type VectorDoc struct {
	ID        string            `json:"id"`
	Org       string            `json:"org"`
	SourceID  string            `json:"source_id"` // originating document
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"` // e.g. page, filename
	Vector    []float64         `json:"vector"`
	CreatedAt time.Time         `json:"created_at"`
}

// SearchResult is a single vector search hit.
type SearchResult struct {
	Doc   VectorDoc `json:"doc"`
	Score float64   `json:"score"`
}

// Passage is a retrieved chunk handed to the generator. Ownership ends
// when the generator consumes it; passages are never persisted.
type Passage struct {
	SourceID string            `json:"source_id"`
	Content  string            `json:"content"`
	Score    float64           `json:"score"` // cosine similarity in [0,1]
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ── Tools ────────────────────────────────────────────────────

// ToolInvocation records one tool call made on behalf of a request.
// Ephemeral; at most one per request.
type ToolInvocation struct {
	Tool      string                 `json:"tool"`
	Method    string                 `json:"method"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
	Result    interface{}            `json:"result,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// ToolInfo describes a registered tool for the discovery endpoint.
type ToolInfo struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Methods     map[string]MethodInfo `json:"methods"`
}

// MethodInfo declares a tool method's argument shape.
type MethodInfo struct {
	Description string            `json:"description,omitempty"`
	Parameters  map[string]string `json:"parameters,omitempty"` // name → type
}

// ── Processing Steps ─────────────────────────────────────────

// StepStatus tracks a processing step's lifecycle.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepError      StepStatus = "error"
)

// ProcessingStep is one node execution record, streamed to the caller
// for observability and discarded when the response completes.
type ProcessingStep struct {
	Node      string                 `json:"node"`
	Status    StepStatus             `json:"status"`
	StartedAt time.Time              `json:"started_at"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// ── Request / Streamed Response ──────────────────────────────

// QueryRequest drives one pass through the orchestrator.
type QueryRequest struct {
	Question        string `json:"question"`
	ConversationKey string `json:"conversation_key,omitempty"` // generated when empty
	Org             string `json:"-"`                          // set from the request context
}

// EventType discriminates streamed events.
type EventType string

const (
	EventStep     EventType = "step"
	EventToken    EventType = "token"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// StreamEvent is the envelope streamed to the caller. Exactly one of
// the payload fields is set, matching Type.
type StreamEvent struct {
	Type     EventType       `json:"type"`
	Step     *ProcessingStep `json:"step,omitempty"`
	Token    string          `json:"token,omitempty"`
	Complete *CompletionMeta `json:"complete,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Citation ties an answer back to a consumed passage.
type Citation struct {
	SourceID string  `json:"source_id"`
	Score    float64 `json:"score"`
	Page     string  `json:"page,omitempty"`
}

// CompletionMeta is the final metadata reported on a successful stream.
// Answer is the concatenation of all token events, in emission order.
type CompletionMeta struct {
	ConversationKey string     `json:"conversation_key"`
	QueryType       QueryType  `json:"query_type"`
	Answer          string     `json:"answer"`
	PassageCount    int        `json:"passage_count"`
	Citations       []Citation `json:"citations,omitempty"`
	ToolUsed        string     `json:"tool_used,omitempty"`
	LatencyMs       int64      `json:"latency_ms"`
}

// ── Generation ───────────────────────────────────────────────

// ChatMessage is a single prompt message sent to a generation backend.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationRequest carries the composed context for one answer.
// At most one of Passages / ToolResult is set; both empty means a
// direct answer from general knowledge.
type GenerationRequest struct {
	Question   string
	QueryType  QueryType
	Passages   []Passage
	ToolResult *ToolInvocation
	History    []Turn
}

// GenerationChunk is one increment of a streamed answer.
type GenerationChunk struct {
	Content string `json:"content,omitempty"`
	Done    bool   `json:"done"`
}

// ── Passage Ingestion Hand-off ───────────────────────────────

// UpsertPassagesRequest is the body of POST /api/v1/passages. Passages
// arrive pre-chunked and pre-embedded from the ingestion pipeline.
type UpsertPassagesRequest struct {
	Passages []VectorDoc `json:"passages"`
}

// UpsertPassagesResult reports how many passages were stored.
type UpsertPassagesResult struct {
	Stored int `json:"stored"`
}
