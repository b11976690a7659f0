// Package handlers implements the HTTP endpoints for the query agent.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/adarshp14/AgentInsights/internal/agent"
	"github.com/adarshp14/AgentInsights/internal/api/middleware"
	"github.com/adarshp14/AgentInsights/internal/embeddings"
	"github.com/adarshp14/AgentInsights/internal/retriever"
	"github.com/adarshp14/AgentInsights/internal/tools"
	"github.com/adarshp14/AgentInsights/internal/vectorstore"
	"github.com/adarshp14/AgentInsights/pkg/contracts"
	"github.com/adarshp14/AgentInsights/pkg/models"
)

// Handlers carries the wired services for all endpoints.
type Handlers struct {
	Orchestrator *agent.Orchestrator
	Memory       contracts.MemoryService
	Tools        contracts.ToolService
	Retriever    *retriever.Retriever
	Embeddings   *embeddings.Registry
	Vectors      *vectorstore.Registry
	Version      string
}

// ── Helpers ─────────────────────────────────────────────────

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// ── Query ───────────────────────────────────────────────────

// Query runs one question through the pipeline, streaming step, token
// and completion events as SSE.
// POST /api/v1/query
func (h *Handlers) Query(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Question == "" {
		respondError(w, http.StatusBadRequest, "question is required")
		return
	}
	req.Org = middleware.GetOrg(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := h.Orchestrator.Process(r.Context(), &req)
	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal stream event")
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			// Client went away; the orchestrator notices via context.
			return
		}
		flusher.Flush()
	}
}

// ── Tools ───────────────────────────────────────────────────

// ListTools returns the tool catalog.
// GET /api/v1/tools
func (h *Handlers) ListTools(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"tools": h.Tools.List()})
}

// InvokeTool dispatches a direct tool call outside the pipeline.
// POST /api/v1/tools/{tool}/{method}
func (h *Handlers) InvokeTool(w http.ResponseWriter, r *http.Request) {
	tool := chi.URLParam(r, "tool")
	method := chi.URLParam(r, "method")

	args := map[string]interface{}{}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	result, err := h.Tools.Invoke(r.Context(), tool, method, args)
	if err != nil {
		respondError(w, toolErrorStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tool":   tool,
		"method": method,
		"result": result,
	})
}

func toolErrorStatus(err error) int {
	var toolErr *tools.Error
	if !errors.As(err, &toolErr) {
		return http.StatusInternalServerError
	}
	switch toolErr.Code {
	case tools.ErrUnknownTool, tools.ErrUnknownMethod:
		return http.StatusNotFound
	case tools.ErrInvalidArguments:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ── Memory ──────────────────────────────────────────────────

// MemoryStats reports memory store size and active keys.
// GET /api/v1/memory
func (h *Handlers) MemoryStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Memory.Stats())
}

// GetConversation returns one conversation's window and metadata.
// GET /api/v1/memory/{key}
func (h *Handlers) GetConversation(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	info, ok := h.Memory.Info(key)
	if !ok {
		respondError(w, http.StatusNotFound, "conversation not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"info":  info,
		"turns": h.Memory.Turns(key),
	})
}

// ClearConversation drops one conversation.
// DELETE /api/v1/memory/{key}
func (h *Handlers) ClearConversation(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	h.Memory.ClearConversation(key)
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared", "key": key})
}

// ClearMemory purges all conversations.
// DELETE /api/v1/memory
func (h *Handlers) ClearMemory(w http.ResponseWriter, r *http.Request) {
	h.Memory.Clear()
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// ── Passages ────────────────────────────────────────────────

// UpsertPassages stores pre-chunked passages in the caller org's index,
// embedding any that arrive without vectors.
// POST /api/v1/passages
func (h *Handlers) UpsertPassages(w http.ResponseWriter, r *http.Request) {
	var req models.UpsertPassagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Passages) == 0 {
		respondError(w, http.StatusBadRequest, "passages must not be empty")
		return
	}

	org := middleware.GetOrg(r.Context())
	stored, err := h.Retriever.Index(r.Context(), org, req.Passages)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to index passages: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, models.UpsertPassagesResult{Stored: stored})
}

// CountPassages reports the caller org's index size.
// GET /api/v1/passages/count
func (h *Handlers) CountPassages(w http.ResponseWriter, r *http.Request) {
	org := middleware.GetOrg(r.Context())
	count, err := h.Retriever.Count(r.Context(), org)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"org": org, "count": count})
}

// ── Health ──────────────────────────────────────────────────

// Health pings the registered drivers and reports per-driver status.
// GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	drivers := map[string]string{}

	for name, err := range h.Embeddings.HealthCheckAll(r.Context()) {
		drivers["embeddings/"+name] = healthString(err)
		if err != nil {
			status = "degraded"
		}
	}
	for name, err := range h.Vectors.HealthCheckAll(r.Context()) {
		drivers["vectorstore/"+name] = healthString(err)
		if err != nil {
			status = "degraded"
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  status,
		"service": "insightflow-agent",
		"drivers": drivers,
	})
}

func healthString(err error) string {
	if err != nil {
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}

// VersionInfo reports the running version.
// GET /version
func (h *Handlers) VersionInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"service": "insightflow-agent",
		"version": h.Version,
	})
}
