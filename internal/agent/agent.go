// Package agent implements the query orchestrator: the state machine
// that sequences classification, the retrieval or tool branch, answer
// generation, and the memory update, while streaming progress events to
// the caller.
package agent

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/adarshp14/AgentInsights/internal/classifier"
	"github.com/adarshp14/AgentInsights/pkg/contracts"
	"github.com/adarshp14/AgentInsights/pkg/models"
)

// Node names surfaced in step events.
const (
	NodeMemoryLoader      = "MemoryLoader"
	NodeQueryClassifier   = "QueryClassifier"
	NodeDocumentRetriever = "DocumentRetriever"
	NodeToolUser          = "ToolUser"
	NodeResponseGenerator = "ResponseGenerator"
)

// DefaultToolTimeout bounds one tool invocation.
const DefaultToolTimeout = 10 * time.Second

// eventBuffer absorbs bursts so slow consumers do not stall pipeline
// stages unnecessarily; ordering is preserved by the single producer.
const eventBuffer = 64

// Orchestrator wires the pipeline stages together. All collaborators
// are interfaces; the concrete set is assembled in pkg/server.
type Orchestrator struct {
	classifier  *classifier.Classifier
	memory      contracts.MemoryService
	retriever   contracts.RetrieverService
	tools       contracts.ToolService
	generator   contracts.GeneratorService
	toolTimeout time.Duration
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithToolTimeout overrides the per-invocation tool deadline.
func WithToolTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.toolTimeout = d
		}
	}
}

// New creates an orchestrator.
func New(
	cls *classifier.Classifier,
	memory contracts.MemoryService,
	ret contracts.RetrieverService,
	tools contracts.ToolService,
	gen contracts.GeneratorService,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		classifier:  cls,
		memory:      memory,
		retriever:   ret,
		tools:       tools,
		generator:   gen,
		toolTimeout: DefaultToolTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process runs one question through the pipeline and returns the event
// stream. The channel carries step, token and finally exactly one
// complete or error event, then closes. Cancelling ctx aborts the run;
// an aborted run never updates conversation memory.
func (o *Orchestrator) Process(ctx context.Context, req *models.QueryRequest) <-chan models.StreamEvent {
	events := make(chan models.StreamEvent, eventBuffer)
	go func() {
		defer close(events)
		o.run(ctx, req, events)
	}()
	return events
}

// emitter delivers events in order, dropping into a cancelled state
// once ctx ends so pipeline stages can bail out quickly.
type emitter struct {
	ctx    context.Context
	events chan<- models.StreamEvent
}

func (e *emitter) send(ev models.StreamEvent) bool {
	select {
	case e.events <- ev:
		return true
	case <-e.ctx.Done():
		return false
	}
}

func (e *emitter) step(node string, status models.StepStatus, startedAt time.Time, data map[string]interface{}) bool {
	return e.send(models.StreamEvent{Type: models.EventStep, Step: &models.ProcessingStep{
		Node:      node,
		Status:    status,
		StartedAt: startedAt,
		Data:      data,
	}})
}

func (o *Orchestrator) run(ctx context.Context, req *models.QueryRequest, events chan<- models.StreamEvent) {
	started := time.Now()
	em := &emitter{ctx: ctx, events: events}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		em.send(models.StreamEvent{Type: models.EventError, Error: "question must not be empty"})
		return
	}
	key := req.ConversationKey
	if key == "" {
		key = uuid.NewString()
	}

	// Memory load.
	memStart := time.Now()
	em.step(NodeMemoryLoader, models.StepInProgress, memStart, nil)
	recent := o.memory.Recent(key, classifier.ContextWindow)
	em.step(NodeMemoryLoader, models.StepCompleted, memStart, map[string]interface{}{
		"turns_loaded": len(recent),
	})

	// Classification.
	clsStart := time.Now()
	em.step(NodeQueryClassifier, models.StepInProgress, clsStart, nil)
	verdict := o.classifier.Classify(question, recent)
	em.step(NodeQueryClassifier, models.StepCompleted, clsStart, map[string]interface{}{
		"query_type": string(verdict.QueryType),
		"reasoning":  verdict.Reasoning,
	})

	// Branch. Exactly one of the retrieval or tool paths runs; both
	// failures degrade rather than abort.
	genReq := &models.GenerationRequest{
		Question:  question,
		QueryType: verdict.QueryType,
		History:   recent,
	}
	var toolUsed string

	switch verdict.QueryType {
	case models.QueryRetrieval:
		retStart := time.Now()
		em.step(NodeDocumentRetriever, models.StepInProgress, retStart, nil)
		passages, err := o.retriever.Retrieve(ctx, req.Org, question)
		if err != nil {
			// Retriever implementations degrade internally; an error
			// here still only costs the passages.
			log.Warn().Err(err).Str("org", req.Org).Msg("Retrieval failed")
			passages = nil
		}
		genReq.Passages = passages
		em.step(NodeDocumentRetriever, models.StepCompleted, retStart, map[string]interface{}{
			"passages_found": len(passages),
			"sources":        passageSources(passages),
		})

	case models.QueryToolUse:
		toolStart := time.Now()
		sel := selectTool(question)
		em.step(NodeToolUser, models.StepInProgress, toolStart, map[string]interface{}{
			"tool":   sel.Tool,
			"method": sel.Method,
		})

		toolCtx, cancel := context.WithTimeout(ctx, o.toolTimeout)
		result, err := o.tools.Invoke(toolCtx, sel.Tool, sel.Method, sel.Arguments)
		cancel()

		inv := &models.ToolInvocation{Tool: sel.Tool, Method: sel.Method, Arguments: sel.Arguments}
		if err != nil {
			inv.Error = err.Error()
			em.step(NodeToolUser, models.StepError, toolStart, map[string]interface{}{
				"tool":  sel.Tool,
				"error": err.Error(),
			})
		} else {
			inv.Result = result
			toolUsed = sel.Tool
			em.step(NodeToolUser, models.StepCompleted, toolStart, map[string]interface{}{
				"tool":   sel.Tool,
				"method": sel.Method,
			})
		}
		genReq.ToolResult = inv
	}

	// Generation.
	genStart := time.Now()
	em.step(NodeResponseGenerator, models.StepInProgress, genStart, nil)

	var answer strings.Builder
	err := o.generator.Generate(ctx, genReq, func(token string) error {
		if !em.send(models.StreamEvent{Type: models.EventToken, Token: token}) {
			return ctx.Err()
		}
		answer.WriteString(token)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			// Caller went away; nothing to report and nothing to record.
			log.Debug().Str("key", key).Msg("Request aborted during generation")
			return
		}
		em.step(NodeResponseGenerator, models.StepError, genStart, map[string]interface{}{"error": err.Error()})
		em.send(models.StreamEvent{Type: models.EventError, Error: "answer generation failed: " + err.Error()})
		return
	}
	em.step(NodeResponseGenerator, models.StepCompleted, genStart, map[string]interface{}{
		"answer_chars": answer.Len(),
	})

	if ctx.Err() != nil {
		return
	}

	// Memory update. Only successful exchanges are recorded.
	o.memory.Append(key, models.Turn{
		Question:  question,
		Answer:    answer.String(),
		QueryType: verdict.QueryType,
		CreatedAt: time.Now().UTC(),
	})

	em.send(models.StreamEvent{Type: models.EventComplete, Complete: &models.CompletionMeta{
		ConversationKey: key,
		QueryType:       verdict.QueryType,
		Answer:          answer.String(),
		PassageCount:    len(genReq.Passages),
		Citations:       citations(genReq.Passages),
		ToolUsed:        toolUsed,
		LatencyMs:       time.Since(started).Milliseconds(),
	}})
}

func passageSources(passages []models.Passage) []string {
	sources := make([]string, 0, len(passages))
	for _, p := range passages {
		sources = append(sources, p.SourceID)
	}
	return sources
}

func citations(passages []models.Passage) []models.Citation {
	if len(passages) == 0 {
		return nil
	}
	out := make([]models.Citation, 0, len(passages))
	for _, p := range passages {
		out = append(out, models.Citation{
			SourceID: p.SourceID,
			Score:    p.Score,
			Page:     p.Metadata["page"],
		})
	}
	return out
}
