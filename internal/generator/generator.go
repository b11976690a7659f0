// Package generator turns a question plus branch context (retrieved
// passages or a tool result) into an ordered answer token stream. The
// actual text production is delegated to a pluggable generation driver;
// the package ships OpenAI-compatible and Ollama drivers plus a
// deterministic template driver for development and tests.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adarshp14/AgentInsights/internal/tools"
	"github.com/adarshp14/AgentInsights/pkg/contracts"
	"github.com/adarshp14/AgentInsights/pkg/models"
)

// DefaultTimeout bounds one full generation stream.
const DefaultTimeout = 60 * time.Second

// Generator implements contracts.GeneratorService over a generation
// driver.
type Generator struct {
	driver  contracts.GenerationDriver
	timeout time.Duration
}

// Option configures the generator.
type Option func(*Generator)

// WithTimeout overrides the per-generation deadline.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// New creates a generator over a driver.
func New(driver contracts.GenerationDriver, opts ...Option) *Generator {
	g := &Generator{driver: driver, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate streams the answer through emit, one token per call, in
// generation order. A non-nil error from emit aborts the stream and is
// returned; tokens already emitted stay delivered.
func (g *Generator) Generate(ctx context.Context, req *models.GenerationRequest, emit func(token string) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	messages := buildMessages(req)
	return g.driver.Stream(ctx, messages, func(chunk models.GenerationChunk) error {
		if chunk.Content == "" {
			return nil
		}
		return emit(chunk.Content)
	})
}

// formatToolResult renders a tool result for prompt context. Typed
// results get readable text with their pre-formatted numbers intact;
// anything else is JSON.
func formatToolResult(result interface{}) string {
	switch r := result.(type) {
	case *tools.CalcResult:
		return r.Calculation
	case *tools.DateTimeResult:
		if r.Time != "" {
			return fmt.Sprintf("%s %s (%s, %s)", r.Date, r.Time, r.Weekday, r.Timezone)
		}
		return fmt.Sprintf("%s (%s)", r.Date, r.Weekday)
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(data)
}
