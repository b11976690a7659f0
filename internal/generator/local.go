package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adarshp14/AgentInsights/internal/tools"
	"github.com/adarshp14/AgentInsights/pkg/models"
)

// Local is a deterministic template generator used when no model
// backend is configured, and in tests. It implements
// contracts.GeneratorService directly: the answer is composed from the
// request and streamed word by word, so token order and final text are
// reproducible.
type Local struct{}

// NewLocal returns the template generator.
func NewLocal() *Local { return &Local{} }

func (l *Local) Generate(ctx context.Context, req *models.GenerationRequest, emit func(token string) error) error {
	answer := l.compose(req)
	for _, token := range streamTokens(answer) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := emit(token); err != nil {
			return err
		}
	}
	return nil
}

func (l *Local) compose(req *models.GenerationRequest) string {
	switch {
	case req.ToolResult != nil:
		return composeToolAnswer(req.ToolResult)
	case len(req.Passages) > 0:
		return composePassageAnswer(req.Passages)
	case req.QueryType == models.QueryRetrieval:
		return NoPassagesDisclaimer + " Please add the relevant documents and ask again for a sourced answer."
	default:
		return fmt.Sprintf("Here's my answer to %q: I can help with document questions, calculations, and date lookups. Ask away.", req.Question)
	}
}

func composeToolAnswer(inv *models.ToolInvocation) string {
	if inv.Error != "" {
		return fmt.Sprintf("I couldn't complete that with the %s tool (%s). Try rephrasing the request.", inv.Tool, inv.Error)
	}
	switch r := inv.Result.(type) {
	case *tools.CalcResult:
		return fmt.Sprintf("The answer is %s (%s).", r.Formatted, r.Calculation)
	case *tools.DateTimeResult:
		if r.Time != "" {
			return fmt.Sprintf("It's %s on %s, %s (%s).", r.Time, r.Weekday, r.Date, r.Timezone)
		}
		return fmt.Sprintf("Today is %s, %s.", r.Weekday, r.Date)
	case *tools.SearchResponse:
		var sb strings.Builder
		fmt.Fprintf(&sb, "Here's what I found for %q:", r.Query)
		for i, hit := range r.Results {
			fmt.Fprintf(&sb, " %d. %s (%s).", i+1, hit.Title, hit.DisplayLink)
		}
		return sb.String()
	}
	data, err := json.Marshal(inv.Result)
	if err != nil {
		return fmt.Sprintf("The %s tool returned: %v", inv.Tool, inv.Result)
	}
	return fmt.Sprintf("The %s tool returned: %s", inv.Tool, data)
}

func composePassageAnswer(passages []models.Passage) string {
	var sb strings.Builder
	sb.WriteString("Based on your organization's documents: ")
	sb.WriteString(passages[0].Content)
	if len(passages) > 1 {
		fmt.Fprintf(&sb, " Related material appears in %d other passage(s).", len(passages)-1)
	}
	return sb.String()
}

// streamTokens splits an answer into word tokens whose concatenation
// reproduces the answer exactly, including whitespace.
func streamTokens(answer string) []string {
	var out []string
	start := 0
	for i, r := range answer {
		if r == ' ' {
			out = append(out, answer[start:i+1])
			start = i + 1
		}
	}
	if start < len(answer) {
		out = append(out, answer[start:])
	}
	return out
}
