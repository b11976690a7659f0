package generator

import (
	"fmt"
	"strings"

	"github.com/adarshp14/AgentInsights/pkg/models"
)

const systemPrompt = `You are InsightFlow, a concise knowledge assistant for freelancers and small businesses.
Answer directly and conversationally. When a calculation result is provided, repeat its numbers exactly as given.
When document excerpts are provided, base your answer on them. When none are provided for a document question, say so before answering from general knowledge.`

// historyLimit bounds how many prior turns enter the prompt.
const historyLimit = 3

// NoPassagesDisclaimer opens answers to document questions that found
// no supporting passages.
const NoPassagesDisclaimer = "I couldn't find supporting documents in your organization's knowledge base for this, so the following is general guidance only."

// buildMessages composes the chat prompt for one generation: system
// instructions, recent history, then the question with whatever context
// the branch produced.
func buildMessages(req *models.GenerationRequest) []models.ChatMessage {
	messages := []models.ChatMessage{{Role: "system", Content: systemPrompt}}

	history := req.History
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	for _, turn := range history {
		messages = append(messages,
			models.ChatMessage{Role: "user", Content: turn.Question},
			models.ChatMessage{Role: "assistant", Content: turn.Answer},
		)
	}

	var sb strings.Builder
	switch {
	case req.ToolResult != nil:
		writeToolContext(&sb, req.ToolResult)
	case len(req.Passages) > 0:
		sb.WriteString("Relevant document excerpts:\n")
		for i, p := range req.Passages {
			fmt.Fprintf(&sb, "[%d] (%s) %s\n", i+1, p.SourceID, p.Content)
		}
	case req.QueryType == models.QueryRetrieval:
		sb.WriteString("No matching document excerpts were found for this question. Open your answer by disclosing that.\n")
	}

	sb.WriteString("Question: ")
	sb.WriteString(req.Question)
	messages = append(messages, models.ChatMessage{Role: "user", Content: sb.String()})
	return messages
}

func writeToolContext(sb *strings.Builder, inv *models.ToolInvocation) {
	if inv.Error != "" {
		fmt.Fprintf(sb, "A %s tool call failed (%s). Answer as best you can and mention the limitation.\n", inv.Tool, inv.Error)
		return
	}
	fmt.Fprintf(sb, "Tool result from %s.%s (use these numbers verbatim): %s\n", inv.Tool, inv.Method, formatToolResult(inv.Result))
}
