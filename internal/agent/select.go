package agent

import "strings"

// toolSelection names the tool call the orchestrator derives from a
// question classified as tool_use.
type toolSelection struct {
	Tool      string
	Method    string
	Arguments map[string]interface{}
}

// selectTool picks the tool, method and arguments for a question. The
// mapping is intentionally simple: date and time phrasing goes to the
// datetime tool, current-data phrasing to web search, everything else
// to the calculator with the raw question as the expression.
func selectTool(question string) toolSelection {
	lower := strings.ToLower(question)

	switch {
	case containsAny(lower, "what time", "current time", "time is it"):
		return toolSelection{Tool: "datetime", Method: "get_current_datetime", Arguments: map[string]interface{}{}}
	case containsAny(lower, "date", "today", "what day"):
		return toolSelection{Tool: "datetime", Method: "get_today_date", Arguments: map[string]interface{}{}}
	case containsAny(lower, "weather", "news", "current events", "price"):
		return toolSelection{Tool: "web_search", Method: "search", Arguments: map[string]interface{}{"query": question}}
	default:
		return toolSelection{Tool: "calculator", Method: "calculate", Arguments: map[string]interface{}{"expression": question}}
	}
}

func containsAny(s string, phrases ...string) bool {
	for _, phrase := range phrases {
		if strings.Contains(s, phrase) {
			return true
		}
	}
	return false
}
