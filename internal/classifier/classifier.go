// Package classifier decides the processing path for an incoming
// question. Classification is rule based and fully deterministic: the
// same question and history always produce the same outcome, and no
// external call is made.
package classifier

import (
	"fmt"
	"strings"

	"github.com/adarshp14/AgentInsights/pkg/models"
)

// RulesVersion identifies the active rule table. Bump it whenever the
// table changes so emitted reasoning stays attributable.
const RulesVersion = "v1"

// ContextWindow is how many recent turns the classifier considers.
const ContextWindow = 3

// followUpMaxWords is the word-count threshold under which a question
// is treated as a follow-up that inherits the previous turn's type.
const followUpMaxWords = 4

// Rule maps a set of trigger phrases to a query type. Single-word
// alphabetic phrases match whole words only; symbols and multi-word
// phrases match as substrings. Matching is case-insensitive.
type Rule struct {
	Label   string
	Outcome models.QueryType
	Phrases []string
}

// rules is the static classification table, evaluated in order. The
// first rule with a matching phrase wins.
var rules = []Rule{
	{
		Label:   "greeting",
		Outcome: models.QueryDirect,
		Phrases: []string{
			"hello", "hi", "hey", "good morning", "good afternoon",
			"good evening", "how are you", "what's up", "thanks",
			"thank you", "bye", "goodbye",
		},
	},
	{
		Label:   "domain-term",
		Outcome: models.QueryRetrieval,
		Phrases: []string{
			"tax", "deduction", "business expense", "regulation", "legal",
			"requirement", "compliance", "gst", "hst", "freelancer",
			"bracket", "income tax", "policy", "guideline",
		},
	},
	{
		Label:   "arithmetic",
		Outcome: models.QueryToolUse,
		Phrases: []string{
			"calculate", "compute", "+", "%", "percent",
		},
	},
	{
		Label:   "date-time",
		Outcome: models.QueryToolUse,
		Phrases: []string{
			"date", "time", "today", "now", "what day",
		},
	},
	{
		Label:   "current-data",
		Outcome: models.QueryToolUse,
		Phrases: []string{
			"weather", "news", "current events", "price",
		},
	},
}

// Classifier applies the rule table to questions.
type Classifier struct{}

// New returns a rule-based classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify maps a question to a query type. The recent turns are only
// consulted for the follow-up tie-break: a short question with no rule
// match inherits the most recent turn's type. It never fails; unmatched
// input is direct.
func (c *Classifier) Classify(question string, recent []models.Turn) models.Classification {
	lower := strings.ToLower(strings.TrimSpace(question))
	words := questionWords(lower)

	for _, rule := range rules {
		for _, phrase := range rule.Phrases {
			if matchPhrase(lower, words, phrase) {
				return models.Classification{
					QueryType: rule.Outcome,
					Reasoning: fmt.Sprintf("matched %s rule (%q)", rule.Label, phrase),
				}
			}
		}
	}

	if len(recent) > ContextWindow {
		recent = recent[len(recent)-ContextWindow:]
	}

	// Short follow-ups like "what about the rate?" carry too little
	// signal on their own; inherit the previous turn's type instead of
	// re-deriving context.
	if wordCount(lower) <= followUpMaxWords && len(recent) > 0 {
		prev := recent[len(recent)-1]
		if prev.QueryType.Valid() {
			return models.Classification{
				QueryType: prev.QueryType,
				Reasoning: fmt.Sprintf("short follow-up, inherited %s from previous turn", prev.QueryType),
			}
		}
	}

	return models.Classification{
		QueryType: models.QueryDirect,
		Reasoning: "no rule matched, defaulting to direct",
	}
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// questionWords splits the question into lowercase words with
// surrounding punctuation stripped, for whole-word matching.
func questionWords(lower string) map[string]bool {
	words := make(map[string]bool)
	for _, field := range strings.Fields(lower) {
		word := strings.TrimFunc(field, func(r rune) bool {
			return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
		})
		if word != "" {
			words[word] = true
		}
	}
	return words
}

func matchPhrase(lower string, words map[string]bool, phrase string) bool {
	if isSingleWord(phrase) {
		return words[phrase]
	}
	return strings.Contains(lower, phrase)
}

func isSingleWord(phrase string) bool {
	for _, r := range phrase {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return phrase != ""
}
