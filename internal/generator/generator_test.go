package generator_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adarshp14/AgentInsights/internal/generator"
	"github.com/adarshp14/AgentInsights/internal/tools"
	"github.com/adarshp14/AgentInsights/pkg/models"
)

func collect(t *testing.T, req *models.GenerationRequest) string {
	t.Helper()
	var sb strings.Builder
	err := generator.NewLocal().Generate(context.Background(), req, func(token string) error {
		sb.WriteString(token)
		return nil
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return sb.String()
}

func TestLocalToolAnswerVerbatim(t *testing.T) {
	answer := collect(t, &models.GenerationRequest{
		Question:  "What's 15% of 2500?",
		QueryType: models.QueryToolUse,
		ToolResult: &models.ToolInvocation{
			Tool:   "calculator",
			Method: "calculate",
			Result: &tools.CalcResult{
				Expression:  "15% of 2500",
				Result:      375,
				Formatted:   "375",
				Calculation: "15% of 2500 = 375",
			},
		},
	})
	if !strings.Contains(answer, "375") {
		t.Errorf("answer %q does not contain computed value 375", answer)
	}
}

func TestLocalToolErrorStillAnswers(t *testing.T) {
	answer := collect(t, &models.GenerationRequest{
		Question:  "calculate something",
		QueryType: models.QueryToolUse,
		ToolResult: &models.ToolInvocation{
			Tool:  "calculator",
			Error: "no arithmetic expression found",
		},
	})
	if answer == "" {
		t.Fatal("expected non-empty answer on tool failure")
	}
	if !strings.Contains(answer, "calculator") {
		t.Errorf("answer %q does not mention the failed tool", answer)
	}
}

func TestLocalPassageAnswer(t *testing.T) {
	answer := collect(t, &models.GenerationRequest{
		Question:  "What is the GST threshold?",
		QueryType: models.QueryRetrieval,
		Passages: []models.Passage{
			{SourceID: "gst-guide", Content: "The GST registration threshold is $30,000 in revenue.", Score: 0.91},
			{SourceID: "gst-guide", Content: "Registration can be voluntary below the threshold.", Score: 0.84},
		},
	})
	if !strings.Contains(answer, "$30,000") {
		t.Errorf("answer %q does not use the top passage", answer)
	}
}

func TestLocalZeroPassageDisclaimer(t *testing.T) {
	answer := collect(t, &models.GenerationRequest{
		Question:  "What does our expense policy say?",
		QueryType: models.QueryRetrieval,
	})
	if answer == "" {
		t.Fatal("expected non-empty answer for zero passages")
	}
	if !strings.Contains(answer, generator.NoPassagesDisclaimer) {
		t.Errorf("answer %q missing the no-documents disclaimer", answer)
	}
}

func TestLocalTokensConcatenateExactly(t *testing.T) {
	req := &models.GenerationRequest{Question: "hello", QueryType: models.QueryDirect}

	var tokens []string
	if err := generator.NewLocal().Generate(context.Background(), req, func(token string) error {
		tokens = append(tokens, token)
		return nil
	}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(tokens) < 2 {
		t.Fatalf("expected multiple tokens, got %d", len(tokens))
	}

	joined := strings.Join(tokens, "")
	again := collect(t, req)
	if joined != again {
		t.Errorf("token concatenation differs between runs:\n%q\n%q", joined, again)
	}
}

func TestLocalEmitErrorAborts(t *testing.T) {
	req := &models.GenerationRequest{Question: "hello", QueryType: models.QueryDirect}
	calls := 0
	wantErr := errors.New("consumer gone")

	err := generator.NewLocal().Generate(context.Background(), req, func(token string) error {
		calls++
		if calls == 2 {
			return wantErr
		}
		return nil
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected emit error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected emission to stop at second token, got %d calls", calls)
	}
}

func TestLocalCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := generator.NewLocal().Generate(ctx, &models.GenerationRequest{Question: "hi"}, func(string) error {
		t.Fatal("no tokens should be emitted after cancellation")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestOpenAIDriverStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Stream   bool                 `json:"stream"`
			Messages []models.ChatMessage `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if !req.Stream {
			t.Error("expected stream=true")
		}
		if len(req.Messages) == 0 || req.Messages[0].Role != "system" {
			t.Error("expected system message first")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range []string{"The ", "answer ", "is ", "375."} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", delta)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	driver := generator.NewOpenAIDriver("key", "gpt-4o-mini", generator.WithOpenAIEndpoint(srv.URL))
	gen := generator.New(driver)

	var sb strings.Builder
	err := gen.Generate(context.Background(), &models.GenerationRequest{Question: "What's 15% of 2500?"}, func(token string) error {
		sb.WriteString(token)
		return nil
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if sb.String() != "The answer is 375." {
		t.Errorf("answer = %q", sb.String())
	}
}

func TestOllamaDriverStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		for _, content := range []string{"Hello", " there"} {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"message": map[string]string{"content": content},
				"done":    false,
			})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"done": true})
	}))
	defer srv.Close()

	driver := generator.NewOllamaDriver(srv.URL, "llama3.2")
	var sb strings.Builder
	err := driver.Stream(context.Background(), []models.ChatMessage{{Role: "user", Content: "hi"}}, func(chunk models.GenerationChunk) error {
		sb.WriteString(chunk.Content)
		return nil
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if sb.String() != "Hello there" {
		t.Errorf("content = %q", sb.String())
	}
}
