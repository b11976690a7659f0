package generator

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adarshp14/AgentInsights/pkg/models"
)

// OpenAIDriver streams chat completions from OpenAI or any
// OpenAI-compatible endpoint.
type OpenAIDriver struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// OpenAIOption configures the OpenAI generation driver.
type OpenAIOption func(*OpenAIDriver)

// WithOpenAIEndpoint sets a custom chat completions URL.
func WithOpenAIEndpoint(endpoint string) OpenAIOption {
	return func(d *OpenAIDriver) { d.endpoint = endpoint }
}

// NewOpenAIDriver creates an OpenAI generation driver.
func NewOpenAIDriver(apiKey, model string, opts ...OpenAIOption) *OpenAIDriver {
	d := &OpenAIDriver{
		apiKey:   apiKey,
		model:    model,
		endpoint: "https://api.openai.com/v1/chat/completions",
		client:   &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *OpenAIDriver) Kind() string { return "openai" }

type openAIChatRequest struct {
	Model    string               `json:"model"`
	Messages []models.ChatMessage `json:"messages"`
	Stream   bool                 `json:"stream"`
}

type openAIChatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// Stream sends the chat request with stream=true and forwards each SSE
// delta to emit in arrival order.
func (d *OpenAIDriver) Stream(ctx context.Context, messages []models.ChatMessage, emit func(chunk models.GenerationChunk) error) error {
	body, err := json.Marshal(openAIChatRequest{Model: d.model, Messages: messages, Stream: true})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("openai chat API returned %d: %s", resp.StatusCode, string(respBody))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			return emit(models.GenerationChunk{Done: true})
		}

		var chunk openAIChatChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return fmt.Errorf("unmarshal stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			if err := emit(models.GenerationChunk{Content: content}); err != nil {
				return err
			}
		}
		if chunk.Choices[0].FinishReason != nil {
			return emit(models.GenerationChunk{Done: true})
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return emit(models.GenerationChunk{Done: true})
}

// HealthCheck sends a minimal completion request.
func (d *OpenAIDriver) HealthCheck(ctx context.Context) error {
	return d.Stream(ctx, []models.ChatMessage{{Role: "user", Content: "ping"}}, func(models.GenerationChunk) error {
		return nil
	})
}
