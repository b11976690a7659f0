package generator

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/adarshp14/AgentInsights/pkg/models"
)

// OllamaDriver streams chat responses from a local Ollama instance via
// /api/chat, which emits one JSON object per line.
type OllamaDriver struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewOllamaDriver creates an Ollama generation driver. An empty
// endpoint defaults to the local daemon.
func NewOllamaDriver(endpoint, model string) *OllamaDriver {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	return &OllamaDriver{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: 300 * time.Second},
	}
}

func (d *OllamaDriver) Kind() string { return "ollama" }

type ollamaChatRequest struct {
	Model    string               `json:"model"`
	Messages []models.ChatMessage `json:"messages"`
	Stream   bool                 `json:"stream"`
}

type ollamaChatChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

func (d *OllamaDriver) Stream(ctx context.Context, messages []models.ChatMessage, emit func(chunk models.GenerationChunk) error) error {
	body, err := json.Marshal(ollamaChatRequest{Model: d.model, Messages: messages, Stream: true})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama chat API returned %d: %s", resp.StatusCode, string(respBody))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var chunk ollamaChatChunk
		if err := json.Unmarshal(scanner.Bytes(), &chunk); err != nil {
			return fmt.Errorf("unmarshal stream line: %w", err)
		}
		if chunk.Error != "" {
			return fmt.Errorf("ollama error: %s", chunk.Error)
		}
		if chunk.Message.Content != "" {
			if err := emit(models.GenerationChunk{Content: chunk.Message.Content}); err != nil {
				return err
			}
		}
		if chunk.Done {
			return emit(models.GenerationChunk{Done: true})
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return emit(models.GenerationChunk{Done: true})
}

// HealthCheck verifies the daemon responds to a minimal chat request.
func (d *OllamaDriver) HealthCheck(ctx context.Context) error {
	return d.Stream(ctx, []models.ChatMessage{{Role: "user", Content: "ping"}}, func(models.GenerationChunk) error {
		return nil
	})
}
