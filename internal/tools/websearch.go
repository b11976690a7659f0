package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/adarshp14/AgentInsights/pkg/models"
)

// WebSearchConfig holds Google Custom Search credentials. Without
// credentials the tool serves canned fallback results instead of
// failing, so the pipeline stays usable in development.
type WebSearchConfig struct {
	APIKey   string
	EngineID string
	BaseURL  string
	Timeout  time.Duration
}

// WebResult is one search hit.
type WebResult struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"display_link"`
}

// SearchResponse is the web search tool's typed output.
type SearchResponse struct {
	Query   string      `json:"query"`
	Source  string      `json:"source"`
	Results []WebResult `json:"results"`
}

// WebSearch queries Google Custom Search.
type WebSearch struct {
	cfg    WebSearchConfig
	client *http.Client
}

func NewWebSearch(cfg *WebSearchConfig) *WebSearch {
	c := WebSearchConfig{BaseURL: "https://www.googleapis.com/customsearch/v1", Timeout: 10 * time.Second}
	if cfg != nil {
		if cfg.APIKey != "" {
			c.APIKey = cfg.APIKey
		}
		if cfg.EngineID != "" {
			c.EngineID = cfg.EngineID
		}
		if cfg.BaseURL != "" {
			c.BaseURL = cfg.BaseURL
		}
		if cfg.Timeout > 0 {
			c.Timeout = cfg.Timeout
		}
	}
	return &WebSearch{cfg: c, client: &http.Client{Timeout: c.Timeout}}
}

func (w *WebSearch) Name() string { return "web_search" }

func (w *WebSearch) Info() models.ToolInfo {
	return models.ToolInfo{
		Name:        "web_search",
		Description: "Searches the web for current information",
		Methods: map[string]models.MethodInfo{
			"search": {
				Description: "Run a web search and return ranked results",
				Parameters: map[string]string{
					"query":       "string",
					"num_results": "integer (optional, default 5, max 10)",
				},
			},
		},
	}
}

func (w *WebSearch) Invoke(ctx context.Context, method string, args map[string]interface{}) (interface{}, error) {
	if method != "search" {
		return nil, newError(ErrUnknownMethod, w.Name(), method, "supported methods: search")
	}
	query, ok := stringArg(args, "query")
	if !ok {
		return nil, newError(ErrInvalidArguments, w.Name(), method, "query (string) is required")
	}
	num := intArg(args, "num_results", 5)
	if num < 1 {
		num = 1
	}
	if num > 10 {
		num = 10
	}

	if w.cfg.APIKey == "" || w.cfg.EngineID == "" {
		return &SearchResponse{Query: query, Source: "fallback", Results: fallbackResults(query, num)}, nil
	}

	resp, err := w.search(ctx, query, num)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("Web search failed, serving fallback results")
		return &SearchResponse{Query: query, Source: "fallback", Results: fallbackResults(query, num)}, nil
	}
	return resp, nil
}

func (w *WebSearch) search(ctx context.Context, query string, num int) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("key", w.cfg.APIKey)
	params.Set("cx", w.cfg.EngineID)
	params.Set("q", query)
	params.Set("num", fmt.Sprintf("%d", num))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	httpResp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search api returned status %d", httpResp.StatusCode)
	}

	var body struct {
		Items []struct {
			Title       string `json:"title"`
			Link        string `json:"link"`
			Snippet     string `json:"snippet"`
			DisplayLink string `json:"displayLink"`
		} `json:"items"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	results := make([]WebResult, 0, len(body.Items))
	for _, item := range body.Items {
		results = append(results, WebResult{
			Title:       item.Title,
			Link:        item.Link,
			Snippet:     item.Snippet,
			DisplayLink: item.DisplayLink,
		})
	}
	return &SearchResponse{Query: query, Source: "google_cse", Results: results}, nil
}

func fallbackResults(query string, num int) []WebResult {
	results := []WebResult{
		{
			Title:       fmt.Sprintf("Search result for %q - Government Resource", query),
			Link:        "https://www.canada.ca/en/revenue-agency",
			Snippet:     fmt.Sprintf("Official information related to %s from the Canada Revenue Agency.", query),
			DisplayLink: "canada.ca",
		},
		{
			Title:       fmt.Sprintf("Professional Guide: %s", query),
			Link:        "https://www.cpacanada.ca",
			Snippet:     fmt.Sprintf("Professional accounting guidance and resources related to %s.", query),
			DisplayLink: "cpacanada.ca",
		},
		{
			Title:       fmt.Sprintf("Current Information: %s", query),
			Link:        "https://www.canada.ca/en/financial-consumer-agency",
			Snippet:     fmt.Sprintf("Up-to-date financial and regulatory information about %s.", query),
			DisplayLink: "canada.ca",
		},
	}
	if num < len(results) {
		results = results[:num]
	}
	return results
}
