package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/benchpipe/benchpipe/internal/provider"
)

const defaultSearchBaseURL = "https://api.tavily.com/search"

// SearchTool forwards a query to the Tavily search API and normalizes the
// response. A missing credential or a transport failure yields a structured
// error field with an empty result list, never a Go error.
type SearchTool struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewSearchTool builds the web search client. baseURL overrides the API
// endpoint when non-empty.
func NewSearchTool(apiKey, baseURL string) *SearchTool {
	if baseURL == "" {
		baseURL = defaultSearchBaseURL
	}
	return &SearchTool{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *SearchTool) Name() string { return "web_search" }

func (t *SearchTool) Definition() provider.ToolDefinition {
	return provider.ToolDefinition{
		Name:        t.Name(),
		Description: "Search the web for current information",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query",
				},
				"max_results": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results to return",
					"default":     5,
				},
			},
			"required": []any{"query"},
		},
	}
}

func (t *SearchTool) Execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return searchError("query is required"), nil
	}
	if t.apiKey == "" {
		return searchError("no search API key provided"), nil
	}

	maxResults := 5
	if n, ok := args["max_results"].(float64); ok && n > 0 {
		maxResults = int(n)
	}

	payload, err := json.Marshal(map[string]any{
		"api_key":        t.apiKey,
		"query":          query,
		"max_results":    maxResults,
		"search_depth":   "basic",
		"include_images": false,
		"include_answer": true,
	})
	if err != nil {
		return searchError(err.Error()), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL, bytes.NewReader(payload))
	if err != nil {
		return searchError(err.Error()), nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return searchError(fmt.Sprintf("HTTP error occurred: %v", err)), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return searchError(fmt.Sprintf("HTTP error occurred: status %d", resp.StatusCode)), nil
	}

	var parsed struct {
		Answer  string `json:"answer"`
		Results []struct {
			Title   string  `json:"title"`
			URL     string  `json:"url"`
			Content string  `json:"content"`
			Score   float64 `json:"score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return searchError(fmt.Sprintf("decoding response: %v", err)), nil
	}

	results := make([]any, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, map[string]any{
			"title":   r.Title,
			"url":     r.URL,
			"content": r.Content,
			"score":   r.Score,
		})
	}

	return map[string]any{
		"query":   query,
		"answer":  parsed.Answer,
		"results": results,
	}, nil
}

func searchError(message string) map[string]any {
	return map[string]any{
		"error":   message,
		"results": []any{},
	}
}
