package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"
)

const (
	anthropicVersion   = "2023-06-01"
	anthropicToolsBeta = "tools-2024-05-16"
)

var anthropicFallbackModels = []ModelInfo{
	{ID: "claude-opus-4", Name: "Claude Opus 4"},
	{ID: "claude-sonnet-4", Name: "Claude Sonnet 4"},
	{ID: "claude-3-opus-20240229", Name: "Claude 3 Opus"},
	{ID: "claude-3-sonnet-20240229", Name: "Claude 3 Sonnet"},
	{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku"},
}

// anthropicAdapter speaks the Anthropic-native messages API. The system turn
// travels in a separate top-level field, streaming frames are SSE
// content_block_delta chunks, and tool-use arguments arrive as a decoded
// mapping rather than a serialized string.
type anthropicAdapter struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	retry      retrier
}

func newAnthropic(cfg Config) *anthropicAdapter {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = "claude-3-sonnet-20240229"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &anthropicAdapter{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		retry:      newRetrier(),
	}
}

type anthropicRequest struct {
	Model       string          `json:"model"`
	Messages    []anthropicTurn `json:"messages"`
	System      string          `json:"system,omitempty"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	Stream      bool            `json:"stream,omitempty"`
	Tools       []anthropicTool `json:"tools,omitempty"`
}

type anthropicTurn struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string, or a list of content blocks
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicContentBlock struct {
	Type  string         `json:"type"`
	Text  string         `json:"text,omitempty"`
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`
}

type anthropicResponse struct {
	Content []anthropicContentBlock `json:"content"`
}

func (a *anthropicAdapter) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	if a.apiKey == "" {
		return "", &Error{Kind: KindAuth, Provider: ProviderAnthropic, Message: "API key is required"}
	}

	body := a.buildRequest(messages, opts, false)

	var content string
	err := a.retry.do(ctx, ProviderAnthropic, func() error {
		resp, err := a.post(ctx, "/messages", body)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		var parsed anthropicResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return &Error{Kind: KindUpstream, Provider: ProviderAnthropic, Message: fmt.Sprintf("decoding response: %v", err)}
		}
		var parts []string
		for _, block := range parsed.Content {
			if block.Type == "text" {
				parts = append(parts, block.Text)
			}
		}
		content = strings.Join(parts, "")
		return nil
	})
	return content, err
}

func (a *anthropicAdapter) StreamComplete(ctx context.Context, messages []Message, opts Options) (*Stream, error) {
	if a.apiKey == "" {
		return nil, &Error{Kind: KindAuth, Provider: ProviderAnthropic, Message: "API key is required"}
	}

	body := a.buildRequest(messages, opts, false)
	body.Stream = true

	var stream *Stream
	err := a.retry.do(ctx, ProviderAnthropic, func() error {
		resp, err := a.post(ctx, "/messages", body)
		if err != nil {
			return err
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		stream = newStream(
			func() (string, error) {
				for scanner.Scan() {
					line := scanner.Text()
					if !strings.HasPrefix(line, "data: ") {
						continue
					}
					var chunk struct {
						Type  string `json:"type"`
						Delta struct {
							Text string `json:"text"`
						} `json:"delta"`
					}
					if err := json.Unmarshal([]byte(line[len("data: "):]), &chunk); err != nil {
						continue
					}
					switch chunk.Type {
					case "content_block_delta":
						return chunk.Delta.Text, nil
					case "message_stop":
						return "", io.EOF
					}
				}
				if err := scanner.Err(); err != nil {
					return "", err
				}
				return "", io.EOF
			},
			func() { resp.Body.Close() },
		)
		return nil
	})
	return stream, err
}

func (a *anthropicAdapter) CompleteWithTools(ctx context.Context, messages []Message, tools []ToolDefinition, opts Options) (string, []ToolCall, error) {
	if a.apiKey == "" {
		return "", nil, &Error{Kind: KindAuth, Provider: ProviderAnthropic, Message: "API key is required"}
	}

	body := a.buildRequest(messages, opts, true)
	for _, t := range tools {
		body.Tools = append(body.Tools, anthropicTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
	}

	resp, err := a.post(ctx, "/messages", body)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", nil, &Error{Kind: KindUpstream, Provider: ProviderAnthropic, Message: fmt.Sprintf("decoding response: %v", err)}
	}

	var parts []string
	var calls []ToolCall
	for _, block := range parsed.Content {
		switch block.Type {
		case "text":
			parts = append(parts, block.Text)
		case "tool_use":
			// Input is already a decoded mapping on this wire format.
			args := block.Input
			if args == nil {
				args = map[string]any{}
			}
			calls = append(calls, ToolCall{ID: block.ID, Name: block.Name, Arguments: args})
		}
	}
	return strings.Join(parts, " "), calls, nil
}

func (a *anthropicAdapter) ListModels(ctx context.Context) ([]ModelInfo, error) {
	if a.apiKey == "" {
		return nil, &Error{Kind: KindAuth, Provider: ProviderAnthropic, Message: "API key is required"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindUpstream, Provider: ProviderAnthropic, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return slices.Clone(anthropicFallbackModels), nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, a.apiError(resp)
	}

	type modelEntry struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		CreatedAt   string `json:"created_at"`
	}
	var parsed struct {
		Data []modelEntry `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &Error{Kind: KindUpstream, Provider: ProviderAnthropic, Message: fmt.Sprintf("decoding response: %v", err)}
	}

	// Newest first, the order the API documents.
	slices.SortFunc(parsed.Data, func(x, y modelEntry) int {
		return strings.Compare(y.CreatedAt, x.CreatedAt)
	})

	models := make([]ModelInfo, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		name := m.DisplayName
		if name == "" {
			name = displayName(m.ID)
		}
		models = append(models, ModelInfo{ID: m.ID, Name: name, OwnedBy: "anthropic"})
	}
	return models, nil
}

// buildRequest converts the message list into the Anthropic shape: any
// system turn moves into the top-level system field. On the plain paths tool
// turns are not forwarded; tool traffic belongs to CompleteWithTools only.
func (a *anthropicAdapter) buildRequest(messages []Message, opts Options, withTools bool) anthropicRequest {
	req := anthropicRequest{
		Model:       a.model,
		MaxTokens:   1000,
		Temperature: 0.7,
	}
	if opts.Model != "" {
		req.Model = opts.Model
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			req.System = m.Content
		case RoleTool:
			if withTools {
				req.Messages = append(req.Messages, anthropicTurn{
					Role: RoleUser,
					Content: []map[string]any{{
						"type":        "tool_result",
						"tool_use_id": m.ToolCallID,
						"content":     m.Content,
					}},
				})
			}
		case RoleUser, RoleAssistant:
			req.Messages = append(req.Messages, anthropicTurn{Role: m.Role, Content: m.Content})
		}
	}
	return req
}

func (a *anthropicAdapter) post(ctx context.Context, path string, body anthropicRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")
	if len(body.Tools) > 0 {
		req.Header.Set("anthropic-beta", anthropicToolsBeta)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindUpstream, Provider: ProviderAnthropic, Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, a.apiError(resp)
	}
	return resp, nil
}

// apiError reads an error response body and maps it onto the taxonomy.
func (a *anthropicAdapter) apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))

	message := strings.TrimSpace(string(raw))
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		message = parsed.Error.Message
	}

	return &Error{
		Kind:       kindForStatus(resp.StatusCode),
		Provider:   ProviderAnthropic,
		Status:     resp.StatusCode,
		Message:    message,
		RetryAfter: parseRetryAfter(resp.Header.Get("retry-after")),
	}
}
