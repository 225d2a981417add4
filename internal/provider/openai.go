package provider

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// compatDefaults holds the per-provider knobs of the OpenAI-compatible
// adapter. DeepSeek speaks the same wire protocol as OpenAI with a different
// endpoint and model catalog.
type compatDefaults struct {
	baseURL        string
	model          string
	fallbackModels []ModelInfo
	// noToolModels are models known to reject tool-augmented requests; calls
	// offering tools to them degrade to a plain completion.
	noToolModels []string
	// excludePatterns filters non-chat models out of the listing.
	excludePatterns []string
}

var openAIDefaults = compatDefaults{
	baseURL: "https://api.openai.com/v1",
	model:   "gpt-3.5-turbo",
	fallbackModels: []ModelInfo{
		{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", OwnedBy: "openai"},
		{ID: "gpt-4", Name: "GPT-4", OwnedBy: "openai"},
		{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", OwnedBy: "openai"},
		{ID: "gpt-3.5-turbo-16k", Name: "GPT-3.5 Turbo 16K", OwnedBy: "openai"},
	},
	noToolModels: []string{"gpt-3.5-turbo-0301", "gpt-4-0314", "gpt-4-32k-0314"},
	excludePatterns: []string{
		"0301", "0314", "0613", // deprecated date-pinned versions
		"embedding", "whisper", "tts", "dall-e", // non-chat modalities
		"davinci", "curie", "babbage", "ada", // legacy completion models
	},
}

var deepSeekDefaults = compatDefaults{
	baseURL: "https://api.deepseek.com/v1",
	model:   "deepseek-chat",
	fallbackModels: []ModelInfo{
		{ID: "deepseek-chat", Name: "DeepSeek Chat", OwnedBy: "deepseek"},
		{ID: "deepseek-reasoner", Name: "DeepSeek Reasoner", OwnedBy: "deepseek"},
	},
}

// openAICompat adapts any OpenAI-compatible chat backend.
type openAICompat struct {
	client   *openai.Client
	name     string
	apiKey   string
	model    string
	defaults compatDefaults
	retry    retrier
}

func newOpenAICompat(name string, cfg Config) *openAICompat {
	defaults := openAIDefaults
	if name == ProviderDeepSeek {
		defaults = deepSeekDefaults
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaults.baseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaults.model
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = baseURL
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &openAICompat{
		client:   openai.NewClientWithConfig(clientCfg),
		name:     name,
		apiKey:   cfg.APIKey,
		model:    model,
		defaults: defaults,
		retry:    newRetrier(),
	}
}

func (a *openAICompat) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	if err := a.requireKey(); err != nil {
		return "", err
	}

	req := a.buildRequest(messages, opts, nil)

	var content string
	err := a.retry.do(ctx, a.name, func() error {
		resp, err := a.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return a.wrapErr(err)
		}
		if len(resp.Choices) == 0 {
			return &Error{Kind: KindUpstream, Provider: a.name, Message: "no choices returned"}
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	return content, err
}

func (a *openAICompat) StreamComplete(ctx context.Context, messages []Message, opts Options) (*Stream, error) {
	if err := a.requireKey(); err != nil {
		return nil, err
	}

	req := a.buildRequest(messages, opts, nil)

	var stream *Stream
	err := a.retry.do(ctx, a.name, func() error {
		raw, err := a.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			return a.wrapErr(err)
		}
		stream = newStream(
			func() (string, error) {
				resp, err := raw.Recv()
				if err != nil {
					return "", err
				}
				if len(resp.Choices) > 0 {
					return resp.Choices[0].Delta.Content, nil
				}
				return "", nil
			},
			func() { raw.Close() },
		)
		return nil
	})
	return stream, err
}

func (a *openAICompat) CompleteWithTools(ctx context.Context, messages []Message, tools []ToolDefinition, opts Options) (string, []ToolCall, error) {
	if err := a.requireKey(); err != nil {
		return "", nil, err
	}

	model := opts.Model
	if model == "" {
		model = a.model
	}
	if slices.Contains(a.defaults.noToolModels, model) {
		slog.Warn("model does not support tool calling, falling back to plain completion",
			"provider", a.name, "model", model)
		content, err := a.Complete(ctx, messages, opts)
		return content, nil, err
	}

	req := a.buildRequest(messages, opts, tools)

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		wrapped := a.wrapErr(err)
		// Some backends only reveal missing tool support at request time.
		var pe *Error
		if errors.As(wrapped, &pe) && pe.Status == http.StatusBadRequest &&
			strings.Contains(pe.Message, "does not support") {
			slog.Warn("tool-augmented request rejected, falling back to plain completion",
				"provider", a.name, "model", model)
			content, err := a.Complete(ctx, messages, opts)
			return content, nil, err
		}
		return "", nil, wrapped
	}
	if len(resp.Choices) == 0 {
		return "", nil, &Error{Kind: KindUpstream, Provider: a.name, Message: "no choices returned"}
	}

	message := resp.Choices[0].Message
	calls := make([]ToolCall, 0, len(message.ToolCalls))
	for _, tc := range message.ToolCalls {
		// The wire format carries arguments as a serialized JSON string.
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				slog.Warn("failed to decode tool call arguments",
					"provider", a.name, "tool", tc.Function.Name, "error", err)
				args = map[string]any{}
			}
		}
		calls = append(calls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}

	return message.Content, calls, nil
}

func (a *openAICompat) ListModels(ctx context.Context) ([]ModelInfo, error) {
	if err := a.requireKey(); err != nil {
		return nil, err
	}

	list, err := a.client.ListModels(ctx)
	if err != nil {
		wrapped := a.wrapErr(err)
		if IsModelNotFound(wrapped) {
			slog.Warn("models endpoint not found, returning known models", "provider", a.name)
			return slices.Clone(a.defaults.fallbackModels), nil
		}
		return nil, wrapped
	}

	var models []ModelInfo
	for _, m := range list.Models {
		if a.excluded(m.ID) {
			continue
		}
		models = append(models, ModelInfo{
			ID:      m.ID,
			Name:    displayName(m.ID),
			OwnedBy: m.OwnedBy,
		})
	}
	if len(models) == 0 {
		return slices.Clone(a.defaults.fallbackModels), nil
	}

	slices.SortFunc(models, func(x, y ModelInfo) int {
		return strings.Compare(x.ID, y.ID)
	})
	return models, nil
}

func (a *openAICompat) requireKey() error {
	if a.apiKey == "" {
		return &Error{Kind: KindAuth, Provider: a.name, Message: "API key is required"}
	}
	return nil
}

func (a *openAICompat) excluded(modelID string) bool {
	lower := strings.ToLower(modelID)
	for _, pattern := range a.defaults.excludePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func (a *openAICompat) buildRequest(messages []Message, opts Options, tools []ToolDefinition) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    convertMessages(messages),
		Temperature: 0.7,
		MaxTokens:   1000,
	}
	if opts.Model != "" {
		req.Model = opts.Model
	}
	if opts.Temperature != nil {
		req.Temperature = float32(*opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if len(tools) > 0 {
		req.Tools = convertToolDefinitions(tools)
		req.ToolChoice = "auto"
	}
	return req
}

// convertMessages maps our message shape onto the OpenAI wire format,
// re-serializing tool call arguments into the string form it expects.
func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		switch {
		case m.Role == RoleTool:
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.Content,
				ToolCallID: m.ToolCallID,
			})
		case m.Role == RoleAssistant && len(m.ToolCalls) > 0:
			calls := make([]openai.ToolCall, 0, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				args, err := json.Marshal(tc.Arguments)
				if err != nil {
					args = []byte("{}")
				}
				calls = append(calls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: string(args),
					},
				})
			}
			out = append(out, openai.ChatCompletionMessage{
				Role:      openai.ChatMessageRoleAssistant,
				Content:   m.Content,
				ToolCalls: calls,
			})
		default:
			out = append(out, openai.ChatCompletionMessage{
				Role:    m.Role,
				Content: m.Content,
			})
		}
	}
	return out
}

func convertToolDefinitions(tools []ToolDefinition) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

// wrapErr maps go-openai client errors onto the uniform taxonomy.
func (a *openAICompat) wrapErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{
			Kind:     kindForStatus(apiErr.HTTPStatusCode),
			Provider: a.name,
			Status:   apiErr.HTTPStatusCode,
			Message:  apiErr.Message,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{
			Kind:     kindForStatus(reqErr.HTTPStatusCode),
			Provider: a.name,
			Status:   reqErr.HTTPStatusCode,
			Message:  reqErr.Error(),
		}
	}
	return &Error{Kind: KindUpstream, Provider: a.name, Message: err.Error()}
}

// displayName converts a model ID into a human-readable name.
func displayName(modelID string) string {
	words := strings.Split(strings.ReplaceAll(modelID, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
