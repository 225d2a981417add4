package provider

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
)

// ollamaAdapter talks to a local Ollama server. The generate API has no
// structured chat format, so the message list is linearized into a single
// prompt with role prefixes ending in an open assistant continuation.
// Streaming is line-delimited JSON rather than SSE.
type ollamaAdapter struct {
	httpClient *http.Client
	baseURL    string
	model      string
	retry      retrier
}

func newOllama(cfg Config) *ollamaAdapter {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	model := cfg.Model
	if model == "" {
		model = "llama2"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		// Local generation tends to be slower than hosted APIs.
		timeout = 60 * time.Second
	}
	return &ollamaAdapter{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		retry:      newRetrier(),
	}
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

func (a *ollamaAdapter) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	body := a.buildRequest(messages, opts, false)

	var content string
	err := a.retry.do(ctx, ProviderOllama, func() error {
		resp, err := a.post(ctx, body)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		var parsed struct {
			Response string `json:"response"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return &Error{Kind: KindUpstream, Provider: ProviderOllama, Message: fmt.Sprintf("decoding response: %v", err)}
		}
		content = parsed.Response
		return nil
	})
	return content, err
}

func (a *ollamaAdapter) StreamComplete(ctx context.Context, messages []Message, opts Options) (*Stream, error) {
	body := a.buildRequest(messages, opts, true)

	var stream *Stream
	err := a.retry.do(ctx, ProviderOllama, func() error {
		resp, err := a.post(ctx, body)
		if err != nil {
			return err
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		done := false
		stream = newStream(
			func() (string, error) {
				if done {
					return "", io.EOF
				}
				for scanner.Scan() {
					var chunk struct {
						Response string `json:"response"`
						Done     bool   `json:"done"`
					}
					if err := json.Unmarshal(scanner.Bytes(), &chunk); err != nil {
						continue
					}
					// The final line may still carry a fragment; yield it and
					// end the sequence on the next read.
					done = chunk.Done
					return chunk.Response, nil
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

// CompleteWithTools falls back to a plain completion; the generate API has
// no tool-calling support.
func (a *ollamaAdapter) CompleteWithTools(ctx context.Context, messages []Message, _ []ToolDefinition, opts Options) (string, []ToolCall, error) {
	content, err := a.Complete(ctx, messages, opts)
	return content, nil, err
}

func (a *ollamaAdapter) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		// Server not running; nothing to list.
		return []ModelInfo{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, a.apiError(resp)
	}

	var parsed struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &Error{Kind: KindUpstream, Provider: ProviderOllama, Message: fmt.Sprintf("decoding response: %v", err)}
	}

	models := make([]ModelInfo, 0, len(parsed.Models))
	for _, m := range parsed.Models {
		models = append(models, ModelInfo{
			ID:   m.Name,
			Name: displayName(strings.ReplaceAll(m.Name, ":", " ")),
		})
	}
	return models, nil
}

func (a *ollamaAdapter) buildRequest(messages []Message, opts Options, stream bool) ollamaRequest {
	req := ollamaRequest{
		Model:  a.model,
		Prompt: linearizePrompt(messages),
		Stream: stream,
		Options: ollamaOptions{
			Temperature: 0.7,
			NumPredict:  1000,
		},
	}
	if opts.Model != "" {
		req.Model = opts.Model
	}
	if opts.Temperature != nil {
		req.Options.Temperature = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		req.Options.NumPredict = opts.MaxTokens
	}
	return req
}

// linearizePrompt flattens a chat transcript into the single-prompt format
// the generate API expects, ending in an open assistant continuation.
func linearizePrompt(messages []Message) string {
	var b strings.Builder
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			fmt.Fprintf(&b, "System: %s\n\n", m.Content)
		case RoleUser:
			fmt.Fprintf(&b, "User: %s\n\n", m.Content)
		default:
			fmt.Fprintf(&b, "Assistant: %s\n\n", m.Content)
		}
	}
	b.WriteString("Assistant: ")
	return b.String()
}

func (a *ollamaAdapter) post(ctx context.Context, body ollamaRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindUpstream, Provider: ProviderOllama, Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, a.apiError(resp)
	}
	return resp, nil
}

func (a *ollamaAdapter) apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	return &Error{
		Kind:       kindForStatus(resp.StatusCode),
		Provider:   ProviderOllama,
		Status:     resp.StatusCode,
		Message:    strings.TrimSpace(string(raw)),
		RetryAfter: parseRetryAfter(resp.Header.Get("retry-after")),
	}
}
