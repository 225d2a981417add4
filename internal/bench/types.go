// Package bench orchestrates benchmark runs: it drives each prompt through
// answer generation, an optional tool round trip, and evaluation, emitting a
// typed event sequence as it goes.
package bench

// Prompt is a single prompt to evaluate. IDs are unique within a request
// but need not be globally unique. Metadata carries per-prompt settings such
// as enable_tools and expected_answer.
type Prompt struct {
	ID       string         `json:"id" yaml:"id"`
	Content  string         `json:"content" yaml:"content"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Request describes one benchmark run.
type Request struct {
	Name         string         `json:"name" yaml:"name"`
	Provider     string         `json:"provider" yaml:"provider"`
	Model        string         `json:"model" yaml:"model"`
	Prompts      []Prompt       `json:"prompts" yaml:"prompts"`
	EvalType     string         `json:"eval_type" yaml:"eval_type"`
	EvalConfig   map[string]any `json:"eval_config,omitempty" yaml:"eval_config,omitempty"`
	SystemPrompt string         `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
}

// boolSetting reads a boolean from a generic settings mapping.
func boolSetting(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	b, _ := m[key].(bool)
	return b
}

// stringSetting reads a string from a generic settings mapping, falling back
// to def when absent or empty.
func stringSetting(m map[string]any, key, def string) string {
	if m != nil {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return def
}
