package bench

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"time"

	"github.com/benchpipe/benchpipe/internal/evaluate"
)

// Event type discriminators carried in each event's event_type field.
const (
	EventTypeAnswer  = "answer"
	EventTypeTool    = "tool"
	EventTypeEval    = "eval"
	EventTypeSummary = "summary"
)

// Event is one entry in a benchmark run's ordered, timestamped progress
// record.
type Event interface {
	// Kind returns the event_type discriminator.
	Kind() string
}

// Emit receives events in emission order. The transport layer owns delivery
// to the caller; the runner only guarantees ordering.
type Emit func(Event)

// AnswerEvent records a model's final answer for one prompt.
type AnswerEvent struct {
	EventType  string    `json:"event_type"`
	Timestamp  time.Time `json:"timestamp"`
	PromptID   string    `json:"prompt_id"`
	PromptHash string    `json:"prompt_hash"`
	Content    string    `json:"content"`
	Model      string    `json:"model"`
	Provider   string    `json:"provider"`
	LatencyMS  float64   `json:"latency_ms"`
}

func (e AnswerEvent) Kind() string { return e.EventType }

// ToolEvent records one tool invocation, emitted immediately after the tool
// executes and before the follow-up completion call.
type ToolEvent struct {
	EventType  string         `json:"event_type"`
	Timestamp  time.Time      `json:"timestamp"`
	PromptID   string         `json:"prompt_id"`
	ToolName   string         `json:"tool_name"`
	ToolArgs   map[string]any `json:"tool_args"`
	ToolResult any            `json:"tool_result"`
	Error      string         `json:"error,omitempty"`
}

func (e ToolEvent) Kind() string { return e.EventType }

// EvalEvent records the evaluation result for one prompt.
type EvalEvent struct {
	EventType string          `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	PromptID  string          `json:"prompt_id"`
	Result    evaluate.Result `json:"result"`
}

func (e EvalEvent) Kind() string { return e.EventType }

// SummaryEvent closes a run with aggregate counts. Exactly one is emitted
// per run, even when setup fails before any prompt is processed.
type SummaryEvent struct {
	EventType       string    `json:"event_type"`
	Timestamp       time.Time `json:"timestamp"`
	RunID           string    `json:"run_id"`
	TotalPrompts    int       `json:"total_prompts"`
	Passed          int       `json:"passed"`
	Failed          int       `json:"failed"`
	AverageScore    float64   `json:"average_score"`
	TotalDurationMS float64   `json:"total_duration_ms"`
	Errors          []string  `json:"errors"`
}

func (e SummaryEvent) Kind() string { return e.EventType }

// PromptHash computes the deterministic SHA-256 content hash stamped on
// answer events.
func PromptHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// NDJSONEmitter returns an Emit that writes each event as one JSON object
// per line, the run's external output format.
func NDJSONEmitter(w io.Writer) Emit {
	enc := json.NewEncoder(w)
	return func(ev Event) {
		_ = enc.Encode(ev)
	}
}

func now() time.Time {
	return time.Now().UTC()
}
