// Package evaluate scores model answers. Two policies are built in: a
// deterministic length heuristic and an LLM-as-judge rubric. The "custom"
// policy is a declared configuration point with no built-in behavior.
package evaluate

import (
	"context"
	"log/slog"

	"github.com/benchpipe/benchpipe/internal/provider"
)

// Evaluation policies selected by a benchmark request's eval_type.
const (
	TypeBasic      = "basic"
	TypeLLMAsJudge = "llm_as_judge"
	TypeCustom     = "custom"
)

// Result is the outcome of scoring one answer.
type Result struct {
	PromptID string         `json:"prompt_id"`
	Score    float64        `json:"score"`
	Passed   bool           `json:"passed"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Input carries everything a policy may need to score an answer.
type Input struct {
	Prompt         string
	Response       string
	ExpectedAnswer string
	SystemPrompt   string
}

// Evaluator applies one evaluation policy. The judge adapter may point at a
// different provider than the one under test; it is only consulted by the
// llm_as_judge policy.
type Evaluator struct {
	evalType string
	config   map[string]any
	judge    provider.Adapter
}

// New builds an evaluator for the given policy.
func New(evalType string, config map[string]any, judge provider.Adapter) *Evaluator {
	return &Evaluator{evalType: evalType, config: config, judge: judge}
}

// Evaluate scores an answer. It never returns an error: any judge or parse
// failure degrades to the neutral fallback result.
func (e *Evaluator) Evaluate(ctx context.Context, in Input) Result {
	switch {
	case e.evalType == TypeBasic:
		return basicResult(in.Response)
	case e.evalType == TypeLLMAsJudge && e.judge != nil:
		if result, ok := e.judgeResult(ctx, in); ok {
			return result
		}
	}
	return fallbackResult(e.evalType)
}

// basicResult is the deterministic heuristic: answers longer than 10
// characters score 1.0, shorter ones 0.5; only an empty answer fails.
func basicResult(response string) Result {
	score := 0.5
	if len(response) > 10 {
		score = 1.0
	}
	return Result{
		Score:   score,
		Passed:  len(response) > 0,
		Details: map[string]any{"length": len(response)},
	}
}

func (e *Evaluator) judgeResult(ctx context.Context, in Input) (Result, bool) {
	prompt := renderJudgePrompt(e.config, in)

	reply, err := e.judge.Complete(ctx, []provider.Message{
		{Role: provider.RoleUser, Content: prompt},
	}, provider.Options{})
	if err != nil {
		slog.Error("judge completion failed", "error", err)
		return Result{}, false
	}

	doc, ok := RepairJSON(ctx, reply, e.judge)
	if !ok {
		slog.Warn("judge reply could not be parsed", "reply_length", len(reply))
		return Result{}, false
	}

	score := 0.5
	if s, ok := doc["score"].(float64); ok {
		score = s
	}
	passed := true
	if p, ok := doc["passed"].(bool); ok {
		passed = p
	}
	return Result{Score: score, Passed: passed, Details: doc}, true
}

func fallbackResult(evalType string) Result {
	return Result{
		Score:  0.5,
		Passed: true,
		Details: map[string]any{
			"eval_type": evalType,
			"fallback":  true,
		},
	}
}
