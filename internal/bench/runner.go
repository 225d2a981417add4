package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/benchpipe/benchpipe/internal/evaluate"
	"github.com/benchpipe/benchpipe/internal/provider"
	"github.com/benchpipe/benchpipe/internal/tools"
)

// AdapterFactory builds the adapter for a provider/model pair. The runner
// calls it once for the provider under test and, for llm_as_judge requests,
// once more for the judge.
type AdapterFactory func(providerName, model string) (provider.Adapter, error)

// Runner executes benchmark requests. It is stateless across runs; all
// per-run state lives on the stack of Run.
type Runner struct {
	factory  AdapterFactory
	registry *tools.Registry
}

// NewRunner builds a runner. The registry may be nil, which disables the
// tool round trip regardless of request settings.
func NewRunner(factory AdapterFactory, registry *tools.Registry) *Runner {
	return &Runner{factory: factory, registry: registry}
}

// Run drives every prompt in the request through completion and evaluation,
// delivering progress through emit. It does not return an error: failures
// are reported in the event stream, and every run ends with exactly one
// summary event.
func (r *Runner) Run(ctx context.Context, req Request, emit Emit) {
	runID := uuid.NewString()
	start := time.Now()

	slog.Info("starting benchmark run",
		"run_id", runID,
		"name", req.Name,
		"provider", req.Provider,
		"model", req.Model,
		"prompts", len(req.Prompts))

	adapter, err := r.factory(req.Provider, req.Model)
	if err != nil {
		slog.Error("failed to create provider adapter", "provider", req.Provider, "error", err)
		emitSetupFailure(emit, runID, req, start, fmt.Errorf("creating %s adapter: %w", req.Provider, err))
		return
	}

	evalType := req.EvalType
	if evalType == "" {
		evalType = evaluate.TypeBasic
	}

	var judge provider.Adapter
	if evalType == evaluate.TypeLLMAsJudge {
		judgeProvider := stringSetting(req.EvalConfig, "evaluator_provider", req.Provider)
		judgeModel := stringSetting(req.EvalConfig, "evaluator_model", req.Model)
		judge, err = r.factory(judgeProvider, judgeModel)
		if err != nil {
			slog.Error("failed to create judge adapter", "provider", judgeProvider, "error", err)
			emitSetupFailure(emit, runID, req, start, fmt.Errorf("creating %s judge adapter: %w", judgeProvider, err))
			return
		}
	}

	evaluator := evaluate.New(evalType, req.EvalConfig, judge)

	var (
		passed   int
		failed   int
		scoreSum float64
		errs     []string
	)

	for i, prompt := range req.Prompts {
		if ctx.Err() != nil {
			slog.Warn("benchmark run cancelled", "run_id", runID, "completed", i, "total", len(req.Prompts))
			errs = append(errs, fmt.Sprintf("run cancelled after %d of %d prompts", i, len(req.Prompts)))
			break
		}

		result, promptErr := r.runPrompt(ctx, adapter, evaluator, req, prompt, emit)
		if promptErr != nil {
			slog.Error("prompt execution failed", "run_id", runID, "prompt_id", prompt.ID, "error", promptErr)
			errs = append(errs, fmt.Sprintf("error processing prompt %s: %s", prompt.ID, promptErr))
			result = evaluate.Result{PromptID: prompt.ID, Error: promptErr.Error()}
			emit(EvalEvent{
				EventType: EventTypeEval,
				Timestamp: now(),
				PromptID:  prompt.ID,
				Result:    result,
			})
		}

		scoreSum += result.Score
		if result.Passed {
			passed++
		} else {
			failed++
		}
	}

	avg := 0.0
	if n := passed + failed; n > 0 {
		avg = scoreSum / float64(n)
	}

	slog.Info("benchmark run complete",
		"run_id", runID,
		"passed", passed,
		"failed", failed,
		"average_score", avg)

	emit(SummaryEvent{
		EventType:       EventTypeSummary,
		Timestamp:       now(),
		RunID:           runID,
		TotalPrompts:    len(req.Prompts),
		Passed:          passed,
		Failed:          failed,
		AverageScore:    avg,
		TotalDurationMS: float64(time.Since(start).Milliseconds()),
		Errors:          errs,
	})
}

// runPrompt takes one prompt through completion, the optional tool round
// trip, and evaluation. On error nothing has been emitted for this prompt
// except tool events that already happened; the caller emits the failure
// eval event.
func (r *Runner) runPrompt(ctx context.Context, adapter provider.Adapter, evaluator *evaluate.Evaluator, req Request, prompt Prompt, emit Emit) (evaluate.Result, error) {
	messages := make([]provider.Message, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, provider.Message{Role: provider.RoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, provider.Message{Role: provider.RoleUser, Content: prompt.Content})

	opts := provider.Options{Model: req.Model}

	useTools := r.registry != nil &&
		(boolSetting(req.EvalConfig, "enable_tools") || boolSetting(prompt.Metadata, "enable_tools"))

	promptStart := time.Now()

	var answer string
	if useTools {
		content, calls, err := adapter.CompleteWithTools(ctx, messages, r.registry.Definitions(), opts)
		if err != nil {
			return evaluate.Result{}, err
		}
		answer = content
		if len(calls) > 0 {
			answer, err = r.runToolCalls(ctx, adapter, messages, content, calls, opts, prompt.ID, emit)
			if err != nil {
				return evaluate.Result{}, err
			}
		}
	} else {
		content, err := adapter.Complete(ctx, messages, opts)
		if err != nil {
			return evaluate.Result{}, err
		}
		answer = content
	}

	emit(AnswerEvent{
		EventType:  EventTypeAnswer,
		Timestamp:  now(),
		PromptID:   prompt.ID,
		PromptHash: PromptHash(prompt.Content),
		Content:    answer,
		Model:      req.Model,
		Provider:   req.Provider,
		LatencyMS:  float64(time.Since(promptStart).Milliseconds()),
	})

	result := evaluator.Evaluate(ctx, evaluate.Input{
		Prompt:         prompt.Content,
		Response:       answer,
		ExpectedAnswer: stringSetting(prompt.Metadata, "expected_answer", ""),
		SystemPrompt:   req.SystemPrompt,
	})
	result.PromptID = prompt.ID

	emit(EvalEvent{
		EventType: EventTypeEval,
		Timestamp: now(),
		PromptID:  prompt.ID,
		Result:    result,
	})
	return result, nil
}

// runToolCalls executes each requested tool, emits a tool event per call,
// and issues the follow-up completion that folds the tool results into a
// final answer. The follow-up offers no tools, so the exchange terminates
// after one round.
func (r *Runner) runToolCalls(ctx context.Context, adapter provider.Adapter, messages []provider.Message, content string, calls []provider.ToolCall, opts provider.Options, promptID string, emit Emit) (string, error) {
	messages = append(messages, provider.Message{
		Role:      provider.RoleAssistant,
		Content:   content,
		ToolCalls: calls,
	})

	for _, call := range calls {
		result, execErr := r.executeTool(ctx, call)

		ev := ToolEvent{
			EventType:  EventTypeTool,
			Timestamp:  now(),
			PromptID:   promptID,
			ToolName:   call.Name,
			ToolArgs:   call.Arguments,
			ToolResult: result,
		}
		if execErr != nil {
			ev.Error = execErr.Error()
		}
		emit(ev)

		messages = append(messages, provider.Message{
			Role:       provider.RoleTool,
			Content:    toolResultText(result, execErr),
			ToolCallID: call.ID,
		})
	}

	return adapter.Complete(ctx, messages, opts)
}

func (r *Runner) executeTool(ctx context.Context, call provider.ToolCall) (map[string]any, error) {
	tool, ok := r.registry.Get(call.Name)
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", call.Name)
	}
	slog.Debug("executing tool", "tool", call.Name)
	return tool.Execute(ctx, call.Arguments)
}

// toolResultText renders a tool outcome as the message content fed back to
// the model.
func toolResultText(result map[string]any, execErr error) string {
	if execErr != nil {
		return fmt.Sprintf(`{"error": %q}`, execErr.Error())
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}

// emitSetupFailure closes a run that never processed a prompt: a single
// summary with every prompt counted as failed.
func emitSetupFailure(emit Emit, runID string, req Request, start time.Time, err error) {
	emit(SummaryEvent{
		EventType:       EventTypeSummary,
		Timestamp:       now(),
		RunID:           runID,
		TotalPrompts:    len(req.Prompts),
		Passed:          0,
		Failed:          len(req.Prompts),
		AverageScore:    0,
		TotalDurationMS: float64(time.Since(start).Milliseconds()),
		Errors:          []string{err.Error()},
	})
}
