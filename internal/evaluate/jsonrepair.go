package evaluate

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/benchpipe/benchpipe/internal/provider"
)

const jsonFixAttempts = 3

const jsonFixPrompt = `Fix this JSON to be valid. Return ONLY the fixed JSON, no explanation:

{text}

Fixed JSON:`

// jsonFixes is the fixed sequence of syntactic repairs. Each one is applied
// to the original text independently, not cumulatively, so a document that
// needs two structural repairs at once is not rescued here.
var jsonFixes = []func(string) string{
	strings.TrimSpace,
	func(t string) string { return strings.ReplaceAll(t, "'", `"`) },
	stripCodeFence,
	func(t string) string {
		if !strings.HasPrefix(strings.TrimSpace(t), "{") {
			return "{" + t
		}
		return t
	},
	func(t string) string {
		if !strings.HasSuffix(strings.TrimSpace(t), "}") {
			return t + "}"
		}
		return t
	},
}

// RepairJSON recovers a JSON object from raw judge-model output. The chain
// short-circuits on first success: direct parse, then the syntactic repairs
// in order, then up to jsonFixAttempts judge-assisted corrections. Returns
// ok=false when nothing yields a parseable object.
func RepairJSON(ctx context.Context, text string, judge provider.Adapter) (map[string]any, bool) {
	if doc, ok := tryParse(text); ok {
		return doc, true
	}

	for _, fix := range jsonFixes {
		if doc, ok := tryParse(fix(text)); ok {
			return doc, true
		}
	}

	if judge == nil {
		return nil, false
	}

	prompt := strings.Replace(jsonFixPrompt, "{text}", text, 1)
	for attempt := 1; attempt <= jsonFixAttempts; attempt++ {
		reply, err := judge.Complete(ctx, []provider.Message{
			{Role: provider.RoleUser, Content: prompt},
		}, provider.Options{})
		if err != nil {
			slog.Warn("JSON fix attempt failed", "attempt", attempt, "error", err)
			continue
		}
		if doc, ok := tryParse(strings.TrimSpace(reply)); ok {
			return doc, true
		}
		slog.Warn("JSON fix attempt returned unparseable output", "attempt", attempt)
	}
	return nil, false
}

func tryParse(text string) (map[string]any, bool) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, false
	}
	return doc, true
}

// stripCodeFence removes a surrounding markdown code fence.
func stripCodeFence(text string) string {
	t := strings.TrimSpace(text)
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}
