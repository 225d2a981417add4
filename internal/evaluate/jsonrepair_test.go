package evaluate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchpipe/benchpipe/internal/testutil"
)

func TestRepairJSONDirectParse(t *testing.T) {
	doc, ok := RepairJSON(context.Background(), `{"score": 0.8, "passed": true}`, nil)
	require.True(t, ok)
	assert.Equal(t, 0.8, doc["score"])
}

func TestRepairJSONSyntacticFixes(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"surrounding whitespace", "  {\"score\": 1}  \n"},
		{"single quotes", `{'score': 1, 'passed': true}`},
		{"code fence", "```json\n{\"score\": 1}\n```"},
		{"bare code fence", "```\n{\"score\": 1}\n```"},
		{"missing opening brace", `"score": 1}`},
		{"missing closing brace", `{"score": 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, ok := RepairJSON(context.Background(), tt.text, nil)
			require.True(t, ok)
			assert.Equal(t, 1.0, doc["score"])
		})
	}
}

func TestRepairJSONFixesAreIndependent(t *testing.T) {
	// Missing both braces needs two repairs at once; the syntactic pass must
	// not rescue it.
	_, ok := RepairJSON(context.Background(), `"score": 1`, nil)
	assert.False(t, ok)
}

func TestRepairJSONJudgeAssisted(t *testing.T) {
	judge := &testutil.MockAdapter{DefaultResponse: `{"score": 0.7}`}

	doc, ok := RepairJSON(context.Background(), `"score": 0.7`, judge)
	require.True(t, ok)
	assert.Equal(t, 0.7, doc["score"])
	assert.Equal(t, 1, judge.Calls)

	// The fix prompt embeds the broken text.
	require.Len(t, judge.LastMessages, 1)
	assert.Contains(t, judge.LastMessages[0].Content, `"score": 0.7`)
	assert.Contains(t, judge.LastMessages[0].Content, "Fix this JSON")
}

func TestRepairJSONJudgeGivesUp(t *testing.T) {
	judge := &testutil.MockAdapter{DefaultResponse: "still not json"}

	_, ok := RepairJSON(context.Background(), `"score": 1`, judge)
	assert.False(t, ok)
	assert.Equal(t, jsonFixAttempts, judge.Calls)
}

func TestRepairJSONNonObjectFails(t *testing.T) {
	_, ok := RepairJSON(context.Background(), "a plain sentence", nil)
	assert.False(t, ok)
}
