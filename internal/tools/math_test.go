package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalMath(t *testing.T, expression string) map[string]any {
	t.Helper()
	result, err := NewMathTool().Execute(context.Background(), map[string]any{"expression": expression})
	require.NoError(t, err)
	return result
}

func TestMathEvalArithmetic(t *testing.T) {
	tests := []struct {
		expression string
		result     float64
		typ        string
	}{
		{"2 + 2", 4, "int"},
		{"10 - 3 * 2", 4, "int"},
		{"(10 - 3) * 2", 14, "int"},
		{"7 / 2", 3.5, "float"},
		{"10 % 3", 1, "int"},
		{"2 ** 10", 1024, "int"},
		{"2 ** 3 ** 2", 512, "int"},
		{"-5 + 3", -2, "int"},
		{"abs(-4.5)", 4.5, "float"},
		{"round(3.14159, 2)", 3.14, "float"},
		{"round(2.5)", 3, "int"},
		{"min(3, 1, 2)", 1, "int"},
		{"max([4, 9, 2])", 9, "int"},
		{"sum([1, 2, 3]) / len([1, 2, 3])", 2, "int"},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			result := evalMath(t, tt.expression)
			require.NotContains(t, result, "error")
			assert.Equal(t, tt.result, result["result"])
			assert.Equal(t, tt.typ, result["type"])
		})
	}
}

func TestMathEvalListResult(t *testing.T) {
	result := evalMath(t, "[1, 2, 1 + 2]")
	assert.Equal(t, []any{1.0, 2.0, 3.0}, result["result"])
	assert.Equal(t, "list", result["type"])
}

func TestMathEvalDivisionByZero(t *testing.T) {
	for _, expression := range []string{"10 / 0", "10 % 0"} {
		result := evalMath(t, expression)
		assert.Equal(t, "Math error: division by zero", result["error"], expression)
		assert.Nil(t, result["result"], expression)
	}
}

func TestMathEvalRejectsDisallowedInput(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		errPrefix  string
	}{
		{"unknown function", "eval(1)", "Invalid expression"},
		{"import attempt", "__import__('os')", "Invalid expression"},
		{"string literal", `"abc" + "def"`, "Invalid expression"},
		{"trailing garbage", "1 + 2; 3", "Invalid expression"},
		{"empty expression", "", "Invalid expression"},
		{"unclosed paren", "(1 + 2", "Invalid expression"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewMathTool().Execute(context.Background(), map[string]any{"expression": tt.expression})
			require.NoError(t, err)
			require.Contains(t, result, "error")
			assert.Contains(t, result["error"].(string), tt.errPrefix)
			assert.Nil(t, result["result"])
		})
	}
}

func TestMathEvalMissingArgument(t *testing.T) {
	result, err := NewMathTool().Execute(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "Invalid expression: expression is required", result["error"])
}

func TestMathToolDefinition(t *testing.T) {
	def := NewMathTool().Definition()
	assert.Equal(t, "math_eval", def.Name)
	assert.Equal(t, []any{"expression"}, def.Parameters["required"])
}
