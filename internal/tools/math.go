package tools

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/benchpipe/benchpipe/internal/provider"
)

// MathTool evaluates arithmetic and list expressions over a whitelisted
// grammar: numbers, + - * / % ** with unary +/-, parentheses, list literals,
// and a fixed set of functions. Everything else, including identifiers
// outside the function allow-list, strings, and attribute access, is
// rejected at parse or evaluation time. This is a safety boundary, not a
// general expression language.
type MathTool struct{}

// NewMathTool builds the math expression evaluator.
func NewMathTool() *MathTool {
	return &MathTool{}
}

func (t *MathTool) Name() string { return "math_eval" }

func (t *MathTool) Definition() provider.ToolDefinition {
	return provider.ToolDefinition{
		Name:        t.Name(),
		Description: "Evaluate mathematical expressions safely",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"expression": map[string]any{
					"type":        "string",
					"description": "The mathematical expression to evaluate",
				},
			},
			"required": []any{"expression"},
		},
	}
}

func (t *MathTool) Execute(_ context.Context, args map[string]any) (map[string]any, error) {
	expression, _ := args["expression"].(string)
	if expression == "" {
		return map[string]any{
			"expression": expression,
			"error":      "Invalid expression: expression is required",
			"result":     nil,
		}, nil
	}

	result, err := evalExpression(expression)
	if err != nil {
		return map[string]any{
			"expression": expression,
			"error":      err.Error(),
			"result":     nil,
		}, nil
	}

	return map[string]any{
		"expression": expression,
		"result":     result,
		"type":       resultType(result),
	}, nil
}

func resultType(v any) string {
	switch n := v.(type) {
	case []any:
		return "list"
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return "int"
		}
		return "float"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// mathFuncs is the function allow-list. Each implementation receives the
// already-evaluated argument values.
var mathFuncs = map[string]func(args []any) (any, error){
	"abs": func(args []any) (any, error) {
		x, err := oneNumber("abs", args)
		if err != nil {
			return nil, err
		}
		return math.Abs(x), nil
	},
	"round": func(args []any) (any, error) {
		if len(args) < 1 || len(args) > 2 {
			return nil, fmt.Errorf("Math error: round expects 1 or 2 arguments")
		}
		x, err := asNumber(args[0])
		if err != nil {
			return nil, err
		}
		if len(args) == 1 {
			return math.Round(x), nil
		}
		digits, err := asNumber(args[1])
		if err != nil {
			return nil, err
		}
		scale := math.Pow(10, math.Trunc(digits))
		return math.Round(x*scale) / scale, nil
	},
	"min": func(args []any) (any, error) {
		nums, err := numberArgs("min", args)
		if err != nil {
			return nil, err
		}
		result := nums[0]
		for _, n := range nums[1:] {
			result = math.Min(result, n)
		}
		return result, nil
	},
	"max": func(args []any) (any, error) {
		nums, err := numberArgs("max", args)
		if err != nil {
			return nil, err
		}
		result := nums[0]
		for _, n := range nums[1:] {
			result = math.Max(result, n)
		}
		return result, nil
	},
	"sum": func(args []any) (any, error) {
		nums, err := numberArgs("sum", args)
		if err != nil {
			return nil, err
		}
		total := 0.0
		for _, n := range nums {
			total += n
		}
		return total, nil
	},
	"len": func(args []any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("Math error: len expects 1 argument")
		}
		list, ok := args[0].([]any)
		if !ok {
			return nil, fmt.Errorf("Math error: len expects a list")
		}
		return float64(len(list)), nil
	},
}

func oneNumber(name string, args []any) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("Math error: %s expects 1 argument", name)
	}
	return asNumber(args[0])
}

func asNumber(v any) (float64, error) {
	n, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("Math error: expected a number, got %s", resultType(v))
	}
	return n, nil
}

// numberArgs flattens the argument list for aggregate functions: either a
// single list argument or one-or-more numbers.
func numberArgs(name string, args []any) ([]float64, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("Math error: %s expects at least 1 argument", name)
	}
	values := args
	if len(args) == 1 {
		if list, ok := args[0].([]any); ok {
			values = list
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("Math error: %s of empty list", name)
	}
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		n, err := asNumber(v)
		if err != nil {
			return nil, err
		}
		nums = append(nums, n)
	}
	return nums, nil
}

// evalExpression parses and evaluates an expression in one recursive-descent
// pass. The value space is float64 and lists of float64.
func evalExpression(input string) (any, error) {
	p := &exprParser{input: input}
	p.next()
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("Invalid expression: unexpected %q", p.tok.text)
	}
	return value, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp // single or double character operator/punctuation
)

type token struct {
	kind  tokenKind
	text  string
	value float64
}

type exprParser struct {
	input string
	pos   int
	tok   token
	err   error
}

func (p *exprParser) next() {
	if p.err != nil {
		return
	}
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
	if p.pos >= len(p.input) {
		p.tok = token{kind: tokEOF}
		return
	}

	c := p.input[p.pos]
	switch {
	case c >= '0' && c <= '9' || c == '.':
		start := p.pos
		for p.pos < len(p.input) && (p.input[p.pos] >= '0' && p.input[p.pos] <= '9' || p.input[p.pos] == '.') {
			p.pos++
		}
		text := p.input[start:p.pos]
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			p.err = fmt.Errorf("Invalid expression: bad number %q", text)
			return
		}
		p.tok = token{kind: tokNumber, text: text, value: value}
	case unicode.IsLetter(rune(c)) || c == '_':
		start := p.pos
		for p.pos < len(p.input) {
			r := rune(p.input[p.pos])
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				break
			}
			p.pos++
		}
		p.tok = token{kind: tokIdent, text: p.input[start:p.pos]}
	case strings.HasPrefix(p.input[p.pos:], "**"):
		p.pos += 2
		p.tok = token{kind: tokOp, text: "**"}
	case strings.ContainsRune("+-*/%()[],", rune(c)):
		p.pos++
		p.tok = token{kind: tokOp, text: string(c)}
	default:
		p.err = fmt.Errorf("Invalid expression: unexpected character %q", string(c))
	}
}

func (p *exprParser) accept(text string) bool {
	if p.err == nil && p.tok.kind == tokOp && p.tok.text == text {
		p.next()
		return true
	}
	return false
}

func (p *exprParser) expect(text string) error {
	if p.err != nil {
		return p.err
	}
	if !p.accept(text) {
		return fmt.Errorf("Invalid expression: expected %q, got %q", text, p.tok.text)
	}
	return nil
}

func (p *exprParser) parseExpr() (any, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("+"):
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left, err = binaryNumeric("+", left, right, func(a, b float64) (float64, error) { return a + b, nil })
			if err != nil {
				return nil, err
			}
		case p.accept("-"):
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left, err = binaryNumeric("-", left, right, func(a, b float64) (float64, error) { return a - b, nil })
			if err != nil {
				return nil, err
			}
		default:
			return left, p.err
		}
	}
}

func (p *exprParser) parseTerm() (any, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("*"):
			right, err := p.parsePower()
			if err != nil {
				return nil, err
			}
			left, err = binaryNumeric("*", left, right, func(a, b float64) (float64, error) { return a * b, nil })
			if err != nil {
				return nil, err
			}
		case p.accept("/"):
			right, err := p.parsePower()
			if err != nil {
				return nil, err
			}
			left, err = binaryNumeric("/", left, right, func(a, b float64) (float64, error) {
				if b == 0 {
					return 0, fmt.Errorf("Math error: division by zero")
				}
				return a / b, nil
			})
			if err != nil {
				return nil, err
			}
		case p.accept("%"):
			right, err := p.parsePower()
			if err != nil {
				return nil, err
			}
			left, err = binaryNumeric("%", left, right, func(a, b float64) (float64, error) {
				if b == 0 {
					return 0, fmt.Errorf("Math error: division by zero")
				}
				return math.Mod(a, b), nil
			})
			if err != nil {
				return nil, err
			}
		default:
			return left, p.err
		}
	}
}

// parsePower handles the right-associative exponentiation operator.
func (p *exprParser) parsePower() (any, error) {
	base, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.accept("**") {
		exponent, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		return binaryNumeric("**", base, exponent, func(a, b float64) (float64, error) { return math.Pow(a, b), nil })
	}
	return base, p.err
}

func (p *exprParser) parseUnary() (any, error) {
	if p.accept("-") {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		n, err := asNumber(operand)
		if err != nil {
			return nil, err
		}
		return -n, nil
	}
	if p.accept("+") {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return asNumber(operand)
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (any, error) {
	if p.err != nil {
		return nil, p.err
	}

	switch p.tok.kind {
	case tokNumber:
		value := p.tok.value
		p.next()
		return value, p.err

	case tokIdent:
		name := p.tok.text
		fn, allowed := mathFuncs[name]
		if !allowed {
			return nil, fmt.Errorf("Invalid expression: function %s not allowed", name)
		}
		p.next()
		if err := p.expect("("); err != nil {
			return nil, err
		}
		args, err := p.parseExprList(")")
		if err != nil {
			return nil, err
		}
		return fn(args)

	case tokOp:
		switch p.tok.text {
		case "(":
			p.next()
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return value, nil
		case "[":
			p.next()
			elems, err := p.parseExprList("]")
			if err != nil {
				return nil, err
			}
			return elems, nil
		}
	}
	return nil, fmt.Errorf("Invalid expression: unexpected %q", p.tok.text)
}

// parseExprList parses a comma-separated expression list up to the closing
// delimiter, which has NOT been consumed yet but whose opener has.
func (p *exprParser) parseExprList(closer string) ([]any, error) {
	var elems []any
	if p.accept(closer) {
		return elems, nil
	}
	for {
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, value)
		if p.accept(",") {
			continue
		}
		if err := p.expect(closer); err != nil {
			return nil, err
		}
		return elems, nil
	}
}

func binaryNumeric(op string, left, right any, apply func(a, b float64) (float64, error)) (any, error) {
	a, err := asNumber(left)
	if err != nil {
		return nil, fmt.Errorf("Math error: operator %s expects numbers", op)
	}
	b, err := asNumber(right)
	if err != nil {
		return nil, fmt.Errorf("Math error: operator %s expects numbers", op)
	}
	return apply(a, b)
}
