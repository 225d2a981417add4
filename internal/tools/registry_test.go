package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryBuiltins(t *testing.T) {
	r := NewRegistry(Config{TavilyAPIKey: "test-key"})

	search, ok := r.Get("web_search")
	require.True(t, ok)
	assert.Equal(t, "web_search", search.Name())

	math, ok := r.Get("math_eval")
	require.True(t, ok)
	assert.Equal(t, "math_eval", math.Name())

	_, ok = r.Get("nonexistent")
	assert.False(t, ok)
}

func TestRegistryDefinitionsOrder(t *testing.T) {
	r := NewRegistry(Config{})

	defs := r.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "web_search", defs[0].Name)
	assert.Equal(t, "math_eval", defs[1].Name)
}

func TestRegistryRegisterReplaces(t *testing.T) {
	r := NewRegistry(Config{})
	before := len(r.Definitions())

	r.Register(NewMathTool())
	assert.Len(t, r.Definitions(), before)
}
