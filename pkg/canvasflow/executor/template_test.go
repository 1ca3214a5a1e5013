package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	vars := map[string]any{"name": "World", "port": 8080, "portNumber": 9090}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"brace", "Hello ${name}", "Hello World"},
		{"dollar", "Hello $name!", "Hello World!"},
		{"number", "port=$port", "port=8080"},
		{"longest name wins", "$portNumber", "9090"},
		{"missing kept", "${nope} and $nope", "${nope} and $nope"},
		{"adjacent", "${name}${name}", "WorldWorld"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.in, vars, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpand_Strict(t *testing.T) {
	_, err := Expand("${b} $a ${b} $name", map[string]any{"name": "x"}, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUndefinedVariable))

	var uerr *UndefinedVariableError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, []string{"a", "b"}, uerr.Names)

	got, err := Expand("$name", map[string]any{"name": "x"}, true)
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}

func TestTemplateVars(t *testing.T) {
	node := NodeConfig{
		Title:      "T",
		Properties: map[string]any{"template": "ignored", "strict": true, "tone": "calm"},
	}
	vars := TemplateVars(node, Inputs{5: "second", 1: "first"})

	assert.Equal(t, map[string]any{
		"title":  "T",
		"tone":   "calm",
		"input":  "first",
		"input1": "first",
		"input2": "second",
	}, vars)
}

func TestTextTemplate_StrictFailureIsExecutorError(t *testing.T) {
	r := NewBuiltinRegistry()
	node := NodeConfig{ID: 3, Type: TypeTextTemplate, Properties: map[string]any{"template": "$missing", "strict": true}}

	_, err := r.Dispatch(context.Background(), node, nil)
	var eerr *ExecutorError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, TypeTextTemplate, eerr.Type)
	assert.ErrorIs(t, err, ErrUndefinedVariable)
}
