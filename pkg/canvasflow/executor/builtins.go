package executor

import (
	"context"
	"fmt"
	"strings"
)

// Builtin executor types.
const (
	TypeTextInput   = "text-input"
	TypeTextCombine = "text-combine"
	TypeTextSplit   = "text-split"
	TypeOutput      = "output"
)

// RegisterBuiltins registers the data-transform executors:
//
//	text-input   (input)    properties.text, or "" when unset
//	text-combine (combine)  inputs joined with properties.separator (" ")
//	text-split   (split)    first input split on properties.separator ("\n")
//	text-template (template) properties.template filled from inputs, see Expand
//	output       (display)  first input, or nil
//
// Inputs are taken in connection order when NodeConfig.Upstream is set.
func RegisterBuiltins(r *Registry) {
	_ = r.RegisterFunc(TypeTextInput, textInput, "input")
	_ = r.RegisterFunc(TypeTextCombine, textCombine, "combine")
	_ = r.RegisterFunc(TypeTextSplit, textSplit, "split")
	_ = r.RegisterFunc(TypeTextTemplate, textTemplate, "template")
	_ = r.RegisterFunc(TypeOutput, output, "display")
}

// NewBuiltinRegistry returns a registry holding only the builtins.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}

func textInput(_ context.Context, node NodeConfig, _ Inputs) (any, error) {
	v, ok := node.Properties["text"]
	if !ok || v == nil {
		return "", nil
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}

func textCombine(_ context.Context, node NodeConfig, inputs Inputs) (any, error) {
	values := inputs.Ordered(node.Upstream...)
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = stringify(v)
	}
	return strings.Join(parts, node.Props().String("separator", " ")), nil
}

func textSplit(_ context.Context, node NodeConfig, inputs Inputs) (any, error) {
	v, _ := inputs.First(node.Upstream...)
	sep := node.Props().String("separator", "\n")
	if sep == "" {
		sep = "\n"
	}
	return strings.Split(stringify(v), sep), nil
}

func output(_ context.Context, node NodeConfig, inputs Inputs) (any, error) {
	v, _ := inputs.First(node.Upstream...)
	return v, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, ",")
	default:
		return fmt.Sprint(t)
	}
}
