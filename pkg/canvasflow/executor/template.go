package executor

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// TypeTextTemplate fills properties.template from upstream outputs.
const TypeTextTemplate = "text-template"

var (
	// ${name}
	bracePattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)
	// $name, not matching inside a longer word
	dollarPattern = regexp.MustCompile(`\$([a-zA-Z_][a-zA-Z0-9_]*)(?:\b|$)`)
)

// ErrUndefinedVariable is wrapped by UndefinedVariableError.
var ErrUndefinedVariable = errors.New("undefined template variable")

// UndefinedVariableError lists the placeholders a strict template could not fill.
type UndefinedVariableError struct {
	Names []string
}

// Error implements the error interface.
func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("undefined template variables: %s", strings.Join(e.Names, ", "))
}

// Unwrap returns ErrUndefinedVariable for errors.Is support.
func (e *UndefinedVariableError) Unwrap() error {
	return ErrUndefinedVariable
}

// Expand replaces ${name} and $name placeholders with values from vars.
// Unknown placeholders are kept as written unless strict is set, in which
// case an *UndefinedVariableError names them all.
func Expand(s string, vars map[string]any, strict bool) (string, error) {
	if s == "" {
		return "", nil
	}
	missing := make(map[string]struct{})
	replace := func(match, name string) string {
		if v, ok := vars[name]; ok {
			return stringify(v)
		}
		missing[name] = struct{}{}
		return match
	}

	out := bracePattern.ReplaceAllStringFunc(s, func(m string) string {
		return replace(m, m[2:len(m)-1])
	})
	out = dollarPattern.ReplaceAllStringFunc(out, func(m string) string {
		return replace(m, m[1:])
	})

	if strict && len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for n := range missing {
			names = append(names, n)
		}
		sort.Strings(names)
		return "", &UndefinedVariableError{Names: names}
	}
	return out, nil
}

// TemplateVars builds the variables a text-template node sees: its own
// properties, its title, "input" for the first upstream output and
// input1..inputN for each upstream output in connection order.
func TemplateVars(node NodeConfig, inputs Inputs) map[string]any {
	vars := make(map[string]any, len(node.Properties)+len(inputs)+2)
	for k, v := range node.Properties {
		if k == "template" || k == "strict" {
			continue
		}
		vars[k] = v
	}
	if node.Title != "" {
		vars["title"] = node.Title
	}
	for i, v := range inputs.Ordered(node.Upstream...) {
		if i == 0 {
			vars["input"] = v
		}
		vars["input"+strconv.Itoa(i+1)] = v
	}
	return vars
}

func textTemplate(_ context.Context, node NodeConfig, inputs Inputs) (any, error) {
	props := node.Props()
	return Expand(props.String("template", ""), TemplateVars(node, inputs), props.Bool("strict", false))
}
