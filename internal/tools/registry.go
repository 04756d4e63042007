// internal/tools/registry.go

// Package tools holds the local functions demo pages expose to models, and the loop that
// feeds tool results back into a conversation.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mwiater/llamagallery/internal/ollama"
)

// Func runs a tool with already validated arguments.
type Func func(ctx context.Context, args map[string]any) (string, error)

// Tool pairs a declaration sent to the model with its local implementation.
type Tool struct {
	Definition ollama.Tool
	Func       Func
}

// Name is the declared function name.
func (t Tool) Name() string {
	return t.Definition.Function.Name
}

// Define builds a function declaration with an object schema over props.
func Define(name, description string, required []string, props map[string]any) ollama.Tool {
	params := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		params["required"] = required
	}
	return ollama.Tool{
		Type: "function",
		Function: ollama.ToolFunction{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
	}
}

// Prop is one schema property.
func Prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

// NotFoundError reports a call to a tool the registry does not hold.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Tool %s not found", e.Name)
}

// Registry maps tool names to tools, keeping registration order for declarations.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry returns a registry holding tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: map[string]Tool{}}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) {
	name := t.Name()
	if _, ok := r.tools[name]; !ok {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Definitions returns the declarations in registration order.
func (r *Registry) Definitions() []ollama.Tool {
	out := make([]ollama.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Definition)
	}
	return out
}

// Call coerces args to the declared parameter types, validates them and runs the tool.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", &NotFoundError{Name: name}
	}
	args = coerceArguments(t.Definition.Function.Parameters, args)
	if err := validateArguments(t.Definition, args); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return t.Func(ctx, args)
}

// validateArguments checks args against the tool's parameter schema.
func validateArguments(def ollama.Tool, args map[string]any) error {
	if len(def.Function.Parameters) == 0 {
		return nil
	}
	argBytes, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal arguments for validation: %w", err)
	}
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(def.Function.Parameters), gojsonschema.NewBytesLoader(argBytes))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("arguments failed validation: %s", strings.Join(details, "; "))
}

// coerceArguments converts string and whole float values of integer and number properties,
// since models often send "3" or 3.0 where the schema asks for 3.
func coerceArguments(params map[string]any, args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	props, _ := params["properties"].(map[string]any)
	for key, raw := range props {
		prop, _ := raw.(map[string]any)
		typ, _ := prop["type"].(string)
		v, ok := out[key]
		if !ok {
			continue
		}
		switch typ {
		case "integer":
			if n, ok := toInt(v); ok {
				out[key] = n
			}
		case "number":
			if s, ok := v.(string); ok {
				if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
					out[key] = f
				}
			}
		}
	}
	return out
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
			return int(f), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	}
	return 0, false
}

// IntArg returns an integer argument.
func IntArg(args map[string]any, key string) (int, error) {
	n, ok := toInt(args[key])
	if !ok {
		return 0, fmt.Errorf("argument %q is not an integer: %v", key, args[key])
	}
	return n, nil
}

// StringArg returns a string argument, formatting non-string values.
func StringArg(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
