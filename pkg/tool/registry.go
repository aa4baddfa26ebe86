package tool

import (
	"context"
	"fmt"
	"sync"

	"github.com/toolflowhq/toolflow/pkg/errorsx"
	"github.com/toolflowhq/toolflow/pkg/llm"
)

// Handler executes one tool invocation and returns its textual result.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// ErrUnknownTool and ErrInvalidArguments are the registry-level failure kinds.
var (
	ErrUnknownTool      = fmt.Errorf("unknown tool")
	ErrInvalidArguments = fmt.Errorf("invalid arguments")
)

// Registry maps tool names to their descriptor and handler. Tools are
// registered once at startup; the set is immutable for the duration of
// a conversation.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]registration
	order []string
}

type registration struct {
	desc    llm.Tool
	handler Handler
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]registration)}
}

// Register inserts a tool. Empty or duplicate names are a configuration
// error, reported here rather than on the first model call.
func (r *Registry) Register(desc llm.Tool, handler Handler) error {
	if desc.Name == "" {
		return fmt.Errorf("tool name is empty")
	}
	if handler == nil {
		return fmt.Errorf("tool %s has no handler", desc.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[desc.Name]; exists {
		return fmt.Errorf("tool %s already registered", desc.Name)
	}
	r.tools[desc.Name] = registration{desc: desc, handler: handler}
	r.order = append(r.order, desc.Name)
	return nil
}

// Tools returns descriptors in registration order.
func (r *Registry) Tools() []llm.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]llm.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].desc)
	}
	return out
}

// Invoke runs a registered tool after checking schema-required fields.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	r.mu.RLock()
	reg, exists := r.tools[name]
	r.mu.RUnlock()
	if !exists {
		return "", errorsx.Wrap(fmt.Errorf("%w: %s", ErrUnknownTool, name), errorsx.ReasonToolUnknown)
	}
	if err := checkRequired(reg.desc.Schema, args); err != nil {
		return "", errorsx.Wrap(fmt.Errorf("tool %s: %w", name, err), errorsx.ReasonToolInvalidArgs)
	}
	return reg.handler(ctx, args)
}

func checkRequired(schema map[string]any, args map[string]any) error {
	if schema == nil {
		return nil
	}
	var required []string
	switch v := schema["required"].(type) {
	case []string:
		required = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				required = append(required, s)
			}
		}
	}
	for _, field := range required {
		if _, ok := args[field]; !ok {
			return fmt.Errorf("%w: missing %s", ErrInvalidArguments, field)
		}
	}
	return nil
}
