package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/toolflowhq/toolflow/pkg/llm"
)

// Step scripts one model round trip.
type Step struct {
	Text      string
	ToolCalls []llm.ToolCall
	Usage     llm.Usage
	Err       error
}

// ModelClient replays a scripted sequence of responses and records the
// requests it received.
type ModelClient struct {
	mu       sync.Mutex
	steps    []Step
	calls    int
	requests []llm.Request
}

func NewModelClient(steps ...Step) *ModelClient {
	return &ModelClient{steps: steps}
}

func (m *ModelClient) Name() string { return "mock" }

func (m *ModelClient) Converse(ctx context.Context, req llm.Request) (llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.calls >= len(m.steps) {
		return llm.Response{}, errors.New("mock model: script exhausted")
	}
	step := m.steps[m.calls]
	m.calls++
	if step.Err != nil {
		return llm.Response{}, step.Err
	}

	msg := llm.Message{Role: llm.RoleAssistant}
	if step.Text != "" {
		msg.Content = append(msg.Content, llm.ContentBlock{Text: step.Text})
	}
	for _, call := range step.ToolCalls {
		msg.Content = append(msg.Content, llm.ContentBlock{ToolUse: &llm.ToolUseBlock{
			ID:    call.ID,
			Name:  call.Name,
			Input: call.Arguments,
		}})
	}
	stop := "end_turn"
	if len(step.ToolCalls) > 0 {
		stop = "tool_use"
	}
	return llm.Response{Message: msg, StopReason: stop, Usage: step.Usage}, nil
}

// Calls returns how many round trips were made.
func (m *ModelClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns a snapshot of the requests seen so far.
func (m *ModelClient) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]llm.Request, len(m.requests))
	copy(out, m.requests)
	return out
}
