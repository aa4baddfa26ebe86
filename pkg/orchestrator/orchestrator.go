// Package orchestrator drives a turn-based conversation with a
// text-generation model that may request tool invocations. Each round
// trip sends the full conversation plus the tool manifest; requested
// tools are executed through the registry and their results appended as
// the next user turn, until the model answers without tool requests.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/toolflowhq/toolflow/pkg/errorsx"
	"github.com/toolflowhq/toolflow/pkg/llm"
	"github.com/toolflowhq/toolflow/pkg/metrics"
	"github.com/toolflowhq/toolflow/pkg/redact"
	"github.com/toolflowhq/toolflow/pkg/resilience"
)

// ErrTooManyRounds fails a run whose model keeps requesting tools past
// Options.MaxRounds.
var ErrTooManyRounds = errors.New("too many rounds")

// ErrRunTimeout fails a run that exceeds Options.RunTimeout.
var ErrRunTimeout = errors.New("run timeout")

// ToolInvoker is the registry surface the orchestrator needs.
type ToolInvoker interface {
	Tools() []llm.Tool
	Invoke(ctx context.Context, name string, args map[string]any) (string, error)
}

type Orchestrator struct {
	client llm.ModelClient
	tools  ToolInvoker
	opts   Options
	obs    metrics.Observer
	log    *slog.Logger
}

func New(client llm.ModelClient, tools ToolInvoker, opts Options) (*Orchestrator, error) {
	if client == nil {
		return nil, fmt.Errorf("model client is nil")
	}
	if tools == nil {
		return nil, fmt.Errorf("tool registry is nil")
	}
	return &Orchestrator{
		client: client,
		tools:  tools,
		opts:   opts.withDefaults(),
		obs:    metrics.NoopObserver{},
		log:    slog.Default(),
	}, nil
}

func (o *Orchestrator) SetObserver(obs metrics.Observer) {
	if obs != nil {
		o.obs = obs
	}
}

func (o *Orchestrator) SetLogger(log *slog.Logger) {
	if log != nil {
		o.log = log
	}
}

// Run executes the turn loop for one prompt and returns the transcript
// together with the final assistant message. The transcript is also
// returned on failure, holding whatever turns completed.
func (o *Orchestrator) Run(ctx context.Context, prompt string) (*Transcript, llm.Message, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if o.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.RunTimeout)
		defer cancel()
	}
	t := &Transcript{
		RunID:   uuid.NewString(),
		ModelID: o.opts.ModelID,
	}
	sm := newStateMachine()
	t.append(llm.TextMessage(llm.RoleUser, prompt))

	o.log.Info("run_start",
		"run_id", t.RunID,
		"model_id", o.opts.ModelID,
		"prompt", redact.Text(prompt),
		"tools", len(o.tools.Tools()),
	)

	for round := 0; round < o.opts.MaxRounds; round++ {
		resp, err := o.converse(ctx, t)
		if err != nil {
			return t, llm.Message{}, o.runErr(ctx, err)
		}
		if err := sm.Transition(StateModelResponded); err != nil {
			return t, llm.Message{}, err
		}
		t.append(resp.Message)
		t.addUsage(resp.Usage)
		t.RoundTrips++

		calls := resp.Message.ToolCalls()
		if len(calls) == 0 {
			if err := sm.Transition(StateDone); err != nil {
				return t, llm.Message{}, err
			}
			o.finish(t)
			return t, resp.Message, nil
		}

		if err := sm.Transition(StateExecutingTools); err != nil {
			return t, llm.Message{}, err
		}
		o.log.Info("tool_requests",
			"run_id", t.RunID,
			"round", round+1,
			"count", len(calls),
		)
		results, err := o.dispatch(ctx, t.RunID, calls)
		if err != nil {
			return t, llm.Message{}, o.runErr(ctx, err)
		}
		t.ToolRounds++

		blocks := make([]llm.ContentBlock, 0, len(results))
		for i := range results {
			blocks = append(blocks, llm.ContentBlock{ToolResult: &results[i]})
		}
		t.append(llm.Message{Role: llm.RoleUser, Content: blocks})

		if err := sm.Transition(StateAwaitingModel); err != nil {
			return t, llm.Message{}, err
		}
	}

	return t, llm.Message{}, errorsx.Wrap(
		fmt.Errorf("%w: %d", ErrTooManyRounds, o.opts.MaxRounds),
		errorsx.ReasonMaxRounds,
	)
}

// runErr upgrades a failure to ErrRunTimeout when the run deadline is
// what actually killed it.
func (o *Orchestrator) runErr(ctx context.Context, err error) error {
	if o.opts.RunTimeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errorsx.ReasonedError{
			Err:    fmt.Errorf("%w after %s: %v", ErrRunTimeout, o.opts.RunTimeout, err),
			Reason: errorsx.ReasonRunTimeout,
		}
	}
	return err
}

func (o *Orchestrator) converse(ctx context.Context, t *Transcript) (llm.Response, error) {
	req := llm.Request{
		ModelID:     o.opts.ModelID,
		System:      o.opts.System,
		Messages:    t.Messages,
		Tools:       o.tools.Tools(),
		ToolChoice:  llm.ToolChoiceAuto,
		MaxTokens:   o.opts.MaxTokens,
		Temperature: o.opts.Temperature,
		TopP:        o.opts.TopP,
	}
	started := time.Now()
	resp, err := o.client.Converse(ctx, req)
	if err != nil {
		reason := errorsx.ReasonModelConverse
		if resilience.IsRateLimit(err) {
			reason = errorsx.ReasonModelRateLimit
		}
		err = errorsx.Wrap(err, reason)
		o.log.Error("model_converse_error",
			"run_id", t.RunID,
			"model_id", o.opts.ModelID,
			"reason_code", string(errorsx.Reason(err)),
			"error", err,
		)
		return llm.Response{}, err
	}
	o.record(metrics.MetricsEvent{
		Name:  metrics.EventRoundTrip,
		Time:  time.Now(),
		Value: float64(time.Since(started).Milliseconds()),
		Tags: map[string]string{
			"run_id":   t.RunID,
			"model_id": o.opts.ModelID,
			"provider": o.client.Name(),
		},
		Fields: map[string]any{
			"input_tokens":  resp.Usage.InputTokens,
			"output_tokens": resp.Usage.OutputTokens,
			"total_tokens":  resp.Usage.TotalTokens,
			"stop_reason":   resp.StopReason,
		},
	})
	return resp, nil
}

func (o *Orchestrator) finish(t *Transcript) {
	o.record(metrics.MetricsEvent{
		Name: metrics.EventRunDone,
		Time: time.Now(),
		Tags: map[string]string{
			"run_id":   t.RunID,
			"model_id": o.opts.ModelID,
		},
		Fields: map[string]any{
			"round_trips": t.RoundTrips,
			"tool_rounds": t.ToolRounds,
		},
	})
	o.log.Info("run_done",
		"run_id", t.RunID,
		"round_trips", t.RoundTrips,
		"tool_rounds", t.ToolRounds,
		"total_tokens", t.Usage.TotalTokens,
	)
}

func (o *Orchestrator) record(ev metrics.MetricsEvent) {
	if o.obs == nil {
		return
	}
	o.obs.RecordEvent(ev)
}
