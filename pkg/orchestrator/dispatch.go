package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/toolflowhq/toolflow/pkg/errorsx"
	"github.com/toolflowhq/toolflow/pkg/llm"
	"github.com/toolflowhq/toolflow/pkg/metrics"
	"github.com/toolflowhq/toolflow/pkg/redact"
)

var ErrToolTimeout = errors.New("tool timeout")

// dispatch executes every requested tool in the batch, at most
// opts.Concurrency in flight at once. Each request receives exactly one
// result, paired by correlation handle; results come back in request
// order even though completion order is non-deterministic.
func (o *Orchestrator) dispatch(ctx context.Context, runID string, calls []llm.ToolCall) ([]llm.ToolResultBlock, error) {
	results := make([]llm.ToolResultBlock, len(calls))
	sem := make(chan struct{}, o.opts.Concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, call := range calls {
		wg.Add(1)
		go func(i int, call llm.ToolCall) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			o.record(metrics.MetricsEvent{
				Name: metrics.EventToolDispatch,
				Time: time.Now(),
				Tags: map[string]string{"run_id": runID, "tool_name": call.Name},
			})
			started := time.Now()
			text, err := o.invokeWithRetry(ctx, call)
			status := "ok"
			if err != nil {
				status = "error"
				if errors.Is(err, ErrToolTimeout) {
					status = "timeout"
				}
			}
			o.record(metrics.MetricsEvent{
				Name:  metrics.EventToolResult,
				Time:  time.Now(),
				Value: float64(time.Since(started).Milliseconds()),
				Tags: map[string]string{
					"run_id":    runID,
					"tool_name": call.Name,
					"status":    status,
				},
			})
			if err != nil {
				o.log.Warn("tool_failed",
					"run_id", runID,
					"tool_name", call.Name,
					"reason_code", string(errorsx.Reason(err)),
					"error", err,
				)
				if o.opts.FailurePolicy == PropagateToolErrors {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				results[i] = llm.ToolResultBlock{ToolUseID: call.ID, Content: err.Error(), IsError: true}
				return
			}
			results[i] = llm.ToolResultBlock{ToolUseID: call.ID, Content: text}
		}(i, call)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

func (o *Orchestrator) invokeWithRetry(ctx context.Context, call llm.ToolCall) (string, error) {
	attempts := o.opts.Retries + 1
	var lastErr error
	for i := 0; i < attempts; i++ {
		result, err := o.invokeWithTimeout(ctx, call)
		if err == nil {
			return result, nil
		}
		lastErr = err
		// Bad arguments or an unknown name will not get better on retry.
		if errorsx.HasReason(err, errorsx.ReasonToolUnknown) ||
			errorsx.HasReason(err, errorsx.ReasonToolInvalidArgs) {
			break
		}
		if i < attempts-1 {
			time.Sleep(o.opts.RetryBackoff * time.Duration(i+1))
		}
	}
	return "", lastErr
}

func (o *Orchestrator) invokeWithTimeout(ctx context.Context, call llm.ToolCall) (string, error) {
	o.log.Debug("tool_invoke",
		"tool_name", call.Name,
		"args", redact.Args(call.Arguments),
	)
	if o.opts.ToolTimeout <= 0 {
		text, err := o.tools.Invoke(ctx, call.Name, call.Arguments)
		return text, errorsx.Wrap(err, errorsx.ReasonToolFailed)
	}
	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		text, err := o.tools.Invoke(ctx, call.Name, call.Arguments)
		ch <- result{text: text, err: err}
	}()
	select {
	case out := <-ch:
		return out.text, errorsx.Wrap(out.err, errorsx.ReasonToolFailed)
	case <-ctx.Done():
		return "", errorsx.Wrap(ctx.Err(), errorsx.ReasonToolFailed)
	case <-time.After(o.opts.ToolTimeout):
		return "", errorsx.Wrap(ErrToolTimeout, errorsx.ReasonToolTimeout)
	}
}
