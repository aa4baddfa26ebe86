package metrics

import "time"

// Event names emitted by the orchestrator and model client wrappers.
const (
	EventRoundTrip     = "round_trip"
	EventToolDispatch  = "tool_dispatch"
	EventToolResult    = "tool_result"
	EventRunDone       = "run_done"
	EventRateLimit     = "rate_limit"
	EventBreakerOpen   = "breaker_open"
	EventBreakerClose  = "breaker_close"
	EventBreakerDenied = "breaker_denied"
)

type MetricsEvent struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

type Observer interface {
	RecordEvent(ev MetricsEvent)
}

type NoopObserver struct{}

func (NoopObserver) RecordEvent(MetricsEvent) {}
