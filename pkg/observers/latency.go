package observers

import (
	"log/slog"
	"sync"
	"time"

	"github.com/toolflowhq/toolflow/pkg/metrics"
)

// LatencyObserver accumulates per-run timing from orchestrator events and
// logs a summary when the run finishes.
type LatencyObserver struct {
	mu   sync.Mutex
	runs map[string]*runTrace
	log  *slog.Logger
}

type runTrace struct {
	started    time.Time
	modelMS    int64
	toolMS     int64
	roundTrips int
	toolCalls  int
	traceID    string
}

func NewLatencyObserver(log *slog.Logger) *LatencyObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LatencyObserver{
		runs: make(map[string]*runTrace),
		log:  log,
	}
}

func (o *LatencyObserver) RecordEvent(ev metrics.MetricsEvent) {
	runID := ""
	if ev.Tags != nil {
		runID = ev.Tags["run_id"]
	}
	if runID == "" {
		return
	}
	o.mu.Lock()
	t := o.runs[runID]
	if t == nil {
		t = &runTrace{started: ev.Time}
		o.runs[runID] = t
	}
	if t.traceID == "" && ev.Tags != nil {
		t.traceID = ev.Tags["trace_id"]
	}
	switch ev.Name {
	case metrics.EventRoundTrip:
		t.roundTrips++
		t.modelMS += int64(ev.Value)
	case metrics.EventToolResult:
		t.toolCalls++
		t.toolMS += int64(ev.Value)
	case metrics.EventRunDone:
		o.logRunLocked(runID, t, ev.Time)
		delete(o.runs, runID)
	}
	o.mu.Unlock()
}

func (o *LatencyObserver) logRunLocked(runID string, t *runTrace, done time.Time) {
	total := int64(-1)
	if !t.started.IsZero() && !done.IsZero() {
		total = done.Sub(t.started).Milliseconds()
	}
	o.log.Info("latency",
		"run_id", runID,
		"trace_id", t.traceID,
		"round_trips", t.roundTrips,
		"tool_calls", t.toolCalls,
		"model_ms", t.modelMS,
		"tool_ms", t.toolMS,
		"total_ms", total,
	)
}
