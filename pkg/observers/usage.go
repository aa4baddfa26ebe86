package observers

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/toolflowhq/toolflow/pkg/metrics"
)

// UsageSummary is the token accounting for one orchestration run,
// written to the artifacts dir on Close.
type UsageSummary struct {
	RunID         string `json:"run_id,omitempty"`
	TraceID       string `json:"trace_id,omitempty"`
	ModelID       string `json:"model_id,omitempty"`
	InputTokens   int    `json:"input_tokens"`
	OutputTokens  int    `json:"output_tokens"`
	TotalTokens   int    `json:"total_tokens"`
	RoundTrips    int    `json:"round_trips"`
	RecordedAtUTC string `json:"recorded_at_utc"`
}

type UsageObserver struct {
	dir   string
	mu    sync.Mutex
	stats map[string]*UsageSummary
}

func NewUsageObserver(dir string) *UsageObserver {
	return &UsageObserver{dir: dir, stats: make(map[string]*UsageSummary)}
}

func (o *UsageObserver) RecordEvent(ev metrics.MetricsEvent) {
	if strings.TrimSpace(o.dir) == "" || ev.Name != metrics.EventRoundTrip {
		return
	}
	runID := ""
	traceID := ""
	modelID := ""
	if ev.Tags != nil {
		runID = ev.Tags["run_id"]
		traceID = ev.Tags["trace_id"]
		modelID = ev.Tags["model_id"]
	}
	if runID == "" {
		return
	}
	o.mu.Lock()
	stat := o.stats[runID]
	if stat == nil {
		stat = &UsageSummary{RunID: runID, TraceID: traceID, ModelID: modelID}
		o.stats[runID] = stat
	}
	stat.RoundTrips++
	stat.InputTokens += intField(ev.Fields, "input_tokens")
	stat.OutputTokens += intField(ev.Fields, "output_tokens")
	stat.TotalTokens += intField(ev.Fields, "total_tokens")
	o.mu.Unlock()
}

func (o *UsageObserver) Close() error {
	if strings.TrimSpace(o.dir) == "" {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return err
	}
	var errOut error
	for id, stat := range o.stats {
		stat.RecordedAtUTC = time.Now().UTC().Format(time.RFC3339)
		b, err := json.MarshalIndent(stat, "", "  ")
		if err != nil {
			errOut = errors.Join(errOut, err)
			continue
		}
		path := filepath.Join(o.dir, sanitizeID(id)+".usage.json")
		if err := os.WriteFile(path, b, 0o644); err != nil {
			errOut = errors.Join(errOut, err)
		}
	}
	return errOut
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	switch v := fields[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
