// Package toolflow assembles the configured model provider, tool
// registry, and observers into a ready-to-run orchestration engine.
package toolflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/toolflowhq/toolflow/pkg/llm"
	"github.com/toolflowhq/toolflow/pkg/logging"
	"github.com/toolflowhq/toolflow/pkg/metrics"
	"github.com/toolflowhq/toolflow/pkg/observers"
	"github.com/toolflowhq/toolflow/pkg/orchestrator"
	"github.com/toolflowhq/toolflow/pkg/redact"
	"github.com/toolflowhq/toolflow/pkg/tool"
)

type Engine struct {
	cfg       Config
	client    llm.ModelClient
	tools     *tool.Registry
	orch      *orchestrator.Orchestrator
	asyncObs  *metrics.AsyncObserver
	closers   []interface{ Close() error }
	closeOnce sync.Once
	closeErr  error
	log       *slog.Logger
}

type EngineOptions struct {
	Config    Config
	Providers *ProviderRegistry
	Tools     *tool.Registry
}

func NewEngine(ctx context.Context, opts EngineOptions) (*Engine, error) {
	cfg := opts.Config
	log := logging.SetDefault(cfg.LogLevel, cfg.LogFormat)
	redact.SetEnabled(cfg.Privacy.RedactPII)

	log.Info("toolflow_init",
		"environment", cfg.Environment,
		"model_provider", cfg.Model.Provider,
		"model_id", cfg.Model.ModelID,
	)

	e := &Engine{cfg: cfg, tools: opts.Tools, log: log}
	if e.tools == nil {
		e.tools = tool.NewRegistry()
	}

	latencyObs := observers.NewLatencyObserver(log)
	logObs := observers.NewLoggerObserver(log)
	obsList := []metrics.Observer{latencyObs, logObs}
	if dir := strings.TrimSpace(cfg.Observability.ArtifactsDir); dir != "" {
		if cfg.Observability.RetentionDays > 0 {
			_, _ = observers.PurgeArtifacts(dir, time.Duration(cfg.Observability.RetentionDays)*24*time.Hour)
		}
		timelineObs := observers.NewTimelineObserver(dir)
		usageObs := observers.NewUsageObserver(dir)
		obsList = append(obsList, timelineObs, usageObs)
		e.closers = append(e.closers, timelineObs, usageObs)
		if f, err := openMetricsLog(dir); err != nil {
			log.Warn("metrics_log_unavailable", "error", err)
		} else {
			obsList = append(obsList, metrics.NewJSONLObserver(f))
			e.closers = append(e.closers, f)
		}
	}
	var obs metrics.Observer = observers.NewMultiObserver(obsList...)
	if rate := cfg.Observability.SampleRate; rate > 0 && rate < 1 {
		obs = metrics.NewSamplingObserver(obs, rate)
	}
	e.asyncObs = metrics.NewAsyncObserver(obs, 2048)

	providers := opts.Providers
	if providers == nil {
		providers = DefaultProviderRegistry()
	}
	client, err := providers.BuildModel(ctx, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("build model provider: %w", err)
	}
	breaker := llm.NewCircuitBreakerClient(client, nil)
	breaker.SetObserver(e.asyncObs)
	e.client = breaker

	orch, err := orchestrator.New(e.client, e.tools, cfg.OrchestratorOptions())
	if err != nil {
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}
	orch.SetObserver(e.asyncObs)
	orch.SetLogger(logging.NewComponentLogger(log, "orchestrator"))
	e.orch = orch

	return e, nil
}

func openMetricsLog(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "metrics.jsonl"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// Tools exposes the registry so callers can register handlers before
// the first run.
func (e *Engine) Tools() *tool.Registry { return e.tools }

func (e *Engine) Orchestrator() *orchestrator.Orchestrator { return e.orch }

func (e *Engine) Config() Config { return e.cfg }

// Run executes one orchestration for the prompt.
func (e *Engine) Run(ctx context.Context, prompt string) (*orchestrator.Transcript, llm.Message, error) {
	return e.orch.Run(ctx, prompt)
}

// Drain satisfies the runner.Drainer surface.
func (e *Engine) Drain() error { return e.Close() }

// Close drains buffered metrics and flushes artifact files. Safe to
// call more than once.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		if e.asyncObs != nil {
			e.asyncObs.Close()
		}
		for _, c := range e.closers {
			if err := c.Close(); err != nil && e.closeErr == nil {
				e.closeErr = err
			}
		}
	})
	return e.closeErr
}
