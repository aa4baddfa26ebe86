package toolflow

import (
	"context"
	"testing"

	"github.com/toolflowhq/toolflow/pkg/llm"
	"github.com/toolflowhq/toolflow/pkg/providers/mock"
	"github.com/toolflowhq/toolflow/pkg/tool"
)

func testConfig() Config {
	return Config{
		Model:     ModelConfig{Provider: "scripted", ModelID: "test-model"},
		LogLevel:  "error",
		LogFormat: "text",
		Orchestration: OrchestrationConfig{
			MaxRounds: 4,
			MaxTokens: 256,
		},
		Tools: ToolsConfig{Concurrency: 2, TimeoutMS: 1000, Retries: 1, RetryBackoffMS: 10},
	}
}

func scriptedProviders(steps ...mock.Step) *ProviderRegistry {
	providers := NewProviderRegistry()
	providers.RegisterModel("scripted", func(ctx context.Context, cfg ModelConfig) (llm.ModelClient, error) {
		return mock.NewModelClient(steps...), nil
	})
	return providers
}

func TestEngineRun(t *testing.T) {
	reg := tool.NewRegistry()
	err := reg.Register(llm.Tool{Name: "get_weather"}, func(ctx context.Context, args map[string]any) (string, error) {
		return "18C", nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	engine, err := NewEngine(context.Background(), EngineOptions{
		Config: testConfig(),
		Providers: scriptedProviders(
			mock.Step{ToolCalls: []llm.ToolCall{{ID: "c1", Name: "get_weather", Arguments: map[string]any{"city": "Paris"}}}},
			mock.Step{Text: "It is 18C in Paris."},
		),
		Tools: reg,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer engine.Close()

	transcript, final, err := engine.Run(context.Background(), "weather in Paris?")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if transcript.RoundTrips != 2 || transcript.ToolRounds != 1 {
		t.Fatalf("unexpected transcript: %+v", transcript)
	}
	if final.Text() == "" {
		t.Fatalf("expected a final answer")
	}
}

func TestBuildJudgeFromConfig(t *testing.T) {
	providers := scriptedProviders(mock.Step{Text: "A"})
	judge, err := providers.BuildJudge(context.Background(), ModelConfig{Provider: "scripted", ModelID: "judge-model"}, 7)
	if err != nil {
		t.Fatalf("build judge: %v", err)
	}
	if judge == nil {
		t.Fatalf("expected a judge")
	}
}

func TestBuildJudgeRequiresProvider(t *testing.T) {
	providers := scriptedProviders()
	if _, err := providers.BuildJudge(context.Background(), ModelConfig{}, 7); err == nil {
		t.Fatalf("expected error for empty judge provider")
	}
}

func TestEngineUnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Model.Provider = "nope"
	_, err := NewEngine(context.Background(), EngineOptions{Config: cfg})
	if err == nil {
		t.Fatalf("expected error for unregistered provider")
	}
}
