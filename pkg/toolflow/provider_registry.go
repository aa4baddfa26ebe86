package toolflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/toolflowhq/toolflow/pkg/configutil"
	"github.com/toolflowhq/toolflow/pkg/eval"
	"github.com/toolflowhq/toolflow/pkg/llm"
	"github.com/toolflowhq/toolflow/pkg/providers/bedrock"
	"github.com/toolflowhq/toolflow/pkg/providers/mock"
)

type ModelFactory func(ctx context.Context, cfg ModelConfig) (llm.ModelClient, error)

type ProviderRegistry struct {
	models map[string]ModelFactory
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{models: make(map[string]ModelFactory)}
}

func (r *ProviderRegistry) RegisterModel(name string, factory ModelFactory) {
	r.models[strings.ToLower(strings.TrimSpace(name))] = factory
}

func (r *ProviderRegistry) BuildModel(ctx context.Context, cfg ModelConfig) (llm.ModelClient, error) {
	fn := r.models[strings.ToLower(strings.TrimSpace(cfg.Provider))]
	if fn == nil {
		return nil, fmt.Errorf("model provider not registered: %s", cfg.Provider)
	}
	return fn(ctx, cfg)
}

// BuildJudge constructs an answer judge from the config's judge
// section. Seed fixes the candidate shuffle for reproducible runs.
func (r *ProviderRegistry) BuildJudge(ctx context.Context, cfg ModelConfig, seed int64) (*eval.Judge, error) {
	if strings.TrimSpace(cfg.Provider) == "" {
		return nil, fmt.Errorf("judge provider not configured")
	}
	client, err := r.BuildModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return eval.NewJudge(client, cfg.ModelID, seed), nil
}

// DefaultProviderRegistry registers the built-in model providers.
func DefaultProviderRegistry() *ProviderRegistry {
	r := NewProviderRegistry()
	r.RegisterModel("bedrock", buildBedrock)
	r.RegisterModel("mock", buildMock)
	return r
}

func buildBedrock(ctx context.Context, cfg ModelConfig) (llm.ModelClient, error) {
	err := configutil.ValidateSettings(cfg.Settings, configutil.Schema{
		Required: []string{"region"},
		Optional: []string{"access_key_id", "secret_access_key", "session_token"},
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock settings: %w", err)
	}
	var settings bedrock.Settings
	if err := configutil.DecodeSettings(cfg.Settings, &settings); err != nil {
		return nil, fmt.Errorf("decode bedrock settings: %w", err)
	}
	return bedrock.New(ctx, settings)
}

func buildMock(ctx context.Context, cfg ModelConfig) (llm.ModelClient, error) {
	return mock.NewModelClient(), nil
}
