package toolflow

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/toolflowhq/toolflow/pkg/orchestrator"
)

type Config struct {
	Model         ModelConfig         `mapstructure:"model"`
	Judge         ModelConfig         `mapstructure:"judge"`
	Orchestration OrchestrationConfig `mapstructure:"orchestration"`
	Tools         ToolsConfig         `mapstructure:"tools"`
	Environment   string              `mapstructure:"environment"`
	LogLevel      string              `mapstructure:"log_level"`
	LogFormat     string              `mapstructure:"log_format"`
	SystemPrompt  string              `mapstructure:"system_prompt"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Privacy       PrivacyConfig       `mapstructure:"privacy"`
}

type ModelConfig struct {
	Provider string         `mapstructure:"provider"`
	ModelID  string         `mapstructure:"model_id"`
	Settings map[string]any `mapstructure:"settings"`
}

type OrchestrationConfig struct {
	MaxRounds    int      `mapstructure:"max_rounds"`
	RunTimeoutMS int      `mapstructure:"run_timeout_ms"`
	MaxTokens    int      `mapstructure:"max_tokens"`
	Temperature *float64 `mapstructure:"temperature"`
	TopP        *float64 `mapstructure:"top_p"`
	// abort stops the run on the first tool failure instead of
	// reporting it back to the model.
	OnToolError string `mapstructure:"on_tool_error"`
}

type ToolsConfig struct {
	Concurrency    int `mapstructure:"concurrency"`
	TimeoutMS      int `mapstructure:"timeout_ms"`
	Retries        int `mapstructure:"retries"`
	RetryBackoffMS int `mapstructure:"retry_backoff_ms"`
}

type ObservabilityConfig struct {
	ArtifactsDir  string  `mapstructure:"artifacts_dir"`
	RetentionDays int     `mapstructure:"retention_days"`
	SampleRate    float64 `mapstructure:"sample_rate"`
}

type PrivacyConfig struct {
	RedactPII bool `mapstructure:"redact_pii"`
}

func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("orchestration.max_rounds", 8)
	v.SetDefault("orchestration.run_timeout_ms", 0)
	v.SetDefault("orchestration.max_tokens", 1024)
	v.SetDefault("orchestration.on_tool_error", "report")
	v.SetDefault("tools.concurrency", 4)
	v.SetDefault("tools.timeout_ms", 6000)
	v.SetDefault("tools.retries", 1)
	v.SetDefault("tools.retry_backoff_ms", 200)
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("observability.artifacts_dir", "")
	v.SetDefault("observability.retention_days", 0)
	v.SetDefault("observability.sample_rate", 1.0)
	v.SetDefault("privacy.redact_pii", true)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}

	expandEnvStrings(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model.Provider) == "" {
		return fmt.Errorf("model.provider is required")
	}
	if strings.TrimSpace(c.Model.ModelID) == "" {
		return fmt.Errorf("model.model_id is required")
	}
	switch c.Orchestration.OnToolError {
	case "", "report", "abort":
	default:
		return fmt.Errorf("orchestration.on_tool_error must be report or abort, got %q", c.Orchestration.OnToolError)
	}
	return nil
}

// OrchestratorOptions maps the file-level settings onto runtime options.
func (c Config) OrchestratorOptions() orchestrator.Options {
	policy := orchestrator.ReportToolErrors
	if c.Orchestration.OnToolError == "abort" {
		policy = orchestrator.PropagateToolErrors
	}
	return orchestrator.Options{
		ModelID:       c.Model.ModelID,
		System:        c.SystemPrompt,
		MaxTokens:     c.Orchestration.MaxTokens,
		Temperature:   c.Orchestration.Temperature,
		TopP:          c.Orchestration.TopP,
		MaxRounds:     c.Orchestration.MaxRounds,
		RunTimeout:    time.Duration(c.Orchestration.RunTimeoutMS) * time.Millisecond,
		Concurrency:   c.Tools.Concurrency,
		ToolTimeout:   time.Duration(c.Tools.TimeoutMS) * time.Millisecond,
		Retries:       c.Tools.Retries,
		RetryBackoff:  time.Duration(c.Tools.RetryBackoffMS) * time.Millisecond,
		FailurePolicy: policy,
	}
}

func expandEnvStrings(cfg *Config) {
	expandValue(reflect.ValueOf(cfg))
	cfg.Model.Settings = expandSettings(cfg.Model.Settings)
	cfg.Judge.Settings = expandSettings(cfg.Judge.Settings)
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, v := range settings {
		settings[k] = expandAny(v)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, v := range val {
			val[k] = expandAny(v)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = expandAny(v)
		}
		return out
	default:
		return v
	}
}

func expandValue(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		expandValue(v.Elem())
		return
	}
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			expandValue(v.Field(i))
		}
	case reflect.String:
		if v.CanSet() {
			v.SetString(os.ExpandEnv(v.String()))
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			expandValue(v.Index(i))
		}
	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String && v.Type().Elem().Kind() == reflect.String {
			for _, key := range v.MapKeys() {
				val := v.MapIndex(key)
				expanded := os.ExpandEnv(val.String())
				v.SetMapIndex(key, reflect.ValueOf(expanded))
			}
		}
	}
}
