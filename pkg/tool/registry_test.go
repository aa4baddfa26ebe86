package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/toolflowhq/toolflow/pkg/errorsx"
	"github.com/toolflowhq/toolflow/pkg/llm"
)

func weatherTool() llm.Tool {
	return llm.Tool{
		Name:        "get_weather",
		Description: "Current weather for a city.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city":  map[string]any{"type": "string"},
				"state": map[string]any{"type": "string"},
			},
			"required": []string{"city"},
		},
	}
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	reg := NewRegistry()
	handler := func(ctx context.Context, args map[string]any) (string, error) { return "ok", nil }
	if err := reg.Register(weatherTool(), handler); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(weatherTool(), handler); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}

func TestRegisterRejectsEmptyName(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register(llm.Tool{}, func(ctx context.Context, args map[string]any) (string, error) {
		return "", nil
	})
	if err == nil {
		t.Fatalf("expected empty name error")
	}
}

func TestInvokeUnknownTool(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Invoke(context.Background(), "nope", nil)
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
	if !errorsx.HasReason(err, errorsx.ReasonToolUnknown) {
		t.Fatalf("expected tool_unknown reason, got %s", errorsx.Reason(err))
	}
}

func TestInvokeMissingRequiredField(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(weatherTool(), func(ctx context.Context, args map[string]any) (string, error) {
		return "sunny", nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := reg.Invoke(context.Background(), "get_weather", map[string]any{"state": "IDF"})
	if !errors.Is(err, ErrInvalidArguments) {
		t.Fatalf("expected ErrInvalidArguments, got %v", err)
	}
	if !errorsx.HasReason(err, errorsx.ReasonToolInvalidArgs) {
		t.Fatalf("expected tool_invalid_args reason, got %s", errorsx.Reason(err))
	}
}

func TestInvokeRunsHandler(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(weatherTool(), func(ctx context.Context, args map[string]any) (string, error) {
		city, _ := args["city"].(string)
		return "sunny in " + city, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	out, err := reg.Invoke(context.Background(), "get_weather", map[string]any{"city": "Paris"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out != "sunny in Paris" {
		t.Fatalf("unexpected result %q", out)
	}
}

func TestToolsReturnsRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	names := []string{"get_my_fav_city", "get_my_fav_month", "get_weather_in_month"}
	for _, name := range names {
		err := reg.Register(llm.Tool{Name: name}, func(ctx context.Context, args map[string]any) (string, error) {
			return "", nil
		})
		if err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	tools := reg.Tools()
	if len(tools) != len(names) {
		t.Fatalf("expected %d tools, got %d", len(names), len(tools))
	}
	for i, name := range names {
		if tools[i].Name != name {
			t.Fatalf("expected %s at %d, got %s", name, i, tools[i].Name)
		}
	}
}
