package bedrock

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"

	"github.com/toolflowhq/toolflow/pkg/llm"
	"github.com/toolflowhq/toolflow/pkg/resilience"
)

func TestBuildConverseInput(t *testing.T) {
	temp := 0.2
	req := llm.Request{
		ModelID: "anthropic.claude-3-sonnet",
		System:  "be brief",
		Messages: []llm.Message{
			llm.TextMessage(llm.RoleUser, "weather in Paris?"),
			{Role: llm.RoleAssistant, Content: []llm.ContentBlock{
				{ToolUse: &llm.ToolUseBlock{ID: "c1", Name: "get_weather", Input: map[string]any{"city": "Paris"}}},
			}},
			{Role: llm.RoleUser, Content: []llm.ContentBlock{
				{ToolResult: &llm.ToolResultBlock{ToolUseID: "c1", Content: "18C"}},
			}},
		},
		Tools: []llm.Tool{{
			Name:        "get_weather",
			Description: "Current weather.",
			Schema:      map[string]any{"type": "object"},
		}},
		ToolChoice:  llm.ToolChoiceAuto,
		MaxTokens:   512,
		Temperature: &temp,
	}

	input, err := buildConverseInput(req)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if *input.ModelId != "anthropic.claude-3-sonnet" {
		t.Fatalf("unexpected model id %q", *input.ModelId)
	}
	if len(input.System) != 1 {
		t.Fatalf("expected system block")
	}
	if len(input.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(input.Messages))
	}
	if input.Messages[1].Role != types.ConversationRoleAssistant {
		t.Fatalf("expected assistant role on tool-use turn")
	}
	if _, ok := input.Messages[1].Content[0].(*types.ContentBlockMemberToolUse); !ok {
		t.Fatalf("expected tool-use block, got %T", input.Messages[1].Content[0])
	}
	result, ok := input.Messages[2].Content[0].(*types.ContentBlockMemberToolResult)
	if !ok {
		t.Fatalf("expected tool-result block, got %T", input.Messages[2].Content[0])
	}
	if *result.Value.ToolUseId != "c1" || result.Value.Status != types.ToolResultStatusSuccess {
		t.Fatalf("result block not paired to its request")
	}
	if input.ToolConfig == nil || len(input.ToolConfig.Tools) != 1 {
		t.Fatalf("expected tool config with one tool")
	}
	if _, ok := input.ToolConfig.ToolChoice.(*types.ToolChoiceMemberAuto); !ok {
		t.Fatalf("expected auto tool choice")
	}
	if *input.InferenceConfig.MaxTokens != 512 {
		t.Fatalf("unexpected max tokens %d", *input.InferenceConfig.MaxTokens)
	}
	if input.InferenceConfig.Temperature == nil || *input.InferenceConfig.Temperature != 0.2 {
		t.Fatalf("temperature not forwarded")
	}
}

func TestBuildConverseInputErrorStatus(t *testing.T) {
	req := llm.Request{
		ModelID: "m",
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: []llm.ContentBlock{
				{ToolResult: &llm.ToolResultBlock{ToolUseID: "c1", Content: "boom", IsError: true}},
			}},
		},
	}
	input, err := buildConverseInput(req)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	result := input.Messages[0].Content[0].(*types.ContentBlockMemberToolResult)
	if result.Value.Status != types.ToolResultStatusError {
		t.Fatalf("expected error status, got %s", result.Value.Status)
	}
}

func TestParseConverseOutput(t *testing.T) {
	out := &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{
			Value: types.Message{
				Role: types.ConversationRoleAssistant,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: "checking"},
					&types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
						ToolUseId: aws.String("c1"),
						Name:      aws.String("get_weather"),
						Input:     document.NewLazyDocument(map[string]any{"city": "Paris"}),
					}},
				},
			},
		},
		StopReason: types.StopReasonToolUse,
		Usage: &types.TokenUsage{
			InputTokens:  aws.Int32(10),
			OutputTokens: aws.Int32(5),
			TotalTokens:  aws.Int32(15),
		},
	}

	resp, err := parseConverseOutput(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if resp.StopReason != string(types.StopReasonToolUse) {
		t.Fatalf("unexpected stop reason %q", resp.StopReason)
	}
	if resp.Message.Text() != "checking" {
		t.Fatalf("unexpected text %q", resp.Message.Text())
	}
	calls := resp.Message.ToolCalls()
	if len(calls) != 1 || calls[0].ID != "c1" || calls[0].Name != "get_weather" {
		t.Fatalf("tool call not extracted: %+v", calls)
	}
	if city, _ := calls[0].Arguments["city"].(string); city != "Paris" {
		t.Fatalf("tool arguments not decoded: %v", calls[0].Arguments)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Fatalf("unexpected usage %+v", resp.Usage)
	}
}

type stubConverseAPI struct {
	err error
	out *bedrockruntime.ConverseOutput
}

func (s stubConverseAPI) Converse(ctx context.Context, in *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.out, nil
}

func TestConverseThrottlingMapsToRateLimit(t *testing.T) {
	client := &Client{api: stubConverseAPI{err: &smithy.GenericAPIError{
		Code:    "ThrottlingException",
		Message: "slow down",
	}}}
	_, err := client.Converse(context.Background(), llm.Request{
		ModelID:  "m",
		Messages: []llm.Message{llm.TextMessage(llm.RoleUser, "hi")},
	})
	if !resilience.IsRateLimit(err) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}
