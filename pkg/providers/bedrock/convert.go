package bedrock

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/toolflowhq/toolflow/pkg/llm"
)

const defaultMaxTokens = 4096

func buildConverseInput(req llm.Request) (*bedrockruntime.ConverseInput, error) {
	messages, err := toConverseMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:         aws.String(req.ModelID),
		Messages:        messages,
		InferenceConfig: toInferenceConfig(req),
	}
	if req.System != "" {
		input.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: req.System},
		}
	}
	if cfg := toToolConfig(req.Tools, req.ToolChoice); cfg != nil {
		input.ToolConfig = cfg
	}
	return input, nil
}

func toConverseMessages(messages []llm.Message) ([]types.Message, error) {
	out := make([]types.Message, 0, len(messages))
	for _, msg := range messages {
		var role types.ConversationRole
		switch msg.Role {
		case llm.RoleUser:
			role = types.ConversationRoleUser
		case llm.RoleAssistant:
			role = types.ConversationRoleAssistant
		default:
			return nil, fmt.Errorf("unsupported role %q", msg.Role)
		}

		blocks := make([]types.ContentBlock, 0, len(msg.Content))
		for _, b := range msg.Content {
			switch {
			case b.ToolUse != nil:
				blocks = append(blocks, &types.ContentBlockMemberToolUse{
					Value: types.ToolUseBlock{
						ToolUseId: aws.String(b.ToolUse.ID),
						Name:      aws.String(b.ToolUse.Name),
						Input:     document.NewLazyDocument(b.ToolUse.Input),
					},
				})
			case b.ToolResult != nil:
				status := types.ToolResultStatusSuccess
				if b.ToolResult.IsError {
					status = types.ToolResultStatusError
				}
				blocks = append(blocks, &types.ContentBlockMemberToolResult{
					Value: types.ToolResultBlock{
						ToolUseId: aws.String(b.ToolResult.ToolUseID),
						Content: []types.ToolResultContentBlock{
							&types.ToolResultContentBlockMemberText{Value: b.ToolResult.Content},
						},
						Status: status,
					},
				})
			case b.Text != "":
				blocks = append(blocks, &types.ContentBlockMemberText{Value: b.Text})
			}
		}
		if len(blocks) == 0 {
			continue
		}
		out = append(out, types.Message{Role: role, Content: blocks})
	}
	return out, nil
}

func toInferenceConfig(req llm.Request) *types.InferenceConfiguration {
	cfg := &types.InferenceConfiguration{}
	if req.MaxTokens > 0 {
		cfg.MaxTokens = aws.Int32(int32(req.MaxTokens))
	} else {
		cfg.MaxTokens = aws.Int32(int32(defaultMaxTokens))
	}
	if req.Temperature != nil {
		cfg.Temperature = aws.Float32(float32(*req.Temperature))
	}
	if req.TopP != nil {
		cfg.TopP = aws.Float32(float32(*req.TopP))
	}
	return cfg
}

func toToolConfig(tools []llm.Tool, choice string) *types.ToolConfiguration {
	if len(tools) == 0 {
		return nil
	}
	awsTools := make([]types.Tool, 0, len(tools))
	for _, t := range tools {
		var schema document.Interface
		if t.Schema != nil {
			schema = document.NewLazyDocument(t.Schema)
		}
		awsTools = append(awsTools, &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(t.Name),
				Description: aws.String(t.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{Value: schema},
			},
		})
	}
	cfg := &types.ToolConfiguration{Tools: awsTools}
	switch choice {
	case llm.ToolChoiceAny:
		cfg.ToolChoice = &types.ToolChoiceMemberAny{}
	default:
		cfg.ToolChoice = &types.ToolChoiceMemberAuto{}
	}
	return cfg
}

func parseConverseOutput(out *bedrockruntime.ConverseOutput) (llm.Response, error) {
	resp := llm.Response{StopReason: string(out.StopReason)}

	outMsg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return llm.Response{}, fmt.Errorf("unexpected converse output %T", out.Output)
	}
	msg := llm.Message{Role: llm.RoleAssistant}
	for _, block := range outMsg.Value.Content {
		switch v := block.(type) {
		case *types.ContentBlockMemberText:
			msg.Content = append(msg.Content, llm.ContentBlock{Text: v.Value})
		case *types.ContentBlockMemberToolUse:
			use := v.Value
			if use.ToolUseId == nil || use.Name == nil {
				continue
			}
			args := map[string]any{}
			if use.Input != nil {
				if err := use.Input.UnmarshalSmithyDocument(&args); err != nil {
					return llm.Response{}, fmt.Errorf("decode tool input for %s: %w", *use.Name, err)
				}
			}
			msg.Content = append(msg.Content, llm.ContentBlock{ToolUse: &llm.ToolUseBlock{
				ID:    *use.ToolUseId,
				Name:  *use.Name,
				Input: args,
			}})
		}
	}
	resp.Message = msg

	if out.Usage != nil {
		if out.Usage.InputTokens != nil {
			resp.Usage.InputTokens = int(*out.Usage.InputTokens)
		}
		if out.Usage.OutputTokens != nil {
			resp.Usage.OutputTokens = int(*out.Usage.OutputTokens)
		}
		if out.Usage.TotalTokens != nil {
			resp.Usage.TotalTokens = int(*out.Usage.TotalTokens)
		} else {
			resp.Usage.TotalTokens = resp.Usage.InputTokens + resp.Usage.OutputTokens
		}
	}
	return resp, nil
}
