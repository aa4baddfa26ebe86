package llm

import "context"

// Tool-choice policies understood by the Converse surface.
const (
	ToolChoiceAuto = "auto"
	ToolChoiceAny  = "any"
)

type Request struct {
	ModelID     string
	System      string
	Messages    []Message
	Tools       []Tool
	ToolChoice  string
	MaxTokens   int
	Temperature *float64
	TopP        *float64
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type Response struct {
	Message    Message
	StopReason string
	Usage      Usage
}

// ModelClient is one synchronous round trip with a text-generation model.
type ModelClient interface {
	Converse(ctx context.Context, req Request) (Response, error)
	Name() string
}
