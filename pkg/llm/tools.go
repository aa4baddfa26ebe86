package llm

// Tool describes a capability the model may request. Schema follows the
// JSON-schema object convention: {"type":"object","properties":{...},"required":[...]}.
type Tool struct {
	Name        string
	Description string
	Schema      map[string]any
}

// ToolCall is one invocation request extracted from an assistant message.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolResult pairs a result with its originating call by correlation handle.
type ToolResult struct {
	ToolUseID string
	Content   string
	IsError   bool
}
