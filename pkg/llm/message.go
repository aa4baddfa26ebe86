package llm

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn in a conversation. Content is an ordered list of
// blocks; a block holds exactly one of text, a tool-use request, or a
// tool result.
type Message struct {
	Role    string
	Content []ContentBlock
}

type ContentBlock struct {
	Text       string
	ToolUse    *ToolUseBlock
	ToolResult *ToolResultBlock
}

// ToolUseBlock is a tool invocation requested by the model. ID is the
// correlation handle pairing the request with its eventual result.
type ToolUseBlock struct {
	ID    string
	Name  string
	Input map[string]any
}

type ToolResultBlock struct {
	ToolUseID string
	Content   string
	IsError   bool
}

func TextMessage(role, text string) Message {
	return Message{Role: role, Content: []ContentBlock{{Text: text}}}
}

// Text concatenates the text blocks of a message.
func (m Message) Text() string {
	var out string
	for _, b := range m.Content {
		out += b.Text
	}
	return out
}

// ToolCalls extracts the tool-use blocks of an assistant message in order.
func (m Message) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, b := range m.Content {
		if b.ToolUse == nil {
			continue
		}
		calls = append(calls, ToolCall{
			ID:        b.ToolUse.ID,
			Name:      b.ToolUse.Name,
			Arguments: b.ToolUse.Input,
		})
	}
	return calls
}
