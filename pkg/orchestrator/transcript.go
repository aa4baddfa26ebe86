package orchestrator

import "github.com/toolflowhq/toolflow/pkg/llm"

// Transcript is the full record of one orchestration run. Messages are
// append-only and discarded with the transcript; nothing is persisted.
type Transcript struct {
	RunID      string
	ModelID    string
	Messages   []llm.Message
	RoundTrips int
	ToolRounds int
	Usage      llm.Usage
}

func (t *Transcript) append(msg llm.Message) {
	t.Messages = append(t.Messages, msg)
}

func (t *Transcript) addUsage(u llm.Usage) {
	t.Usage.InputTokens += u.InputTokens
	t.Usage.OutputTokens += u.OutputTokens
	t.Usage.TotalTokens += u.TotalTokens
}

// Final returns the last assistant message of a completed run.
func (t *Transcript) Final() llm.Message {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].Role == llm.RoleAssistant {
			return t.Messages[i]
		}
	}
	return llm.Message{}
}
