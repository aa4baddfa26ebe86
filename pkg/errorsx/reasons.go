package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonModelConverse  ReasonCode = "model_converse"
	ReasonModelRateLimit ReasonCode = "model_rate_limit"

	ReasonToolUnknown     ReasonCode = "tool_unknown"
	ReasonToolInvalidArgs ReasonCode = "tool_invalid_args"
	ReasonToolTimeout     ReasonCode = "tool_timeout"
	ReasonToolFailed      ReasonCode = "tool_failed"

	ReasonMaxRounds  ReasonCode = "max_rounds"
	ReasonRunTimeout ReasonCode = "run_timeout"

	ReasonJudgeVerdict ReasonCode = "judge_verdict"
)
