package orchestrator

import "time"

// FailurePolicy decides what happens when a tool invocation fails.
type FailurePolicy int

const (
	// ReportToolErrors feeds the failure back to the model as an
	// error-status result block and keeps the conversation going.
	ReportToolErrors FailurePolicy = iota
	// PropagateToolErrors aborts the run on the first tool failure.
	PropagateToolErrors
)

type Options struct {
	ModelID     string
	System      string
	MaxTokens   int
	Temperature *float64
	TopP        *float64

	// MaxRounds bounds the number of model round trips; exceeding it
	// fails the run with ErrTooManyRounds.
	MaxRounds int
	// RunTimeout bounds the whole run, zero means no deadline.
	RunTimeout time.Duration
	// Concurrency is the in-flight ceiling for tool execution within
	// one batch.
	Concurrency   int
	ToolTimeout   time.Duration
	Retries       int
	RetryBackoff  time.Duration
	FailurePolicy FailurePolicy
}

func (o Options) withDefaults() Options {
	if o.MaxRounds <= 0 {
		o.MaxRounds = 8
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 150 * time.Millisecond
	}
	return o
}
