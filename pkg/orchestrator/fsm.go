package orchestrator

import "sync"

// RunState tracks where a run is in its turn loop.
type RunState int

const (
	StateAwaitingModel RunState = iota
	StateModelResponded
	StateExecutingTools
	StateDone
)

func (s RunState) String() string {
	switch s {
	case StateAwaitingModel:
		return "awaiting_model"
	case StateModelResponded:
		return "model_responded"
	case StateExecutingTools:
		return "executing_tools"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// stateMachine validates run state transitions. The loop only ever moves
// awaiting_model -> model_responded -> (executing_tools -> awaiting_model | done).
type stateMachine struct {
	mu      sync.RWMutex
	current RunState
}

func newStateMachine() *stateMachine {
	return &stateMachine{current: StateAwaitingModel}
}

func (sm *stateMachine) State() RunState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

func (sm *stateMachine) transitionValid(from, to RunState) bool {
	validTransitions := map[RunState][]RunState{
		StateAwaitingModel:  {StateModelResponded},
		StateModelResponded: {StateExecutingTools, StateDone},
		StateExecutingTools: {StateAwaitingModel},
		StateDone:           {},
	}
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves to a new state with validation.
func (sm *stateMachine) Transition(to RunState) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.transitionValid(sm.current, to) {
		return &InvalidTransitionError{From: sm.current, To: to}
	}
	sm.current = to
	return nil
}

// InvalidTransitionError represents an invalid state transition attempt.
type InvalidTransitionError struct {
	From RunState
	To   RunState
}

func (e *InvalidTransitionError) Error() string {
	return "invalid run state transition from " + e.From.String() + " to " + e.To.String()
}
