package workflow

// State represents a workflow state in the transcription review lifecycle
type State string

const (
	StateTranscription State = "transcription"
	StateReview        State = "review"
	StateApproval      State = "approval"
	StateCompleted     State = "completed"
	StateRejected      State = "rejected"
)

// InitialState is the state every workflow is created in
const InitialState = StateTranscription

// transitions is the single source of truth for legal state changes.
// Any (from, to) pair not listed here is rejected.
var transitions = map[State][]State{
	StateTranscription: {StateReview, StateRejected},
	StateReview:        {StateApproval, StateTranscription, StateRejected},
	StateApproval:      {StateCompleted, StateReview, StateRejected},
	StateCompleted:     {},
	StateRejected:      {StateTranscription},
}

// States returns all valid workflow states
func States() []State {
	return []State{StateTranscription, StateReview, StateApproval, StateCompleted, StateRejected}
}

// IsValid returns true if the state is one of the five workflow states
func (s State) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal returns true if no transition leaves the state
func (s State) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// CanTransitionTo returns true if the transition table permits moving to target
func (s State) CanTransitionTo(target State) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// AllowedTargets returns the states reachable from s in one transition
func (s State) AllowedTargets() []State {
	targets := transitions[s]
	out := make([]State, len(targets))
	copy(out, targets)
	return out
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
