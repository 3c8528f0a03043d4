package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when the transition table does not
	// permit moving from the current state to the requested target
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a value is not one of the five workflow states
	ErrInvalidState = errors.New("invalid workflow state")

	// ErrWorkflowExists is returned when a workflow already tracks the transcription
	ErrWorkflowExists = errors.New("workflow already exists for this transcription")

	// ErrWorkflowNotFound is returned when an id does not resolve to a workflow
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrStaleWorkflow is returned when a concurrent transition moved the
	// workflow between the read and the conditional write
	ErrStaleWorkflow = errors.New("workflow was modified concurrently")
)
