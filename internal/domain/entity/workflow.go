package entity

import (
	"time"

	"github.com/iamSachinDev/transcription-workflow-api/internal/domain/workflow"
)

// WorkflowStep is a single entry in a workflow's audit trail. Notes on a
// closed step describe the reason the workflow left that state.
type WorkflowStep struct {
	State       workflow.State `json:"state"`
	EnteredAt   time.Time      `json:"enteredAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	Assignee    string         `json:"assignee,omitempty"`
	Notes       string         `json:"notes,omitempty"`
}

// Workflow tracks the review lifecycle of a single transcription.
// Steps is append-only and chronological; the last step is always the
// current one and CurrentState mirrors its state.
type Workflow struct {
	ID              int64           `json:"id"`
	TranscriptionID string          `json:"transcriptionId"`
	CurrentState    workflow.State  `json:"currentState"`
	Steps           []WorkflowStep  `json:"steps"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// CurrentStep returns the step the workflow is presently in, or nil if the
// workflow has no steps (which never happens for a persisted workflow).
func (w *Workflow) CurrentStep() *WorkflowStep {
	if len(w.Steps) == 0 {
		return nil
	}
	return &w.Steps[len(w.Steps)-1]
}
