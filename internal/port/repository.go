package port

import (
	"context"

	"github.com/iamSachinDev/transcription-workflow-api/internal/domain/entity"
	"github.com/iamSachinDev/transcription-workflow-api/internal/domain/workflow"
)

// WorkflowRepository persists workflow aggregates. Lookup methods return
// (nil, nil) when no document matches.
type WorkflowRepository interface {
	// Create inserts the workflow and fills in ID, CreatedAt and UpdatedAt
	Create(ctx context.Context, wf *entity.Workflow) error

	// GetByID retrieves a workflow by its store-assigned id
	GetByID(ctx context.Context, id int64) (*entity.Workflow, error)

	// GetByTranscriptionID retrieves a workflow by its business key
	GetByTranscriptionID(ctx context.Context, transcriptionID string) (*entity.Workflow, error)

	// ListByState retrieves all workflows whose current state equals state
	ListByState(ctx context.Context, state workflow.State) ([]*entity.Workflow, error)

	// ListAll retrieves every workflow, newest first
	ListAll(ctx context.Context) ([]*entity.Workflow, error)

	// UpdateTransition writes the new current state and the full steps array
	// in one statement, guarded on the state the transition was computed
	// from. Returns (nil, nil) when no row matched the guard.
	UpdateTransition(ctx context.Context, id int64, from, to workflow.State, steps []entity.WorkflowStep) (*entity.Workflow, error)
}

// TranscriptionUpdate holds the partial fields an update may touch.
// Nil pointers leave the stored value untouched.
type TranscriptionUpdate struct {
	AudioURL      *string
	Transcription *string
	Source        *string
}

// TranscriptionRepository persists transcription records
type TranscriptionRepository interface {
	Create(ctx context.Context, t *entity.Transcription) error
	GetByID(ctx context.Context, id int64) (*entity.Transcription, error)

	// FindRecent returns records created within the last `days` days
	FindRecent(ctx context.Context, days int) ([]*entity.Transcription, error)

	// FindRecentByAudioURL returns a record for the URL created within the
	// last `days` days, or (nil, nil)
	FindRecentByAudioURL(ctx context.Context, audioURL string, days int) (*entity.Transcription, error)

	// Update applies the partial update and returns the updated record,
	// or (nil, nil) when the id does not resolve
	Update(ctx context.Context, id int64, upd TranscriptionUpdate) (*entity.Transcription, error)
}
