package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/iamSachinDev/transcription-workflow-api/internal/domain/entity"
	"github.com/iamSachinDev/transcription-workflow-api/internal/domain/workflow"
	"github.com/iamSachinDev/transcription-workflow-api/internal/port"
)

// WorkflowRepository implements port.WorkflowRepository on SQLite.
// The steps array is stored as a JSON document column so a transition
// writes the whole history and the current state in one statement.
type WorkflowRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWorkflowRepository creates a new workflow repository
func NewWorkflowRepository(db *sql.DB, logger *zap.Logger) port.WorkflowRepository {
	return &WorkflowRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new workflow and fills in its id and timestamps
func (r *WorkflowRepository) Create(ctx context.Context, wf *entity.Workflow) error {
	steps, err := json.Marshal(wf.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal steps: %w", err)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO workflows (transcription_id, current_state, steps, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		wf.TranscriptionID,
		wf.CurrentState.String(),
		string(steps),
		now,
		now,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return workflow.ErrWorkflowExists
		}
		r.logger.Error("Failed to create workflow",
			zap.String("transcription_id", wf.TranscriptionID),
			zap.Error(err))
		return fmt.Errorf("failed to create workflow: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	wf.ID = id
	wf.CreatedAt = now
	wf.UpdatedAt = now
	return nil
}

// GetByID retrieves a workflow by its store-assigned id
func (r *WorkflowRepository) GetByID(ctx context.Context, id int64) (*entity.Workflow, error) {
	query := `
		SELECT id, transcription_id, current_state, steps, created_at, updated_at
		FROM workflows
		WHERE id = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByTranscriptionID retrieves a workflow by its business key
func (r *WorkflowRepository) GetByTranscriptionID(ctx context.Context, transcriptionID string) (*entity.Workflow, error) {
	query := `
		SELECT id, transcription_id, current_state, steps, created_at, updated_at
		FROM workflows
		WHERE transcription_id = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, transcriptionID))
}

// ListByState retrieves all workflows whose current state equals state
func (r *WorkflowRepository) ListByState(ctx context.Context, state workflow.State) ([]*entity.Workflow, error) {
	query := `
		SELECT id, transcription_id, current_state, steps, created_at, updated_at
		FROM workflows
		WHERE current_state = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, state.String())
	if err != nil {
		r.logger.Error("Failed to list workflows by state",
			zap.String("state", state.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// ListAll retrieves every workflow, newest first
func (r *WorkflowRepository) ListAll(ctx context.Context) ([]*entity.Workflow, error) {
	query := `
		SELECT id, transcription_id, current_state, steps, created_at, updated_at
		FROM workflows
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list workflows", zap.Error(err))
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// UpdateTransition writes the new state and the full steps array, guarded on
// the state the transition was computed from. A concurrent transition makes
// the guard miss, in which case (nil, nil) is returned and no row changes.
func (r *WorkflowRepository) UpdateTransition(ctx context.Context, id int64, from, to workflow.State, steps []entity.WorkflowStep) (*entity.Workflow, error) {
	data, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal steps: %w", err)
	}

	query := `
		UPDATE workflows
		SET current_state = ?, steps = ?, updated_at = ?
		WHERE id = ? AND current_state = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		to.String(),
		string(data),
		time.Now().UTC(),
		id,
		from.String(),
	)
	if err != nil {
		r.logger.Error("Failed to update workflow",
			zap.Int64("id", id),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

func (r *WorkflowRepository) scanOne(row *sql.Row) (*entity.Workflow, error) {
	var wf entity.Workflow
	var state, steps string

	err := row.Scan(&wf.ID, &wf.TranscriptionID, &state, &steps, &wf.CreatedAt, &wf.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to scan workflow", zap.Error(err))
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	wf.CurrentState = workflow.State(state)
	if err := json.Unmarshal([]byte(steps), &wf.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}

	return &wf, nil
}

func (r *WorkflowRepository) scanAll(rows *sql.Rows) ([]*entity.Workflow, error) {
	var workflows []*entity.Workflow
	for rows.Next() {
		var wf entity.Workflow
		var state, steps string

		if err := rows.Scan(&wf.ID, &wf.TranscriptionID, &state, &steps, &wf.CreatedAt, &wf.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		wf.CurrentState = workflow.State(state)
		if err := json.Unmarshal([]byte(steps), &wf.Steps); err != nil {
			return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
		}

		workflows = append(workflows, &wf)
	}
	return workflows, rows.Err()
}

// Verify interface compliance
var _ port.WorkflowRepository = (*WorkflowRepository)(nil)
