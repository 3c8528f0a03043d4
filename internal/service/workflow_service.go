package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iamSachinDev/transcription-workflow-api/internal/domain/entity"
	"github.com/iamSachinDev/transcription-workflow-api/internal/domain/workflow"
	"github.com/iamSachinDev/transcription-workflow-api/internal/port"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// WorkflowService owns the review lifecycle state machine: it validates and
// applies transitions, appends history steps, and enforces the
// one-workflow-per-transcription invariant.
type WorkflowService interface {
	Create(ctx context.Context, transcriptionID, assignee string) (*entity.Workflow, error)
	Advance(ctx context.Context, id int64, target workflow.State, assignee, notes string) (*entity.Workflow, error)
	Reject(ctx context.Context, id int64, reason, assignee string) (*entity.Workflow, error)
	GetByID(ctx context.Context, id int64) (*entity.Workflow, error)
	ListByState(ctx context.Context, state workflow.State) ([]*entity.Workflow, error)
	ListAll(ctx context.Context) ([]*entity.Workflow, error)
}

type workflowServiceImpl struct {
	repo     port.WorkflowRepository
	notifier port.Notifier
	logger   Logger
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(repo port.WorkflowRepository, notifier port.Notifier, logger Logger) WorkflowService {
	return &workflowServiceImpl{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

// Create starts tracking a transcription with a single step in the initial state
func (s *workflowServiceImpl) Create(ctx context.Context, transcriptionID, assignee string) (*entity.Workflow, error) {
	existing, err := s.repo.GetByTranscriptionID(ctx, transcriptionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: transcription %s", workflow.ErrWorkflowExists, transcriptionID)
	}

	wf := &entity.Workflow{
		TranscriptionID: transcriptionID,
		CurrentState:    workflow.InitialState,
		Steps: []entity.WorkflowStep{{
			State:     workflow.InitialState,
			EnteredAt: time.Now().UTC(),
			Assignee:  assignee,
		}},
	}

	// The unique index backs up this pre-check, so a racing create still
	// surfaces as a conflict rather than a second workflow
	if err := s.repo.Create(ctx, wf); err != nil {
		s.logger.Error("Failed to create workflow", "error", err, "transcription_id", transcriptionID)
		return nil, err
	}

	s.logger.Info("Workflow created", "id", wf.ID, "transcription_id", transcriptionID)
	s.notify(ctx, assignee, wf)
	return wf, nil
}

// Advance moves the workflow to target if the transition table permits it.
// The current step is closed with completedAt and any notes, which describe
// the reason for leaving the state being closed. A new step is appended and
// both are persisted together with the new current state.
func (s *workflowServiceImpl) Advance(ctx context.Context, id int64, target workflow.State, assignee, notes string) (*entity.Workflow, error) {
	if !target.IsValid() {
		return nil, fmt.Errorf("%w: %s", workflow.ErrInvalidState, target)
	}

	wf, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, fmt.Errorf("%w: id %d", workflow.ErrWorkflowNotFound, id)
	}

	from := wf.CurrentState
	if !from.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", workflow.ErrInvalidTransition, from, target)
	}

	now := time.Now().UTC()
	steps := make([]entity.WorkflowStep, len(wf.Steps), len(wf.Steps)+1)
	copy(steps, wf.Steps)

	current := &steps[len(steps)-1]
	current.CompletedAt = &now
	if notes != "" {
		current.Notes = notes
	}

	steps = append(steps, entity.WorkflowStep{
		State:     target,
		EnteredAt: now,
		Assignee:  assignee,
	})

	updated, err := s.repo.UpdateTransition(ctx, id, from, target, steps)
	if err != nil {
		s.logger.Error("Failed to persist transition",
			"error", err, "id", id, "from", from.String(), "to", target.String())
		return nil, err
	}
	if updated == nil {
		// The guard missed: either the workflow vanished or a concurrent
		// transition moved it out of `from` first
		check, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if check == nil {
			return nil, fmt.Errorf("%w: id %d", workflow.ErrWorkflowNotFound, id)
		}
		return nil, fmt.Errorf("%w: id %d moved from %s to %s", workflow.ErrStaleWorkflow, id, from, check.CurrentState)
	}

	s.logger.Info("Workflow advanced",
		"id", id, "from", from.String(), "to", target.String())
	s.notify(ctx, assignee, updated)
	return updated, nil
}

// Reject is advance to the rejected state; the reason lands as notes on the
// step being closed, not on the new rejected step
func (s *workflowServiceImpl) Reject(ctx context.Context, id int64, reason, assignee string) (*entity.Workflow, error) {
	return s.Advance(ctx, id, workflow.StateRejected, assignee, reason)
}

// GetByID retrieves a workflow by id
func (s *workflowServiceImpl) GetByID(ctx context.Context, id int64) (*entity.Workflow, error) {
	wf, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, fmt.Errorf("%w: id %d", workflow.ErrWorkflowNotFound, id)
	}
	return wf, nil
}

// ListByState retrieves all workflows currently in the given state
func (s *workflowServiceImpl) ListByState(ctx context.Context, state workflow.State) ([]*entity.Workflow, error) {
	if !state.IsValid() {
		return nil, fmt.Errorf("%w: %s", workflow.ErrInvalidState, state)
	}
	return s.repo.ListByState(ctx, state)
}

// ListAll retrieves every workflow
func (s *workflowServiceImpl) ListAll(ctx context.Context) ([]*entity.Workflow, error) {
	return s.repo.ListAll(ctx)
}

// notify tells the assignee about the workflow's new step, best effort
func (s *workflowServiceImpl) notify(ctx context.Context, assignee string, wf *entity.Workflow) {
	if assignee == "" || s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyAssignment(ctx, assignee, wf); err != nil {
		s.logger.Warn("Failed to notify assignee",
			"error", err, "assignee", assignee, "workflow_id", wf.ID)
	}
}
