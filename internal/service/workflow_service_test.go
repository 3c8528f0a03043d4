package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamSachinDev/transcription-workflow-api/internal/domain/entity"
	"github.com/iamSachinDev/transcription-workflow-api/internal/domain/workflow"
)

// memWorkflowRepo is an in-memory stand-in for the SQLite repository,
// including the conditional-update guard semantics.
type memWorkflowRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*entity.Workflow

	// forceUpdateMiss makes UpdateTransition behave as if a concurrent
	// transition won the race
	forceUpdateMiss bool
}

func newMemWorkflowRepo() *memWorkflowRepo {
	return &memWorkflowRepo{byID: make(map[int64]*entity.Workflow)}
}

func (m *memWorkflowRepo) Create(_ context.Context, wf *entity.Workflow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.TranscriptionID == wf.TranscriptionID {
			return workflow.ErrWorkflowExists
		}
	}
	m.nextID++
	wf.ID = m.nextID
	m.byID[wf.ID] = cloneWorkflow(wf)
	return nil
}

func (m *memWorkflowRepo) GetByID(_ context.Context, id int64) (*entity.Workflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wf, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneWorkflow(wf), nil
}

func (m *memWorkflowRepo) GetByTranscriptionID(_ context.Context, transcriptionID string) (*entity.Workflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, wf := range m.byID {
		if wf.TranscriptionID == transcriptionID {
			return cloneWorkflow(wf), nil
		}
	}
	return nil, nil
}

func (m *memWorkflowRepo) ListByState(_ context.Context, state workflow.State) ([]*entity.Workflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Workflow
	for _, wf := range m.byID {
		if wf.CurrentState == state {
			out = append(out, cloneWorkflow(wf))
		}
	}
	return out, nil
}

func (m *memWorkflowRepo) ListAll(_ context.Context) ([]*entity.Workflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Workflow
	for _, wf := range m.byID {
		out = append(out, cloneWorkflow(wf))
	}
	return out, nil
}

func (m *memWorkflowRepo) UpdateTransition(_ context.Context, id int64, from, to workflow.State, steps []entity.WorkflowStep) (*entity.Workflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wf, ok := m.byID[id]
	if !ok || wf.CurrentState != from || m.forceUpdateMiss {
		return nil, nil
	}
	wf.CurrentState = to
	wf.Steps = append([]entity.WorkflowStep(nil), steps...)
	return cloneWorkflow(wf), nil
}

func cloneWorkflow(wf *entity.Workflow) *entity.Workflow {
	out := *wf
	out.Steps = append([]entity.WorkflowStep(nil), wf.Steps...)
	return &out
}

type recordingNotifier struct {
	assignees []string
}

func (n *recordingNotifier) NotifyAssignment(_ context.Context, assignee string, _ *entity.Workflow) error {
	n.assignees = append(n.assignees, assignee)
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func newTestService(repo *memWorkflowRepo) (WorkflowService, *recordingNotifier) {
	notifier := &recordingNotifier{}
	return NewWorkflowService(repo, notifier, nopLogger{}), notifier
}

func TestWorkflowService_Create(t *testing.T) {
	svc, notifier := newTestService(newMemWorkflowRepo())

	wf, err := svc.Create(context.Background(), "t1", "alice")
	require.NoError(t, err)

	assert.Equal(t, workflow.StateTranscription, wf.CurrentState)
	require.Len(t, wf.Steps, 1)
	assert.Equal(t, workflow.StateTranscription, wf.Steps[0].State)
	assert.Equal(t, "alice", wf.Steps[0].Assignee)
	assert.Nil(t, wf.Steps[0].CompletedAt)
	assert.False(t, wf.Steps[0].EnteredAt.IsZero())
	assert.Equal(t, []string{"alice"}, notifier.assignees)
}

func TestWorkflowService_Create_Duplicate(t *testing.T) {
	repo := newMemWorkflowRepo()
	svc, _ := newTestService(repo)

	_, err := svc.Create(context.Background(), "t1", "")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "t1", "")
	require.ErrorIs(t, err, workflow.ErrWorkflowExists)

	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestWorkflowService_Advance_LegalTransitions(t *testing.T) {
	for _, from := range workflow.States() {
		for _, to := range from.AllowedTargets() {
			t.Run(from.String()+"_to_"+to.String(), func(t *testing.T) {
				repo := newMemWorkflowRepo()
				svc, _ := newTestService(repo)

				wf := seedWorkflow(t, repo, "t1", from)
				before := len(wf.Steps)

				updated, err := svc.Advance(context.Background(), wf.ID, to, "bob", "")
				require.NoError(t, err)

				assert.Equal(t, to, updated.CurrentState)
				require.Len(t, updated.Steps, before+1)
				assert.NotNil(t, updated.Steps[before-1].CompletedAt)
				assert.Nil(t, updated.Steps[before].CompletedAt)
				assert.Equal(t, to, updated.Steps[before].State)
				assert.Equal(t, "bob", updated.Steps[before].Assignee)
			})
		}
	}
}

func TestWorkflowService_Advance_IllegalTransitions(t *testing.T) {
	for _, from := range workflow.States() {
		for _, to := range workflow.States() {
			if from.CanTransitionTo(to) {
				continue
			}
			t.Run(from.String()+"_to_"+to.String(), func(t *testing.T) {
				repo := newMemWorkflowRepo()
				svc, _ := newTestService(repo)

				wf := seedWorkflow(t, repo, "t1", from)
				before := len(wf.Steps)

				_, err := svc.Advance(context.Background(), wf.ID, to, "", "")
				require.ErrorIs(t, err, workflow.ErrInvalidTransition)
				assert.Contains(t, err.Error(), from.String()+" -> "+to.String())

				// nothing changed
				unchanged, getErr := svc.GetByID(context.Background(), wf.ID)
				require.NoError(t, getErr)
				assert.Equal(t, from, unchanged.CurrentState)
				assert.Len(t, unchanged.Steps, before)
			})
		}
	}
}

func TestWorkflowService_Advance_NotFound(t *testing.T) {
	svc, _ := newTestService(newMemWorkflowRepo())

	_, err := svc.Advance(context.Background(), 42, workflow.StateReview, "", "")
	require.ErrorIs(t, err, workflow.ErrWorkflowNotFound)
}

func TestWorkflowService_Advance_InvalidTarget(t *testing.T) {
	repo := newMemWorkflowRepo()
	svc, _ := newTestService(repo)
	wf := seedWorkflow(t, repo, "t1", workflow.StateTranscription)

	_, err := svc.Advance(context.Background(), wf.ID, workflow.State("archived"), "", "")
	require.ErrorIs(t, err, workflow.ErrInvalidState)
}

func TestWorkflowService_Advance_ConcurrentModification(t *testing.T) {
	repo := newMemWorkflowRepo()
	svc, _ := newTestService(repo)
	wf := seedWorkflow(t, repo, "t1", workflow.StateReview)

	repo.forceUpdateMiss = true
	_, err := svc.Advance(context.Background(), wf.ID, workflow.StateApproval, "", "")
	require.ErrorIs(t, err, workflow.ErrStaleWorkflow)
}

func TestWorkflowService_Reject(t *testing.T) {
	repo := newMemWorkflowRepo()
	svc, _ := newTestService(repo)
	wf := seedWorkflow(t, repo, "t1", workflow.StateReview)

	rejected, err := svc.Reject(context.Background(), wf.ID, "bad audio", "carol")
	require.NoError(t, err)

	assert.Equal(t, workflow.StateRejected, rejected.CurrentState)
	require.Len(t, rejected.Steps, 2)

	// the reason lands on the step that was closed, not the rejected step
	closed := rejected.Steps[0]
	assert.Equal(t, workflow.StateReview, closed.State)
	assert.Equal(t, "bad audio", closed.Notes)
	assert.NotNil(t, closed.CompletedAt)
	assert.Empty(t, rejected.Steps[1].Notes)
}

// TestWorkflowService_Lifecycle walks a workflow through the full review
// lifecycle, including the dead ends.
func TestWorkflowService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newMemWorkflowRepo()
	svc, _ := newTestService(repo)

	wf, err := svc.Create(ctx, "t1", "")
	require.NoError(t, err)
	assert.Equal(t, workflow.StateTranscription, wf.CurrentState)
	assert.Len(t, wf.Steps, 1)

	wf, err = svc.Advance(ctx, wf.ID, workflow.StateReview, "r1", "")
	require.NoError(t, err)
	assert.Equal(t, workflow.StateReview, wf.CurrentState)
	assert.Len(t, wf.Steps, 2)
	assert.NotNil(t, wf.Steps[0].CompletedAt)

	// review cannot skip straight to completed
	_, err = svc.Advance(ctx, wf.ID, workflow.StateCompleted, "", "")
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)

	wf, err = svc.Advance(ctx, wf.ID, workflow.StateApproval, "", "")
	require.NoError(t, err)
	assert.Len(t, wf.Steps, 3)

	wf, err = svc.Advance(ctx, wf.ID, workflow.StateCompleted, "", "")
	require.NoError(t, err)
	assert.Equal(t, workflow.StateCompleted, wf.CurrentState)
	assert.Len(t, wf.Steps, 4)

	// completed is terminal, every target fails
	for _, target := range workflow.States() {
		_, err = svc.Advance(ctx, wf.ID, target, "", "")
		require.ErrorIs(t, err, workflow.ErrInvalidTransition, "completed -> %s", target)
	}

	// history integrity: every step but the last is closed
	final, err := svc.GetByID(ctx, wf.ID)
	require.NoError(t, err)
	for i, step := range final.Steps[:len(final.Steps)-1] {
		assert.NotNil(t, step.CompletedAt, "step %d should be closed", i)
	}
	assert.Nil(t, final.Steps[len(final.Steps)-1].CompletedAt)

	// a rejected workflow can only restart at transcription
	wf2, err := svc.Create(ctx, "t2", "")
	require.NoError(t, err)

	wf2, err = svc.Reject(ctx, wf2.ID, "noise", "")
	require.NoError(t, err)
	assert.Equal(t, workflow.StateRejected, wf2.CurrentState)
	assert.Equal(t, "noise", wf2.Steps[0].Notes)

	_, err = svc.Advance(ctx, wf2.ID, workflow.StateReview, "", "")
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)

	wf2, err = svc.Advance(ctx, wf2.ID, workflow.StateTranscription, "", "")
	require.NoError(t, err)
	assert.Equal(t, workflow.StateTranscription, wf2.CurrentState)
}

func TestWorkflowService_ListByState(t *testing.T) {
	ctx := context.Background()
	repo := newMemWorkflowRepo()
	svc, _ := newTestService(repo)

	a, err := svc.Create(ctx, "t1", "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "t2", "")
	require.NoError(t, err)

	_, err = svc.Advance(ctx, a.ID, workflow.StateReview, "", "")
	require.NoError(t, err)

	inReview, err := svc.ListByState(ctx, workflow.StateReview)
	require.NoError(t, err)
	require.Len(t, inReview, 1)
	assert.Equal(t, "t1", inReview[0].TranscriptionID)

	pending, err := svc.ListByState(ctx, workflow.StateTranscription)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	empty, err := svc.ListByState(ctx, workflow.StateCompleted)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = svc.ListByState(ctx, workflow.State("archived"))
	require.ErrorIs(t, err, workflow.ErrInvalidState)
}

func TestWorkflowService_GetByID_NotFound(t *testing.T) {
	svc, _ := newTestService(newMemWorkflowRepo())

	_, err := svc.GetByID(context.Background(), 99)
	require.ErrorIs(t, err, workflow.ErrWorkflowNotFound)
}

// seedWorkflow creates a workflow and walks it to the wanted state
func seedWorkflow(t *testing.T, repo *memWorkflowRepo, transcriptionID string, state workflow.State) *entity.Workflow {
	t.Helper()
	ctx := context.Background()
	svc, _ := newTestService(repo)

	wf, err := svc.Create(ctx, transcriptionID, "")
	require.NoError(t, err)

	paths := map[workflow.State][]workflow.State{
		workflow.StateTranscription: {},
		workflow.StateReview:        {workflow.StateReview},
		workflow.StateApproval:      {workflow.StateReview, workflow.StateApproval},
		workflow.StateCompleted:     {workflow.StateReview, workflow.StateApproval, workflow.StateCompleted},
		workflow.StateRejected:      {workflow.StateRejected},
	}

	for _, next := range paths[state] {
		wf, err = svc.Advance(ctx, wf.ID, next, "", "")
		require.NoError(t, err)
	}

	require.Equal(t, state, wf.CurrentState)
	return wf
}
