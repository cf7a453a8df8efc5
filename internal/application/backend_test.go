package application

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
	"github.com/tentimesukulele/BobiPlanCheck/internal/ports"
	"github.com/tentimesukulele/BobiPlanCheck/internal/ports/mocks"
)

func TestBackendOfflineCreateQueuesAndReturnsPlaceholder(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.offline()

	task, err := h.tasks.Create(ctx, 0, domain.CreateTaskRequest{Title: "Clean room", AssignedTo: 3})
	require.NoError(t, err)
	assert.Negative(t, task.ID)
	assert.Equal(t, "Clean room", task.Title)
	assert.Equal(t, domain.TaskStatusPending, task.Status)
	assert.Equal(t, domain.DefaultMemberID, task.CreatedBy)
	assert.Equal(t, "2024-10-16T09:00:00Z", task.CreatedAt)

	pending := h.pending(t)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.ActionCreate, pending[0].Kind)
	assert.Equal(t, "/tasks", pending[0].Endpoint)
	assert.Equal(t, http.MethodPost, pending[0].Method)
	assert.JSONEq(t, `{"title":"Clean room","assigned_to":3,"task_type":"one_time","created_by":1}`, string(pending[0].Payload))
	assert.Empty(t, h.server.Requests())
}

func TestBackendPlaceholderIDsAreDistinct(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.offline()

	first, err := h.tasks.Create(ctx, 1, domain.CreateTaskRequest{Title: "One", AssignedTo: 3})
	require.NoError(t, err)
	second, err := h.tasks.Create(ctx, 1, domain.CreateTaskRequest{Title: "Two", AssignedTo: 3})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Less(t, second.ID, first.ID)
}

func TestBackendValidationRejectionIsNotQueued(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.server.Fail(http.MethodPost, "/tasks", 1, http.StatusUnprocessableEntity, "Validation failed", "title too long")

	_, err := h.tasks.Create(ctx, 1, domain.CreateTaskRequest{Title: "Clean room", AssignedTo: 3})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, domain.StatusCode(err))

	var reqErr *domain.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, []string{"title too long"}, reqErr.Details)
	assert.Empty(t, h.pending(t))
}

func TestBackendTransientFailureQueuesAndReturnsError(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	existing := h.server.AddTask(domain.Task{Title: "Dishes", CreatedBy: 1, AssignedTo: 3})
	h.server.SetUnreachable(true)

	_, err := h.tasks.Complete(ctx, existing.ID)
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))

	pending := h.pending(t)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.ActionUpdate, pending[0].Kind)
	assert.Equal(t, http.MethodPut, pending[0].Method)

	h.server.SetUnreachable(false)
	_, err = h.queue.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, h.server.Tasks()[0].Status)
}

func TestBackendLiveMutationReturnsServerRecord(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	task, err := h.tasks.Create(ctx, 2, domain.CreateTaskRequest{Title: "  Walk the dog ", AssignedTo: 5})
	require.NoError(t, err)
	assert.Positive(t, task.ID)
	assert.Equal(t, "Walk the dog", task.Title)
	assert.Equal(t, 2, task.CreatedBy)

	requests := h.server.RequestsTo(http.MethodPost, "/tasks")
	require.Len(t, requests, 1)
	assert.Equal(t, "2", requests[0].MemberID)
	assert.Empty(t, h.pending(t))
}

func TestBackendSuccessFalseEnvelopeIsRejected(t *testing.T) {
	t.Parallel()

	transport := mocks.NewMockTransport(t)
	transport.EXPECT().Do(mockAnyContext(), ports.Request{Method: http.MethodDelete, Path: "/tasks/3"}).
		Return(ports.Envelope{Success: false, Error: "Task is locked"}, nil)

	backend := NewBackend(BackendOptions{Transport: transport})
	_, err := NewTaskService(backend).Delete(context.Background(), 3)
	require.ErrorIs(t, err, domain.ErrRejected)
	require.ErrorContains(t, err, "Task is locked")
}

func TestBackendSuccessFalseWithoutErrorIsRejected(t *testing.T) {
	t.Parallel()

	transport := mocks.NewMockTransport(t)
	transport.EXPECT().Do(mockAnyContext(), ports.Request{Method: http.MethodPut, Path: "/tasks/3/complete"}).
		Return(ports.Envelope{Success: false, Message: "Already completed"}, nil).Once()
	transport.EXPECT().Do(mockAnyContext(), ports.Request{Method: http.MethodDelete, Path: "/tasks/4"}).
		Return(ports.Envelope{Success: false}, nil).Once()

	tasks := NewTaskService(NewBackend(BackendOptions{Transport: transport}))

	_, err := tasks.Complete(context.Background(), 3)
	require.ErrorIs(t, err, domain.ErrRejected)
	require.ErrorContains(t, err, "Already completed")

	_, err = tasks.Delete(context.Background(), 4)
	require.ErrorIs(t, err, domain.ErrRejected)
	require.ErrorContains(t, err, "unsuccessful")
}

func TestBackendOfflineWithoutQueueFails(t *testing.T) {
	t.Parallel()

	network := mocks.NewMockReachability(t)
	network.EXPECT().IsOnline(mockAnyContext()).Return(false, nil)
	backend := NewBackend(BackendOptions{Transport: mocks.NewMockTransport(t), Reachability: network})

	_, err := NewTaskService(backend).Delete(context.Background(), 3)
	require.ErrorIs(t, err, domain.ErrOffline)
}

func TestBackendReachabilityErrorCountsAsOnline(t *testing.T) {
	t.Parallel()

	network := mocks.NewMockReachability(t)
	network.EXPECT().IsOnline(mockAnyContext()).Return(false, errors.New("no probe"))
	transport := mocks.NewMockTransport(t)
	transport.EXPECT().Do(mockAnyContext(), ports.Request{Method: http.MethodPut, Path: "/tasks/3/complete"}).
		Return(ports.Envelope{Success: true}, nil)

	backend := NewBackend(BackendOptions{Transport: transport, Reachability: network})
	queued, err := NewTaskService(backend).Complete(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, queued)
}

func TestBackendValidatesBeforeNetwork(t *testing.T) {
	t.Parallel()

	backend := NewBackend(BackendOptions{Transport: mocks.NewMockTransport(t)})
	tasks := NewTaskService(backend)
	ctx := context.Background()

	_, err := tasks.Create(ctx, 1, domain.CreateTaskRequest{Title: "  ", AssignedTo: 3})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = tasks.Reassign(ctx, 4, 0)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = tasks.Get(ctx, -1)
	require.ErrorIs(t, err, domain.ErrValidation)
}
