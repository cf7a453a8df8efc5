package application

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tentimesukulele/BobiPlanCheck/internal/adapters/kv/chain"
	"github.com/tentimesukulele/BobiPlanCheck/internal/adapters/kv/memory"
	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
	"github.com/tentimesukulele/BobiPlanCheck/internal/ports"
	"github.com/tentimesukulele/BobiPlanCheck/internal/ports/mocks"
)

type recordingTransport struct {
	mu       sync.Mutex
	requests []ports.Request
	members  []int
}

func (r *recordingTransport) record(ctx context.Context, req ports.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	id, _ := domain.ActingMember(ctx)
	r.members = append(r.members, id)
}

func (r *recordingTransport) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := make([]string, 0, len(r.requests))
	for _, req := range r.requests {
		paths = append(paths, req.Method+" "+req.Path)
	}
	return paths
}

func newMockQueue(t *testing.T, opts QueueOptions) (*OfflineQueue, *mocks.MockTransport, *memory.Store) {
	t.Helper()

	transport := mocks.NewMockTransport(t)
	store := memory.NewStore()
	if opts.Clock == nil {
		opts.Clock = newFakeClock(time.Date(2024, time.October, 16, 9, 0, 0, 0, time.UTC))
	}

	return NewOfflineQueue(store, transport, opts), transport, store
}

func TestOfflineQueueEnqueueAssignsIDAndTimestamp(t *testing.T) {
	t.Parallel()

	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(time.UnixMilli(1700000000000)).Times(2)
	queue, _, store := newMockQueue(t, QueueOptions{Clock: clock})
	ctx := context.Background()

	first := queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionCreate, Endpoint: "/tasks", Method: http.MethodPost})
	second := queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionDelete, Endpoint: "/tasks/7", Method: http.MethodDelete})

	assert.Equal(t, int64(1700000000000), first.Timestamp)
	assert.Regexp(t, `^1700000000000-[0-9a-f-]{36}$`, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	pending, err := queue.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, second.ID, pending[1].ID)

	raw, err := store.Get(ctx, OfflineQueueKey)
	require.NoError(t, err)
	assert.Contains(t, raw, `"type":"CREATE"`)
	assert.Contains(t, raw, `"endpoint":"/tasks"`)
}

func TestOfflineQueueEnqueueSurvivesPersistenceFailure(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockKeyValueStore(t)
	store.EXPECT().Get(mockAnyContext(), OfflineQueueKey).Return("", errors.New("disk full")).Once()
	queue := NewOfflineQueue(store, mocks.NewMockTransport(t), QueueOptions{})

	action := queue.Enqueue(context.Background(), domain.PendingAction{Kind: domain.ActionCreate, Endpoint: "/tasks"})
	assert.NotEmpty(t, action.ID)
}

func TestOfflineQueueTreatsCorruptValueAsEmpty(t *testing.T) {
	t.Parallel()

	queue, _, store := newMockQueue(t, QueueOptions{})
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, OfflineQueueKey, "{not json"))

	count, err := queue.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionCreate, Endpoint: "/tasks"})
	count, err = queue.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOfflineQueueDrainReplaysInEnqueueOrder(t *testing.T) {
	t.Parallel()

	queue, transport, store := newMockQueue(t, QueueOptions{})
	ctx := context.Background()
	recorder := &recordingTransport{}
	transport.EXPECT().Do(mockAnyContext(), mock.Anything).RunAndReturn(func(ctx context.Context, req ports.Request) (ports.Envelope, error) {
		recorder.record(ctx, req)
		return ports.Envelope{Success: true}, nil
	}).Times(3)

	queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionCreate, Endpoint: "/tasks", Method: http.MethodPost, Payload: json.RawMessage(`{"title":"a1"}`), ActorID: 2})
	queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionUpdate, Endpoint: "/tasks/4/complete", Method: http.MethodPut, ActorID: 3})
	queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionDelete, Endpoint: "/tasks/5", Method: http.MethodDelete, Payload: json.RawMessage(`{"ignored":true}`)})

	result, err := queue.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, DrainResult{Attempted: 3, Succeeded: 3}, result)

	assert.Equal(t, []string{"POST /tasks", "PUT /tasks/4/complete", "DELETE /tasks/5"}, recorder.paths())
	assert.Equal(t, []int{2, 3, 0}, recorder.members)
	assert.JSONEq(t, `{"title":"a1"}`, string(recorder.requests[0].Body.(json.RawMessage)))
	assert.Nil(t, recorder.requests[2].Body)

	_, err = store.Get(ctx, OfflineQueueKey)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOfflineQueueLegacyActionsReplayByKind(t *testing.T) {
	t.Parallel()

	queue, transport, _ := newMockQueue(t, QueueOptions{})
	ctx := context.Background()
	recorder := &recordingTransport{}
	transport.EXPECT().Do(mockAnyContext(), mock.Anything).RunAndReturn(func(ctx context.Context, req ports.Request) (ports.Envelope, error) {
		recorder.record(ctx, req)
		return ports.Envelope{Success: true}, nil
	}).Twice()

	queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionUpdate, Endpoint: "/grades/9", Payload: json.RawMessage(`{"grade":5}`)})
	queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionDelete, Endpoint: "/grades/9"})

	_, err := queue.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"POST /grades/9", "DELETE /grades/9"}, recorder.paths())
}

func TestOfflineQueueRetainFailedKeepsFailuresForNextPass(t *testing.T) {
	t.Parallel()

	queue, transport, _ := newMockQueue(t, QueueOptions{Policy: DrainRetainFailed})
	ctx := context.Background()

	failed := &domain.RequestError{Method: http.MethodPost, Path: "/tasks", Message: "network request failed"}
	transport.EXPECT().Do(mockAnyContext(), mock.MatchedBy(func(req ports.Request) bool { return req.Path == "/tasks" })).
		Return(ports.Envelope{}, failed).Once()
	transport.EXPECT().Do(mockAnyContext(), mock.MatchedBy(func(req ports.Request) bool { return req.Path == "/tasks/5" })).
		Return(ports.Envelope{Success: true}, nil).Once()

	create := queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionCreate, Endpoint: "/tasks", Method: http.MethodPost})
	queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionDelete, Endpoint: "/tasks/5", Method: http.MethodDelete})

	result, err := queue.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, DrainResult{Attempted: 2, Succeeded: 1, Failed: 1, Remaining: 1}, result)

	pending, err := queue.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, create.ID, pending[0].ID)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Contains(t, pending[0].LastError, "network request failed")
}

func TestOfflineQueueRetainFailedDropsAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	queue, transport, _ := newMockQueue(t, QueueOptions{Policy: DrainRetainFailed, MaxAttempts: 2})
	ctx := context.Background()
	transport.EXPECT().Do(mockAnyContext(), mock.Anything).
		Return(ports.Envelope{}, &domain.RequestError{Method: http.MethodPut, Path: "/tasks/3/complete", StatusCode: http.StatusInternalServerError, Message: "boom"}).
		Twice()

	queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionUpdate, Endpoint: "/tasks/3/complete", Method: http.MethodPut})

	first, err := queue.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Remaining)
	assert.Zero(t, first.Dropped)

	second, err := queue.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Dropped)
	assert.Zero(t, second.Remaining)

	count, err := queue.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOfflineQueueClearAllEmptiesQueueAfterPass(t *testing.T) {
	t.Parallel()

	queue, transport, _ := newMockQueue(t, QueueOptions{Policy: DrainClearAll})
	ctx := context.Background()
	transport.EXPECT().Do(mockAnyContext(), mock.MatchedBy(func(req ports.Request) bool { return req.Path == "/calendar" })).
		Return(ports.Envelope{Success: false, Error: "Event overlaps"}, nil).Once()
	transport.EXPECT().Do(mockAnyContext(), mock.MatchedBy(func(req ports.Request) bool { return req.Path == "/grades" })).
		Return(ports.Envelope{Success: true}, nil).Once()

	queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionCreate, Endpoint: "/calendar", Method: http.MethodPost})
	queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionCreate, Endpoint: "/grades", Method: http.MethodPost})

	result, err := queue.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, DrainResult{Attempted: 2, Succeeded: 1, Failed: 1, Dropped: 1}, result)

	count, err := queue.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOfflineQueueKeepsActionsEnqueuedDuringDrain(t *testing.T) {
	t.Parallel()

	queue, transport, _ := newMockQueue(t, QueueOptions{Policy: DrainClearAll})
	ctx := context.Background()

	var late domain.PendingAction
	transport.EXPECT().Do(mockAnyContext(), mock.Anything).RunAndReturn(func(ctx context.Context, _ ports.Request) (ports.Envelope, error) {
		late = queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionDelete, Endpoint: "/tasks/8", Method: http.MethodDelete})
		return ports.Envelope{Success: true}, nil
	}).Once()

	queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionCreate, Endpoint: "/tasks", Method: http.MethodPost})

	result, err := queue.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Remaining)

	pending, err := queue.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, late.ID, pending[0].ID)
}

func TestOfflineQueueRejectsConcurrentDrain(t *testing.T) {
	t.Parallel()

	queue, transport, _ := newMockQueue(t, QueueOptions{})
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	transport.EXPECT().Do(mockAnyContext(), mock.Anything).RunAndReturn(func(context.Context, ports.Request) (ports.Envelope, error) {
		close(started)
		<-release
		return ports.Envelope{Success: true}, nil
	}).Once()

	queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionCreate, Endpoint: "/tasks", Method: http.MethodPost})

	done := make(chan error, 1)
	go func() {
		_, err := queue.Drain(ctx)
		done <- err
	}()

	<-started
	_, err := queue.Drain(ctx)
	require.ErrorIs(t, err, ErrDrainInProgress)

	close(release)
	require.NoError(t, <-done)
}

func TestOfflineQueueDrainStopsOnCancellationAndKeepsRest(t *testing.T) {
	t.Parallel()

	queue, transport, _ := newMockQueue(t, QueueOptions{Policy: DrainClearAll})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport.EXPECT().Do(mockAnyContext(), mock.Anything).RunAndReturn(func(context.Context, ports.Request) (ports.Envelope, error) {
		cancel()
		return ports.Envelope{Success: true}, nil
	}).Once()

	queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionCreate, Endpoint: "/tasks", Method: http.MethodPost})
	untouched := queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionDelete, Endpoint: "/tasks/2", Method: http.MethodDelete})

	result, err := queue.Drain(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 1, result.Remaining)

	pending, err := queue.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, untouched.ID, pending[0].ID)
}

func TestOfflineQueueHandleConnectivityDrainsWhenOnline(t *testing.T) {
	t.Parallel()

	queue, transport, _ := newMockQueue(t, QueueOptions{})
	ctx := context.Background()
	transport.EXPECT().Do(mockAnyContext(), mock.Anything).Return(ports.Envelope{Success: true}, nil).Once()

	queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionCreate, Endpoint: "/tasks", Method: http.MethodPost})
	listener := queue.HandleConnectivity(ctx)

	listener(false)
	count, err := queue.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	listener(true)
	count, err = queue.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOfflineQueueScenarioReplaysCreateThenDelete(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.identity.Set(2)
	existing := h.server.AddTask(domain.Task{Title: "Take out trash", CreatedBy: 1, AssignedTo: 4})

	h.offline()
	placeholder, err := h.tasks.Create(ctx, 0, domain.CreateTaskRequest{Title: "Clean room", AssignedTo: 3})
	require.NoError(t, err)
	assert.True(t, placeholder.Placeholder())
	queued, err := h.tasks.Delete(ctx, existing.ID)
	require.NoError(t, err)
	require.NotNil(t, queued)
	require.Len(t, h.pending(t), 2)

	h.online()
	result, err := h.queue.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, DrainResult{Attempted: 2, Succeeded: 2}, result)
	assert.Empty(t, h.pending(t))

	requests := h.server.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, http.MethodPost, requests[0].Method)
	assert.Equal(t, "/tasks", requests[0].Path)
	assert.Equal(t, "2", requests[0].MemberID)
	assert.Equal(t, http.MethodDelete, requests[1].Method)
	assert.Equal(t, "/tasks/"+strconv.Itoa(existing.ID), requests[1].Path)

	tasks := h.server.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Clean room", tasks[0].Title)
	assert.Equal(t, 2, tasks[0].CreatedBy)
	assert.Equal(t, 3, tasks[0].AssignedTo)
}

// readOnlyStore keeps serving what it holds and rejects every write, like a
// storage file on a read-only filesystem.
type readOnlyStore struct {
	*memory.Store
}

func (readOnlyStore) Set(context.Context, string, string) error {
	return errors.New("read-only filesystem")
}

func (readOnlyStore) Remove(context.Context, ...string) error {
	return errors.New("read-only filesystem")
}

func newReadOnlyChainQueue(t *testing.T, seeded ...string) (*OfflineQueue, *mocks.MockTransport) {
	t.Helper()

	ctx := context.Background()
	primary := memory.NewStore()
	seedQueue := NewOfflineQueue(primary, nil, QueueOptions{Clock: newFakeClock(time.UnixMilli(1700000000000))})
	for _, endpoint := range seeded {
		seedQueue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionCreate, Endpoint: endpoint, Method: http.MethodPost})
	}

	transport := mocks.NewMockTransport(t)
	store := chain.NewStore(readOnlyStore{Store: primary}, memory.NewStore())
	queue := NewOfflineQueue(store, transport, QueueOptions{Clock: newFakeClock(time.UnixMilli(1700000001000))})

	return queue, transport
}

func TestOfflineQueueKeepsEnqueuesWhenDurableStoreIsReadOnly(t *testing.T) {
	t.Parallel()

	queue, _ := newReadOnlyChainQueue(t, "/tasks/a")
	ctx := context.Background()

	queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionCreate, Endpoint: "/tasks/b", Method: http.MethodPost})
	queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionCreate, Endpoint: "/tasks/c", Method: http.MethodPost})

	pending, err := queue.Pending(ctx)
	require.NoError(t, err)
	endpoints := make([]string, 0, len(pending))
	for _, action := range pending {
		endpoints = append(endpoints, action.Endpoint)
	}
	assert.Equal(t, []string{"/tasks/a", "/tasks/b", "/tasks/c"}, endpoints)
}

func TestOfflineQueueDeliveredActionsStayGoneWhenDurableStoreIsReadOnly(t *testing.T) {
	t.Parallel()

	queue, transport := newReadOnlyChainQueue(t, "/tasks/a", "/tasks/b")
	ctx := context.Background()

	transport.EXPECT().Do(mockAnyContext(), mock.Anything).Return(ports.Envelope{Success: true}, nil).Twice()

	result, err := queue.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)

	count, err := queue.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// A second pass must not replay what was already delivered.
	result, err = queue.Drain(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Attempted)
}

func TestOfflineQueueClearHoldsWhenDurableStoreIsReadOnly(t *testing.T) {
	t.Parallel()

	queue, _ := newReadOnlyChainQueue(t, "/tasks/a")
	ctx := context.Background()

	require.NoError(t, queue.Clear(ctx))

	count, err := queue.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOfflineQueueDrainReportsProgressPerAction(t *testing.T) {
	t.Parallel()

	queue, transport, _ := newMockQueue(t, QueueOptions{})
	ctx := context.Background()

	transport.EXPECT().Do(mockAnyContext(), mock.MatchedBy(func(req ports.Request) bool { return req.Path == "/tasks" })).
		Return(ports.Envelope{Success: true}, nil).Once()
	transport.EXPECT().Do(mockAnyContext(), mock.MatchedBy(func(req ports.Request) bool { return req.Path == "/tasks/9" })).
		Return(ports.Envelope{}, errors.New("connection reset")).Once()

	queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionCreate, Endpoint: "/tasks", Method: http.MethodPost})
	queue.Enqueue(ctx, domain.PendingAction{Kind: domain.ActionDelete, Endpoint: "/tasks/9", Method: http.MethodDelete})

	var steps []DrainProgress
	result, err := queue.DrainWithProgress(ctx, func(progress DrainProgress) {
		steps = append(steps, progress)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	require.Len(t, steps, 2)
	assert.Equal(t, 2, steps[0].Total)
	assert.Equal(t, 1, steps[0].Done)
	assert.Equal(t, "/tasks", steps[0].Action.Endpoint)
	assert.NoError(t, steps[0].Err)
	assert.Equal(t, 2, steps[1].Done)
	assert.Equal(t, 1, steps[1].Failed)
	assert.Error(t, steps[1].Err)
}
