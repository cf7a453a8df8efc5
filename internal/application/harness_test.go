package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tentimesukulele/BobiPlanCheck/internal/adapters/api"
	"github.com/tentimesukulele/BobiPlanCheck/internal/adapters/kv/memory"
	"github.com/tentimesukulele/BobiPlanCheck/internal/adapters/reachability"
	"github.com/tentimesukulele/BobiPlanCheck/internal/apitest"
	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
)

func mockAnyContext() any {
	return mock.MatchedBy(func(context.Context) bool { return true })
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	server   *apitest.Server
	store    *memory.Store
	network  *reachability.Static
	clock    *fakeClock
	identity *Identity
	queue    *OfflineQueue
	cache    *ResponseCache
	backend  *Backend

	members  *MemberService
	tasks    *TaskService
	calendar *CalendarService
	schedule *ScheduleService
	grades   *GradeService
	notify   *NotificationService
}

type harnessOption func(*QueueOptions)

func withPolicy(policy DrainPolicy, maxAttempts int) harnessOption {
	return func(opts *QueueOptions) {
		opts.Policy = policy
		opts.MaxAttempts = maxAttempts
	}
}

// newHarness wires the services against an in-memory API with retries disabled.
func newHarness(t *testing.T, options ...harnessOption) *harness {
	t.Helper()

	h := &harness{
		server:  apitest.New(t),
		store:   memory.NewStore(),
		network: reachability.NewStatic(true),
		clock:   newFakeClock(time.Date(2024, time.October, 16, 9, 0, 0, 0, time.UTC)),
	}

	h.identity = NewIdentity(h.store, domain.DefaultMemberID, nil)

	client, err := api.NewClient(api.Options{
		BaseURL:       h.server.BaseURL(),
		Timeout:       2 * time.Second,
		RetryAttempts: -1,
		Identity:      h.identity,
	})
	require.NoError(t, err)

	queueOpts := QueueOptions{Clock: h.clock}
	for _, option := range options {
		option(&queueOpts)
	}

	h.queue = NewOfflineQueue(h.store, client, queueOpts)
	h.cache = NewResponseCache(h.store, h.network, h.clock, DefaultFreshness, nil)
	h.backend = NewBackend(BackendOptions{
		Transport:    client,
		Reachability: h.network,
		Cache:        h.cache,
		Queue:        h.queue,
		Identity:     h.identity,
		Clock:        h.clock,
	})

	h.members = NewMemberService(h.backend)
	h.tasks = NewTaskService(h.backend)
	h.calendar = NewCalendarService(h.backend)
	h.schedule = NewScheduleService(h.backend, h.store)
	h.grades = NewGradeService(h.backend)
	h.notify = NewNotificationService(h.backend)

	return h
}

// offline makes the device report offline and the server drop connections.
func (h *harness) offline() {
	h.network.Set(false)
	h.server.SetUnreachable(true)
}

func (h *harness) online() {
	h.network.Set(true)
	h.server.SetUnreachable(false)
}

func (h *harness) pending(t *testing.T) []domain.PendingAction {
	t.Helper()

	actions, err := h.queue.Pending(context.Background())
	require.NoError(t, err)
	return actions
}
