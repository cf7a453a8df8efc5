package application

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tentimesukulele/BobiPlanCheck/internal/adapters/kv/memory"
	"github.com/tentimesukulele/BobiPlanCheck/internal/adapters/reachability"
	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
	"github.com/tentimesukulele/BobiPlanCheck/internal/ports/mocks"
)

func TestResponseCacheOfflineIgnoresAge(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2024, time.October, 16, 9, 0, 0, 0, time.UTC))
	network := reachability.NewStatic(false)
	cache := NewResponseCache(memory.NewStore(), network, clock, DefaultFreshness, nil)
	ctx := context.Background()

	cache.Put(ctx, "tasks_all", []domain.Task{{ID: 1, Title: "Dishes"}})
	clock.Advance(72 * time.Hour)

	var tasks []domain.Task
	require.True(t, cache.Lookup(ctx, "tasks_all", &tasks))
	assert.Equal(t, []domain.Task{{ID: 1, Title: "Dishes"}}, tasks)
}

func TestResponseCacheOnlineHonoursFreshness(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2024, time.October, 16, 9, 0, 0, 0, time.UTC))
	network := reachability.NewStatic(true)
	cache := NewResponseCache(memory.NewStore(), network, clock, DefaultFreshness, nil)
	ctx := context.Background()

	cache.Put(ctx, "family_all", []string{"Marko"})

	clock.Advance(DefaultFreshness - time.Second)
	_, ok := cache.Get(ctx, "family_all")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = cache.Get(ctx, "family_all")
	assert.False(t, ok, "an entry exactly at the window is stale")

	network.Set(false)
	data, ok := cache.Get(ctx, "family_all")
	require.True(t, ok)
	assert.JSONEq(t, `["Marko"]`, string(data))
}

func TestResponseCacheReachabilityErrorAppliesFreshness(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2024, time.October, 16, 9, 0, 0, 0, time.UTC))
	network := mocks.NewMockReachability(t)
	network.EXPECT().IsOnline(mockAnyContext()).Return(false, errors.New("probe failed"))
	cache := NewResponseCache(memory.NewStore(), network, clock, time.Minute, nil)
	ctx := context.Background()

	cache.Put(ctx, "calendar_all", []int{1})
	clock.Advance(2 * time.Minute)

	_, ok := cache.Get(ctx, "calendar_all")
	assert.False(t, ok)
}

func TestResponseCacheMissesOnCorruptOrEmptyEntries(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	cache := NewResponseCache(store, reachability.NewStatic(false), nil, 0, nil)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, CachePrefix+"broken", "{"))
	require.NoError(t, store.Set(ctx, CachePrefix+"empty", `{"data":null,"timestamp":1}`))

	_, ok := cache.Get(ctx, "broken")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "empty")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestResponseCachePutStoresTimestampedEnvelope(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	clock := newFakeClock(time.UnixMilli(1700000000000))
	cache := NewResponseCache(store, nil, clock, 0, nil)
	ctx := context.Background()

	cache.Put(ctx, "schedule_student_3", []map[string]string{{"subject": "Matematika"}})

	raw, err := store.Get(ctx, "cached_data_schedule_student_3")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[{"subject":"Matematika"}],"timestamp":1700000000000}`, raw)
}

func TestResponseCacheClearAllRemovesCacheAndQueueOnly(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	cache := NewResponseCache(store, nil, nil, 0, nil)
	ctx := context.Background()

	cache.Put(ctx, "tasks_all", []int{1})
	cache.Put(ctx, "grades_all_{}", []int{2})
	require.NoError(t, store.Set(ctx, OfflineQueueKey, "[]"))
	require.NoError(t, store.Set(ctx, CurrentUserKey, `{"id":3}`))
	require.NoError(t, store.Set(ctx, WeekTypeKey, "B"))

	require.NoError(t, cache.ClearAll(ctx))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{CurrentUserKey, WeekTypeKey}, keys)
}

func TestResponseCacheClearAllWrapsStoreFailure(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockKeyValueStore(t)
	store.EXPECT().Keys(mockAnyContext()).Return(nil, errors.New("locked"))
	cache := NewResponseCache(store, nil, nil, 0, nil)

	err := cache.ClearAll(context.Background())
	require.ErrorIs(t, err, domain.ErrPersistence)
}

func TestGradesServedFromCacheOnTransientFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.server.AddGrade(domain.Grade{StudentID: 3, Subject: "Matematika", Grade: 4, Weight: 1})

	live, err := h.grades.ForStudent(ctx, 3, domain.GradeFilter{})
	require.NoError(t, err)
	require.Len(t, live, 1)

	raw, err := h.store.Get(ctx, CachePrefix+"grades_student_3_{}")
	require.NoError(t, err)
	assert.Contains(t, raw, `"subject":"Matematika"`)

	h.server.SetUnreachable(true)
	cached, err := h.grades.ForStudent(ctx, 3, domain.GradeFilter{})
	require.NoError(t, err)
	assert.Equal(t, live, cached)

	h.server.SetUnreachable(false)
	h.server.Fail(http.MethodGet, "/grades", 1, http.StatusInternalServerError, "database down")
	cached, err = h.grades.ForStudent(ctx, 3, domain.GradeFilter{})
	require.NoError(t, err, "any live failure falls back to a fresh cache entry")
	assert.Equal(t, live, cached)
}

func TestCachedFetchReturnsErrorWithoutCache(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.server.SetUnreachable(true)

	_, err := h.tasks.All(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
}
