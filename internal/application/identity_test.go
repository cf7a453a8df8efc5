package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tentimesukulele/BobiPlanCheck/internal/adapters/kv/memory"
	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
	"github.com/tentimesukulele/BobiPlanCheck/internal/ports/mocks"
)

func TestIdentityResolutionOrder(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	identity := NewIdentity(store, 0, nil)
	ctx := context.Background()

	id, err := identity.ResolveMemberID(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMemberID, id)

	require.NoError(t, identity.SaveUser(ctx, domain.CurrentUser{ID: 3, Name: "Anže", Role: domain.MemberRoleChild}))
	id, err = identity.ResolveMemberID(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, id)

	identity.Set(5)
	id, err = identity.ResolveMemberID(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, id)

	id, err = identity.ResolveMemberID(domain.WithActingMember(ctx, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, id)

	identity.Clear()
	id, err = identity.ResolveMemberID(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, id)
}

func TestIdentityPersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, NewIdentity(store, 1, nil).SaveUser(ctx, domain.CurrentUser{ID: 4, Name: "David", Role: domain.MemberRoleChild}))

	reloaded := NewIdentity(store, 1, nil)
	user, ok := reloaded.CurrentUser(ctx)
	require.True(t, ok)
	assert.Equal(t, domain.CurrentUser{ID: 4, Name: "David", Role: domain.MemberRoleChild}, user)
	assert.True(t, reloaded.IsLoggedIn(ctx))

	raw, err := store.Get(ctx, CurrentUserKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":4,"name":"David","role":"child"}`, raw)
}

func TestIdentityClearUser(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	identity := NewIdentity(store, 1, nil)
	ctx := context.Background()
	require.NoError(t, identity.SaveUser(ctx, domain.CurrentUser{ID: 2, Name: "Jasna", Role: domain.MemberRoleParent}))

	require.NoError(t, identity.ClearUser(ctx))
	assert.False(t, identity.IsLoggedIn(ctx))

	_, err := identity.LoadUser(ctx)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIdentitySaveUserRejectsUnsavedMember(t *testing.T) {
	t.Parallel()

	identity := NewIdentity(memory.NewStore(), 1, nil)
	err := identity.SaveUser(context.Background(), domain.CurrentUser{Name: "Nobody"})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestIdentityCorruptUserFallsBackToDefault(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, CurrentUserKey, "not json"))
	identity := NewIdentity(store, 2, nil)

	_, err := identity.LoadUser(ctx)
	require.ErrorIs(t, err, domain.ErrPersistence)

	id, err := identity.ResolveMemberID(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, id)
}

func TestIdentitySaveUserWrapsStoreFailure(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockKeyValueStore(t)
	store.EXPECT().Set(mockAnyContext(), CurrentUserKey, `{"id":1,"name":"Marko","role":"parent"}`).Return(errors.New("read-only"))
	identity := NewIdentity(store, 1, nil)

	err := identity.SaveUser(context.Background(), domain.CurrentUser{ID: 1, Name: "Marko", Role: domain.MemberRoleParent})
	require.ErrorIs(t, err, domain.ErrPersistence)
	require.ErrorContains(t, err, "read-only")
}
