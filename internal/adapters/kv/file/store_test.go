package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
)

func TestStoreRoundTripWithSlashedKeys(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)
	ctx := context.Background()

	key := `cached_data_grades_student_3_{"school_year":"2025/2026"}`
	require.NoError(t, store.Set(ctx, key, `{"data":[]}`))

	value, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"data":[]}`, value)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].IsDir())

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)
}

func TestStoreEnforcesFilePermissions(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "kv")
	store := NewStore(root)
	require.NoError(t, store.Set(context.Background(), "offline_actions", "[]"))

	info, err := os.Stat(filepath.Join(root, "offline_actions"+valueSuffix))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(valueFileMode), info.Mode().Perm())
}

func TestStoreGetMissingKeyReturnsNotFound(t *testing.T) {
	t.Parallel()

	_, err := NewStore(t.TempDir()).Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreRejectsInvalidKeys(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	for _, key := range []string{"", "  ", ".", ".."} {
		require.Error(t, store.Set(context.Background(), key, "v"), "key %q", key)
	}
}

func TestStoreRemoveIgnoresMissingKeys(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "a", "1"))

	require.NoError(t, store.Remove(ctx, "a", "b"))
	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStoreKeysOnMissingRoot(t *testing.T) {
	t.Parallel()

	keys, err := NewStore(filepath.Join(t.TempDir(), "absent")).Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}
