package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
)

func TestFileMirrorRepositoryRoundTrip(t *testing.T) {
	repo, err := NewFileMirrorRepository(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = repo.Get(ctx, "studentsData")
	require.ErrorIs(t, err, appErrors.ErrMirrorMiss)

	require.NoError(t, repo.Set(ctx, "studentsData", []byte(`[{"id":"s1"}]`)))
	require.NoError(t, repo.Set(ctx, "theme", []byte(`"dark"`)))

	value, err := repo.Get(ctx, "studentsData")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"s1"}]`, string(value))

	keys, err := repo.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"studentsData", "theme"}, keys)

	require.NoError(t, repo.Delete(ctx, "theme"))
	require.NoError(t, repo.Delete(ctx, "theme"))
	require.NoError(t, repo.Clear(ctx))
	keys, err = repo.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFileMirrorRepositoryRejectsUnsafeKeys(t *testing.T) {
	repo, err := NewFileMirrorRepository(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
		err := repo.Set(context.Background(), key, []byte(`1`))
		assert.ErrorIs(t, err, appErrors.ErrValidation, key)
	}
}

func TestFileMirrorRepositoryKeyForPath(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileMirrorRepository(dir)
	require.NoError(t, err)

	key, ok := repo.KeyForPath(filepath.Join(dir, "parentsData.json"))
	require.True(t, ok)
	assert.Equal(t, "parentsData", key)

	_, ok = repo.KeyForPath(filepath.Join(dir, ".tmp-parentsData.json-123"))
	assert.False(t, ok)
	_, ok = repo.KeyForPath(filepath.Join(dir, "notes.txt"))
	assert.False(t, ok)
	_, ok = repo.KeyForPath(filepath.Join(dir, "credentials", "drive_grant.json"))
	assert.False(t, ok)
}
