package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func accountKey(a account) string { return a.ID }

func TestRepositorySaveUpserts(t *testing.T) {
	ctx := context.Background()
	repo, err := NewRepository(NewMemoryBackend(), "accounts", accountKey)
	require.NoError(t, err)

	_, err = repo.Save(ctx, account{ID: "a1", Email: "old@example.com"})
	require.NoError(t, err)
	_, err = repo.Save(ctx, account{ID: "a1", Email: "new@example.com"})
	require.NoError(t, err)

	got, ok, err := repo.Get("a1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new@example.com", got.Email)

	n, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRepositorySaveAll(t *testing.T) {
	backend, err := NewBboltBackend(filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	defer backend.Close()

	repo, err := NewRepository(backend, "accounts", accountKey)
	require.NoError(t, err)

	saved, err := repo.SaveAll(context.Background(), []account{
		{ID: "a1", Email: "a1@example.com"},
		{ID: "a2", Email: "a2@example.com"},
	})
	require.NoError(t, err)
	assert.Len(t, saved, 2)

	got, ok, err := repo.Get("a2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a2@example.com", got.Email)

	_, ok, err = repo.Get("a3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepositoryGeneratesMissingKeys(t *testing.T) {
	ctx := context.Background()
	repo, err := NewRepository[account](NewMemoryBackend(), "accounts", nil)
	require.NoError(t, err)

	_, err = repo.SaveAll(ctx, []account{{Email: "x@example.com"}, {Email: "x@example.com"}})
	require.NoError(t, err)

	n, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
