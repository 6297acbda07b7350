package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/identity-service/internal/storage/sqlite"
	"github.com/magabrotheeeer/identity-service/internal/storage/storagetest"
)

func newStorage(t *testing.T) *sqlite.Storage {
	t.Helper()
	s, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "identity.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorage(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storagetest.Repository {
		return newStorage(t)
	})
}

func TestStorage_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "identity.db")

	s, err := sqlite.New(ctx, path)
	require.NoError(t, err)
	acc := storagetest.NewAccount("alice", "alice@example.com")
	require.NoError(t, s.Insert(ctx, acc))
	require.NoError(t, s.Close())

	reopened, err := sqlite.New(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
	assert.True(t, acc.CreatedAt.Equal(got.CreatedAt))
	assert.NoError(t, reopened.Ping(ctx))
}
