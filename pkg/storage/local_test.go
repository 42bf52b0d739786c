package storage

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkforge/inkforge-backend/pkg/config"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), config.StorageConfig{
		UploadRoot:    "uploads",
		PublicBaseURL: "/uploads",
	})
	require.NoError(t, err)
	return store
}

func TestLocalStore_SaveResolveDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	url, err := store.Save(ctx, "assets/logo.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/assets/logo.png", url)

	local, ok := store.Resolve(url)
	require.True(t, ok)
	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(ctx, url))
	_, err = os.Stat(local)
	assert.True(t, os.IsNotExist(err))

	// Deleting twice stays quiet.
	assert.NoError(t, store.Delete(ctx, url))
}

func TestLocalStore_ResolveRejectsTraversal(t *testing.T) {
	store := newTestStore(t)

	_, ok := store.Resolve("/../etc/passwd")
	assert.False(t, ok)

	_, ok = store.Resolve("")
	assert.False(t, ok)
}

func TestLocalStore_SaveRejectsEmptyKey(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save(context.Background(), "", "image/png", strings.NewReader("x"))
	assert.Error(t, err)

	_, err = store.Save(context.Background(), "/", "image/png", strings.NewReader("x"))
	assert.Error(t, err)
}
