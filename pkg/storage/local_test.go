package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Save(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, "uploads")
	owner, id := uuid.New(), uuid.New()

	ref, err := store.Save(context.Background(), owner, id, "image/jpeg", []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/generated/"+owner.String()+"/"+id.String()+".jpg", ref)

	data, err := os.ReadFile(filepath.Join(root, "generated", owner.String(), id.String()+".jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)

	entries, err := os.ReadDir(filepath.Join(root, "generated", owner.String()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalStore_RejectsEmptyAndCancelled(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "/uploads/")

	_, err := store.Save(context.Background(), uuid.New(), uuid.New(), "image/png", nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Save(ctx, uuid.New(), uuid.New(), "image/png", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalStore_Delete(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, "/uploads")
	owner, id := uuid.New(), uuid.New()
	ctx := context.Background()

	_, err := store.Save(ctx, owner, id, "image/png", []byte("png"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, owner, id, "image/png"))
	_, err = os.Stat(filepath.Join(root, "generated", owner.String(), id.String()+".png"))
	assert.True(t, os.IsNotExist(err))

	// Deleting twice is fine.
	assert.NoError(t, store.Delete(ctx, owner, id, "image/png"))
}
