package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "nested", DefaultFileName))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func TestNewStore(t *testing.T) {
	t.Run("creates database file", func(t *testing.T) {
		store := setupTestStore(t)
		assert.FileExists(t, store.Path())
	})

	t.Run("reopen keeps data and skips applied migrations", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), DefaultFileName)
		ctx := context.Background()

		first, err := NewStore(path)
		require.NoError(t, err)
		require.NoError(t, first.SaveDevice(ctx, "dev-1"))
		require.NoError(t, first.Save(ctx, domain.Bookmark{Stream: "events", DeviceID: "dev-1", Cursor: "c1"}))
		require.NoError(t, first.Close())

		second, err := NewStore(path)
		require.NoError(t, err)
		defer second.Close()

		id, err := second.Device(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.DeviceID("dev-1"), id)

		b, err := second.Get(ctx, "events", "dev-1")
		require.NoError(t, err)
		assert.Equal(t, "c1", b.Cursor)

		var versions int
		require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
		assert.Equal(t, 1, versions)
	})
}

func TestStore_Bookmarks(t *testing.T) {
	ctx := context.Background()

	t.Run("get missing returns not found", func(t *testing.T) {
		store := setupTestStore(t)
		_, err := store.Get(ctx, "events", "dev-1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("save overwrites", func(t *testing.T) {
		store := setupTestStore(t)
		at := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

		require.NoError(t, store.Save(ctx, domain.Bookmark{Stream: "events", DeviceID: "dev-1", Cursor: "A", UpdatedAt: at}))
		require.NoError(t, store.Save(ctx, domain.Bookmark{Stream: "events", DeviceID: "dev-1", Cursor: "B", UpdatedAt: at.Add(time.Minute)}))

		b, err := store.Get(ctx, "events", "dev-1")
		require.NoError(t, err)
		assert.Equal(t, "B", b.Cursor)
		assert.Equal(t, at.Add(time.Minute), b.UpdatedAt)
	})

	t.Run("bookmarks are scoped by device", func(t *testing.T) {
		store := setupTestStore(t)
		require.NoError(t, store.Save(ctx, domain.Bookmark{Stream: "events", DeviceID: "dev-1", Cursor: "A"}))

		_, err := store.Get(ctx, "events", "dev-2")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("list orders by stream", func(t *testing.T) {
		store := setupTestStore(t)
		for _, s := range []string{"users", "contacts", "events"} {
			require.NoError(t, store.Save(ctx, domain.Bookmark{Stream: s, DeviceID: "dev-1", Cursor: s}))
		}
		require.NoError(t, store.Save(ctx, domain.Bookmark{Stream: "deals", DeviceID: "dev-2", Cursor: "x"}))

		list, err := store.List(ctx, "dev-1")
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "contacts", list[0].Stream)
		assert.Equal(t, "events", list[1].Stream)
		assert.Equal(t, "users", list[2].Stream)
	})

	t.Run("delete", func(t *testing.T) {
		store := setupTestStore(t)
		require.NoError(t, store.Save(ctx, domain.Bookmark{Stream: "tags", DeviceID: "dev-1", Cursor: "A"}))
		require.NoError(t, store.Delete(ctx, "tags", "dev-1"))
		require.NoError(t, store.Delete(ctx, "tags", "dev-1"))

		_, err := store.Get(ctx, "tags", "dev-1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("purge discards every device", func(t *testing.T) {
		store := setupTestStore(t)
		require.NoError(t, store.Save(ctx, domain.Bookmark{Stream: "tags", DeviceID: "dev-1", Cursor: "A"}))
		require.NoError(t, store.Save(ctx, domain.Bookmark{Stream: "tags", DeviceID: "dev-2", Cursor: "B"}))
		require.NoError(t, store.Purge(ctx))

		for _, d := range []domain.DeviceID{"dev-1", "dev-2"} {
			list, err := store.List(ctx, d)
			require.NoError(t, err)
			assert.Empty(t, list)
		}
	})

	t.Run("concurrent saves from independent streams", func(t *testing.T) {
		store := setupTestStore(t)
		var wg sync.WaitGroup
		for _, s := range []string{"a", "b", "c", "d"} {
			wg.Add(1)
			go func(stream string) {
				defer wg.Done()
				for i := 0; i < 10; i++ {
					assert.NoError(t, store.Save(ctx, domain.Bookmark{Stream: stream, DeviceID: "dev-1", Cursor: stream}))
				}
			}(s)
		}
		wg.Wait()

		list, err := store.List(ctx, "dev-1")
		require.NoError(t, err)
		assert.Len(t, list, 4)
	})
}

func TestStore_Device(t *testing.T) {
	ctx := context.Background()

	t.Run("missing device", func(t *testing.T) {
		store := setupTestStore(t)
		_, err := store.Device(ctx)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("save replaces", func(t *testing.T) {
		store := setupTestStore(t)
		require.NoError(t, store.SaveDevice(ctx, "dev-1"))
		require.NoError(t, store.SaveDevice(ctx, "dev-2"))

		id, err := store.Device(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.DeviceID("dev-2"), id)
	})
}
