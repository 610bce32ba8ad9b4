package playback

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetvault/internal/storage"
)

func TestSweeperDeletesOnlyExpiredSecureObjects(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	retention := 5 * 24 * time.Hour

	put := func(key string, age time.Duration) {
		require.NoError(t, store.Put(ctx, key, []byte("x"), ""))
		store.SetLastModified(key, time.Now().Add(-age))
	}

	put("secure/aaaa1111_old.m3u8", retention+time.Hour)
	put("secure/bbbb2222_fresh.m3u8", retention-time.Hour)
	put("secure/cccc3333_recent.m3u8", time.Hour)
	// Source recordings live outside the swept namespace.
	put("recordings/mix/ancient_20250101000000.m3u8", 30*24*time.Hour)
	put("audiofiles/room42_old_1736847045000.mp3", 30*24*time.Hour)

	sweeper := NewSweeper(store, retention, zerolog.Nop())

	deleted, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	exists := func(key string) bool {
		ok, err := store.Exists(ctx, key)
		require.NoError(t, err)
		return ok
	}
	assert.False(t, exists("secure/aaaa1111_old.m3u8"))
	assert.True(t, exists("secure/bbbb2222_fresh.m3u8"))
	assert.True(t, exists("secure/cccc3333_recent.m3u8"))
	assert.True(t, exists("recordings/mix/ancient_20250101000000.m3u8"))
	assert.True(t, exists("audiofiles/room42_old_1736847045000.mp3"))
}

func TestSweeperEmptyNamespace(t *testing.T) {
	sweeper := NewSweeper(storage.NewMemoryStore(), 5*24*time.Hour, zerolog.Nop())
	deleted, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
