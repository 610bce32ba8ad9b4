package playback

import (
	"context"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetvault/internal/storage"
	"meetvault/internal/transcode"
)

// fakeConverter stands in for ffmpeg: it verifies the local playlist exists
// and writes a marker output file.
type fakeConverter struct {
	calls       atomic.Int32
	unavailable bool
}

func (f *fakeConverter) Available() error {
	if f.unavailable {
		return transcode.ErrUnavailable
	}
	return nil
}

func (f *fakeConverter) ToAudio(_ context.Context, playlistPath, outputPath string) error {
	f.calls.Add(1)
	if _, err := os.Stat(playlistPath); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte("mp3-bytes"), 0o644)
}

func TestAudioServiceGetOrCreate(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	playlistKey := "recordings/mix/sid1_room42_20250114093045.m3u8"
	seedManifest(t, store, playlistKey)

	converter := &fakeConverter{}
	service := NewAudioService(store, NewMemoryCacheStore(), converter, zerolog.Nop())

	entry, err := service.GetOrCreate(ctx, "room42", playlistKey)
	require.NoError(t, err)
	assert.Equal(t, playlistKey, entry.SourceKey)
	assert.True(t, strings.HasPrefix(entry.AudioKey, "audiofiles/room42_"))
	assert.True(t, strings.HasSuffix(entry.AudioKey, ".mp3"))
	require.NotNil(t, entry.CaptureTime)

	data, err := store.Get(ctx, entry.AudioKey)
	require.NoError(t, err)
	assert.Equal(t, "mp3-bytes", string(data))
	assert.Equal(t, "audio/mpeg", store.ContentType(entry.AudioKey))

	// Cached: the second request reuses the derivative.
	again, err := service.GetOrCreate(ctx, "room42", playlistKey)
	require.NoError(t, err)
	assert.Equal(t, entry.AudioKey, again.AudioKey)
	assert.Equal(t, int32(1), converter.calls.Load())
}

func TestAudioServiceConverterUnavailable(t *testing.T) {
	store := storage.NewMemoryStore()
	playlistKey := "recordings/mix/sid1_room42_20250114093045.m3u8"
	seedManifest(t, store, playlistKey)

	service := NewAudioService(store, NewMemoryCacheStore(), &fakeConverter{unavailable: true}, zerolog.Nop())

	_, err := service.GetOrCreate(context.Background(), "room42", playlistKey)
	assert.ErrorIs(t, err, transcode.ErrUnavailable)
}

func TestAudioServiceMissingSegmentFails(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	playlistKey := "recordings/mix/sid1_room42_20250114093045.m3u8"
	require.NoError(t, store.Put(ctx, playlistKey, []byte(testManifest), manifestContentType))

	converter := &fakeConverter{}
	service := NewAudioService(store, NewMemoryCacheStore(), converter, zerolog.Nop())

	_, err := service.GetOrCreate(ctx, "room42", playlistKey)
	require.Error(t, err)
	assert.Equal(t, int32(0), converter.calls.Load())
}
