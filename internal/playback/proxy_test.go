package playback

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetvault/internal/storage"
)

func newProxyApp(store *storage.MemoryStore) *fiber.App {
	proxy := NewProxy(store, zerolog.Nop())
	app := fiber.New()
	app.Get("/playlist", proxy.ServePlaylist)
	app.Get("/audio/stream", proxy.ServeAudio)
	return app
}

func get(t *testing.T, app *fiber.App, target string) (*http.Response, string) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestProxyServesRewrittenManifest(t *testing.T) {
	store := storage.NewMemoryStore()
	playlistKey := "recordings/mix/sid1_room42_20250114093045.m3u8"
	seedManifest(t, store, playlistKey)

	app := newProxyApp(store)

	resp, body := get(t, app, "/playlist?key="+url.QueryEscape(playlistKey))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, manifestContentType, resp.Header.Get(fiber.HeaderContentType))
	assert.Equal(t, "no-cache", resp.Header.Get(fiber.HeaderCacheControl))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	// Segment lines point back at the proxy; directives are untouched.
	assert.Contains(t, body, "#EXTM3U")
	assert.NotContains(t, body, "\nseg_room42_20250114093045.ts")
	assert.Contains(t, body, "/playlist?key="+url.QueryEscape("recordings/mix/seg_room42_20250114093045.ts"))
}

func TestProxyServesSegment(t *testing.T) {
	store := storage.NewMemoryStore()
	seedManifest(t, store, "recordings/mix/sid1_room42_20250114093045.m3u8")

	app := newProxyApp(store)

	resp, body := get(t, app, "/playlist?key="+url.QueryEscape("recordings/mix/seg_room42_20250114093045.ts"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "video/mp2t", resp.Header.Get(fiber.HeaderContentType))
	assert.True(t, strings.HasPrefix(resp.Header.Get(fiber.HeaderCacheControl), "public"))
	assert.Equal(t, "seg1", body)
}

func TestProxyRejectsForeignNamespace(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "private/secrets.txt", []byte("x"), ""))

	app := newProxyApp(store)

	resp, _ := get(t, app, "/playlist?key=private/secrets.txt")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = get(t, app, "/playlist")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProxyMissingObject(t *testing.T) {
	app := newProxyApp(storage.NewMemoryStore())
	resp, _ := get(t, app, "/playlist?key=recordings/mix/ghost.m3u8")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProxyServeAudio(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "audiofiles/room42_a_1.mp3", []byte("mp3"), "audio/mpeg"))

	app := newProxyApp(store)

	resp, body := get(t, app, "/audio/stream?key=audiofiles/room42_a_1.mp3")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/mpeg", resp.Header.Get(fiber.HeaderContentType))
	assert.Equal(t, "mp3", body)

	resp, _ = get(t, app, "/audio/stream?key=recordings/mix/other.m3u8")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
