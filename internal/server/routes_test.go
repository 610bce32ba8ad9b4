package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"meetvault/internal/artifact"
	"meetvault/internal/auth"
	"meetvault/internal/config"
	"meetvault/internal/playback"
	"meetvault/internal/recording"
	"meetvault/internal/storage"
	"meetvault/internal/timeline"
	"meetvault/internal/transcode"
)

type fakeDB struct{}

func (fakeDB) Health() map[string]string    { return map[string]string{"status": "connected"} }
func (fakeDB) GetDatabase() *mongo.Database { return nil }
func (fakeDB) Close() error                 { return nil }

func newTestServer(t *testing.T) (*FiberServer, *auth.JWTService) {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:        8080,
			Host:        "localhost",
			CORSOrigins: []string{"*"},
			RateLimit:   1000,
			RateWindow:  time.Minute,
		},
		Playback: config.PlaybackConfig{
			SegmentURLTTL:  7 * 24 * time.Hour,
			PlaylistURLTTL: 7 * 24 * time.Hour,
			CacheTTL:       7 * 24 * time.Hour,
			FetchTimeout:   time.Second,
			MatchTolerance: 60 * time.Second,
		},
		Vendor: config.VendorConfig{
			AppID:          "app",
			CustomerID:     "customer",
			CustomerSecret: "secret",
			BaseURL:        "http://vendor.invalid",
			RequestTimeout: time.Second,
		},
	}

	log := zerolog.Nop()
	store := storage.NewMemoryStore()
	sessions := recording.NewMemorySessionStore()
	tracks := timeline.NewMemoryTrackStore()
	events := timeline.NewMemoryEventStore()
	meetings := timeline.NewMemoryMeetingStore()

	jwtService := auth.NewJWTService("test-secret", time.Hour)
	vendor := recording.NewVendorClient(cfg.Vendor, log)
	recordingService := recording.NewService(vendor, sessions, jwtService, cfg.Vendor, cfg.Storage, log)
	sentinel := recording.NewSentinel(sessions, meetings, recordingService, 3*time.Hour, log)
	intake := recording.NewWebhookIntake(tracks, &nopAudit{}, log)

	locator := artifact.NewLocator(store, log)
	resolver := playback.NewResolver(store, playback.NewMemoryCacheStore(), cfg.Playback, log)
	audio := playback.NewAudioService(store, playback.NewMemoryCacheStore(), transcode.NewFFmpegConverter(), log)
	playbackService := playback.NewService(locator, resolver, audio, tracks, events, cfg.Playback.MatchTolerance, log)
	sweeper := playback.NewSweeper(store, 5*24*time.Hour, log)

	srv := New(cfg, fakeDB{}, log,
		jwtService,
		recording.NewHandler(recordingService, sentinel),
		intake,
		playback.NewHandler(playbackService, sweeper),
		playback.NewProxy(store, log),
	)
	srv.RegisterFiberRoutes()
	return srv, jwtService
}

type nopAudit struct{}

func (nopAudit) Record(_ context.Context, _ recording.WebhookEvent, _ time.Time) error { return nil }

func TestHealthRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := srv.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv, jwtService := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/recording/list/mix",
		bytes.NewBufferString(`{"cname":"room42"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := jwtService.RecorderToken("room42", 1)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/api/recording/list/mix",
		bytes.NewBufferString(`{"cname":"room42"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err = srv.Test(req)
	require.NoError(t, err)
	// Authenticated but nothing recorded for the channel.
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebhookRouteIsPublic(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/vendor",
		bytes.NewBufferString(`{"noticeId":"n1","eventType":40,"notifyMs":1,"payload":{"cname":"room42"}}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPlaylistRouteIsPublic(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := srv.Test(httptest.NewRequest(http.MethodGet, "/playlist?key=private/x", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
