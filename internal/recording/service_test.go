package recording

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetvault/internal/auth"
	"meetvault/internal/config"
)

// fakeVendor emulates the cloud recording REST API closely enough to drive
// the session lifecycle.
type fakeVendor struct {
	mu       sync.Mutex
	acquires int
	starts   int
	stops    int
	requests []string

	stopStatus int
	stopBody   string
}

func (f *fakeVendor) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.requests = append(f.requests, r.URL.Path)

		require.Equal(t, "Basic", strings.SplitN(r.Header.Get("Authorization"), " ", 2)[0])

		switch {
		case strings.HasSuffix(r.URL.Path, "/acquire"):
			f.acquires++
			json.NewEncoder(w).Encode(map[string]any{"resourceId": "R1"})
		case strings.HasSuffix(r.URL.Path, "/start"):
			f.starts++
			json.NewEncoder(w).Encode(map[string]any{"sid": "S1"})
		case strings.HasSuffix(r.URL.Path, "/stop"):
			f.stops++
			if f.stopStatus != 0 {
				w.WriteHeader(f.stopStatus)
				w.Write([]byte(f.stopBody))
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"sid": "S1", "serverResponse": map[string]any{}})
		case strings.HasSuffix(r.URL.Path, "/query"):
			json.NewEncoder(w).Encode(map[string]any{"sid": "S1", "serverResponse": map[string]any{"status": 5}})
		case strings.HasSuffix(r.URL.Path, "/update"):
			json.NewEncoder(w).Encode(map[string]any{"sid": "S1"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestService(t *testing.T, vendorURL string) (*Service, *MemorySessionStore) {
	cfg := config.VendorConfig{
		AppID:                "app-1",
		CustomerID:           "customer",
		CustomerSecret:       "secret",
		BaseURL:              vendorURL,
		RequestTimeout:       5 * time.Second,
		ResourceExpiredHours: 24,
		MaxIdleTime:          160,
	}
	storageCfg := config.StorageConfig{
		Endpoint:  "https://storage.test",
		Bucket:    "recordings",
		AccessKey: "ak",
		SecretKey: "sk",
	}
	sessions := NewMemorySessionStore()
	tokens := auth.NewJWTService("test-secret", time.Hour)
	vendor := NewVendorClient(cfg, zerolog.Nop())
	return NewService(vendor, sessions, tokens, cfg, storageCfg, zerolog.Nop()), sessions
}

func TestServiceStartStopLifecycle(t *testing.T) {
	ctx := context.Background()
	fake := &fakeVendor{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	service, sessions := newTestService(t, srv.URL)

	session, err := service.Start(ctx, "room42", "mix")
	require.NoError(t, err)
	assert.Equal(t, "R1", session.ResourceID)
	assert.Equal(t, "S1", session.SID)
	assert.Equal(t, StateStarted, session.State)
	assert.Equal(t, uint32(9999999), session.RecorderUID)
	assert.Contains(t, fake.requests[0], "/apps/app-1/cloud_recording/acquire")
	assert.Contains(t, fake.requests[1], "/resourceid/R1/mode/mix/start")

	// A second start on the same (channel, type) conflicts.
	_, err = service.Start(ctx, "room42", "mix")
	assert.ErrorIs(t, err, ErrSessionActive)

	// A different type on the same channel is a separate session.
	_, err = service.Start(ctx, "room42", "individual")
	require.NoError(t, err)

	stopped, err := service.Stop(ctx, "room42", "mix")
	require.NoError(t, err)
	assert.Equal(t, StateStopped, stopped.State)
	assert.Equal(t, StopReasonRequested, stopped.StopReason)
	require.NotNil(t, stopped.StoppedAt)

	// Stopping again fails without another vendor call.
	stopsBefore := fake.stops
	_, err = service.Stop(ctx, "room42", "mix")
	assert.ErrorIs(t, err, ErrSessionTerminal)
	assert.Equal(t, stopsBefore, fake.stops)

	// The slot reopens after the terminal transition.
	_, err = service.Start(ctx, "room42", "mix")
	require.NoError(t, err)

	persisted, err := sessions.Get(ctx, "room42", "mix")
	require.NoError(t, err)
	assert.Equal(t, StateStarted, persisted.State)
}

func TestServiceStartInvalidType(t *testing.T) {
	service, _ := newTestService(t, "http://vendor.invalid")
	_, err := service.Start(context.Background(), "room42", "composite")
	assert.Error(t, err)
}

func TestServiceStopVendorGone(t *testing.T) {
	ctx := context.Background()
	fake := &fakeVendor{stopStatus: http.StatusNotFound, stopBody: `{"code":404,"reason":"session not found"}`}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	service, _ := newTestService(t, srv.URL)

	_, err := service.Start(ctx, "room42", "mix")
	require.NoError(t, err)

	// Vendor-side 404 still transitions the local record.
	stopped, err := service.Stop(ctx, "room42", "mix")
	require.NoError(t, err)
	assert.Equal(t, StateStopped, stopped.State)
}

func TestServiceStopUnknownSession(t *testing.T) {
	service, _ := newTestService(t, "http://vendor.invalid")
	_, err := service.Stop(context.Background(), "ghost", "mix")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestServiceStartSurfacesVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"code":9,"reason":"appid not authorized"}`))
	}))
	defer srv.Close()

	service, _ := newTestService(t, srv.URL)

	_, err := service.Start(context.Background(), "room42", "mix")
	var vendorErr *VendorError
	require.ErrorAs(t, err, &vendorErr)
	assert.Equal(t, http.StatusForbidden, vendorErr.Status)
	assert.Equal(t, 9, vendorErr.Code)
	assert.Equal(t, "appid not authorized", vendorErr.Reason)
}

func TestServiceConcurrentStartsSingleSession(t *testing.T) {
	ctx := context.Background()
	fake := &fakeVendor{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	service, _ := newTestService(t, srv.URL)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < len(errs); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.Start(ctx, "room42", "mix")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrSessionActive)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, fake.starts)
}

func TestServiceQueryRecordsResponse(t *testing.T) {
	ctx := context.Background()
	fake := &fakeVendor{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	service, sessions := newTestService(t, srv.URL)

	_, err := service.Start(ctx, "room42", "mix")
	require.NoError(t, err)

	status, err := service.Query(ctx, "room42", "mix")
	require.NoError(t, err)
	assert.NotNil(t, status["serverResponse"])

	persisted, err := sessions.Get(ctx, "room42", "mix")
	require.NoError(t, err)
	assert.NotNil(t, persisted.QueryResponse)
	assert.NotNil(t, persisted.LastQueriedAt)
}

func TestServiceUpdateAuditsSubscribeList(t *testing.T) {
	ctx := context.Background()
	fake := &fakeVendor{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	service, sessions := newTestService(t, srv.URL)

	_, err := service.Start(ctx, "room42", "mix")
	require.NoError(t, err)

	_, err = service.Update(ctx, "room42", "mix", []string{"101", "102"})
	require.NoError(t, err)

	updates := sessions.Updates()
	require.Len(t, updates, 1)
	assert.Equal(t, []string{"101", "102"}, updates[0].SubscribeUids)

	_, err = service.Stop(ctx, "room42", "mix")
	require.NoError(t, err)

	_, err = service.Update(ctx, "room42", "mix", nil)
	assert.ErrorIs(t, err, ErrSessionTerminal)
}
