package recording

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetvault/internal/timeline"
)

type memoryAudit struct {
	mu     sync.Mutex
	events []WebhookEvent
}

func (a *memoryAudit) Record(_ context.Context, event WebhookEvent, _ time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
	return nil
}

func (a *memoryAudit) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.events)
}

func newWebhookApp(intake *WebhookIntake) *fiber.App {
	app := fiber.New()
	app.Post("/webhooks/vendor", intake.Handle)
	return app
}

func postWebhook(t *testing.T, app *fiber.App, body string) *http.Response {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/vendor", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestWebhookIntakeTrackLifecycle(t *testing.T) {
	tracks := timeline.NewMemoryTrackStore()
	audit := &memoryAudit{}
	intake := NewWebhookIntake(tracks, audit, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go intake.Run(ctx)

	app := newWebhookApp(intake)

	startMs := time.Now().Add(-time.Minute).UnixMilli()
	stopMs := time.Now().UnixMilli()

	resp := postWebhook(t, app, fmt.Sprintf(
		`{"noticeId":"n1","eventType":40,"notifyMs":%d,"payload":{"cname":"room42","sid":"S1"}}`, startMs))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postWebhook(t, app, fmt.Sprintf(
		`{"noticeId":"n2","eventType":41,"notifyMs":%d,"payload":{"cname":"room42","sid":"S1"}}`, stopMs))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		listed, err := tracks.List(context.Background(), "room42")
		if err != nil || len(listed) != 1 {
			return false
		}
		return listed[0].StopTime != 0
	}, 2*time.Second, 10*time.Millisecond)

	listed, err := tracks.List(context.Background(), "room42")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, startMs, listed[0].StartTime)
	assert.Equal(t, stopMs, listed[0].StopTime)
	assert.True(t, listed[0].Mix)
	assert.Equal(t, 2, audit.count())
}

func TestWebhookIntakeAcksMalformedBody(t *testing.T) {
	intake := NewWebhookIntake(timeline.NewMemoryTrackStore(), &memoryAudit{}, zerolog.Nop())
	app := newWebhookApp(intake)

	resp := postWebhook(t, app, `{not json`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebhookIntakeIgnoresUnknownEventType(t *testing.T) {
	tracks := timeline.NewMemoryTrackStore()
	audit := &memoryAudit{}
	intake := NewWebhookIntake(tracks, audit, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go intake.Run(ctx)

	app := newWebhookApp(intake)
	resp := postWebhook(t, app, `{"noticeId":"n3","eventType":12,"notifyMs":1,"payload":{"cname":"room42"}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Audited but no track side effects.
	require.Eventually(t, func() bool { return audit.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	listed, err := tracks.List(context.Background(), "room42")
	require.NoError(t, err)
	assert.Empty(t, listed)
}
