package recording

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"meetvault/internal/timeline"
)

// Vendor recording lifecycle event types.
const (
	EventRecordingStarted = 40
	EventRecordingStopped = 41
)

// WebhookEvent is one vendor notification. NotifyMs is the vendor's event
// timestamp in epoch milliseconds.
type WebhookEvent struct {
	NoticeID  string `json:"noticeId"`
	EventType int    `json:"eventType"`
	NotifyMs  int64  `json:"notifyMs"`
	Payload   struct {
		Cname string `json:"cname"`
		SID   string `json:"sid"`
	} `json:"payload"`
}

// WebhookAudit persists received webhook events.
type WebhookAudit interface {
	Record(ctx context.Context, event WebhookEvent, receivedAt time.Time) error
}

type MongoWebhookAudit struct {
	events *mongo.Collection
}

func NewMongoWebhookAudit(db *mongo.Database) *MongoWebhookAudit {
	return &MongoWebhookAudit{events: db.Collection("webhook_events")}
}

func (a *MongoWebhookAudit) Record(ctx context.Context, event WebhookEvent, receivedAt time.Time) error {
	_, err := a.events.InsertOne(ctx, bson.M{
		"notice_id":   event.NoticeID,
		"event_type":  event.EventType,
		"cname":       event.Payload.Cname,
		"sid":         event.Payload.SID,
		"notify_ms":   event.NotifyMs,
		"received_at": receivedAt,
	})
	return err
}

// WebhookIntake acknowledges vendor webhooks immediately and processes them
// on a worker goroutine. The vendor retries on slow acknowledgements, so the
// HTTP handler never blocks on storage.
type WebhookIntake struct {
	tracks timeline.TrackStore
	audit  WebhookAudit
	log    zerolog.Logger
	tasks  chan WebhookEvent
}

func NewWebhookIntake(tracks timeline.TrackStore, audit WebhookAudit, log zerolog.Logger) *WebhookIntake {
	return &WebhookIntake{
		tracks: tracks,
		audit:  audit,
		log:    log,
		tasks:  make(chan WebhookEvent, 64),
	}
}

// Run drains the task queue until ctx is cancelled. Start it once alongside
// the HTTP server.
func (w *WebhookIntake) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-w.tasks:
			w.process(ctx, event)
		}
	}
}

// Handle acknowledges with 200 before any processing happens. Malformed
// bodies are logged and still acknowledged so the vendor stops retrying.
func (w *WebhookIntake) Handle(c *fiber.Ctx) error {
	var event WebhookEvent
	if err := c.BodyParser(&event); err != nil {
		w.log.Warn().Err(err).Msg("malformed vendor webhook")
		return c.SendStatus(fiber.StatusOK)
	}

	select {
	case w.tasks <- event:
	default:
		w.log.Error().Str("cname", event.Payload.Cname).Msg("webhook queue full, event dropped")
	}

	return c.SendStatus(fiber.StatusOK)
}

func (w *WebhookIntake) process(ctx context.Context, event WebhookEvent) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := w.audit.Record(ctx, event, time.Now()); err != nil {
		w.log.Warn().Err(err).Str("cname", event.Payload.Cname).Msg("failed to persist webhook event")
	}

	switch event.EventType {
	case EventRecordingStarted:
		if _, err := w.tracks.Open(ctx, event.Payload.Cname, event.NotifyMs, true); err != nil {
			w.log.Error().Err(err).Str("cname", event.Payload.Cname).Msg("failed to open recording track")
		}
	case EventRecordingStopped:
		if err := w.tracks.CloseOpen(ctx, event.Payload.Cname, event.NotifyMs); err != nil {
			w.log.Error().Err(err).Str("cname", event.Payload.Cname).Msg("failed to close recording track")
		}
	default:
		w.log.Debug().Int("event_type", event.EventType).Msg("ignoring vendor event")
	}
}
