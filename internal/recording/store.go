package recording

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SessionStore persists recording sessions and the update audit trail.
type SessionStore interface {
	Get(ctx context.Context, channel, recordingType string) (*Session, error)
	// Create writes a fresh session document for (channel, type).
	Create(ctx context.Context, session *Session) error
	// MarkStopped transitions the session to a terminal state only while it
	// is still started. Returns false when another writer got there first.
	MarkStopped(ctx context.Context, channel, recordingType string, state SessionState, reason StopReason, stoppedAt time.Time, vendorResponse map[string]any) (bool, error)
	// RecordQuery refreshes the persisted record with the latest vendor status.
	RecordQuery(ctx context.Context, channel, recordingType string, vendorResponse map[string]any, at time.Time) error
	ListActive(ctx context.Context) ([]Session, error)
	// LogUpdate appends one audit document per mid-session update call.
	LogUpdate(ctx context.Context, channel, recordingType string, subscribeUids []string, vendorResponse map[string]any) error
}

type MongoSessionStore struct {
	sessions *mongo.Collection
	updates  *mongo.Collection
}

func NewMongoSessionStore(db *mongo.Database) *MongoSessionStore {
	return &MongoSessionStore{
		sessions: db.Collection("recording_sessions"),
		updates:  db.Collection("recording_updates"),
	}
}

func (s *MongoSessionStore) Get(ctx context.Context, channel, recordingType string) (*Session, error) {
	var session Session
	err := s.sessions.FindOne(ctx, bson.M{"_id": DocID(channel, recordingType)}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

func (s *MongoSessionStore) Create(ctx context.Context, session *Session) error {
	filter := bson.M{"_id": DocID(session.Channel, session.Type)}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.sessions.ReplaceOne(ctx, filter, session, opts); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

func (s *MongoSessionStore) MarkStopped(ctx context.Context, channel, recordingType string, state SessionState, reason StopReason, stoppedAt time.Time, vendorResponse map[string]any) (bool, error) {
	// Conditional on the started state so two stoppers cannot both win.
	filter := bson.M{
		"_id":   DocID(channel, recordingType),
		"state": StateStarted,
	}
	update := bson.M{"$set": bson.M{
		"state":         state,
		"stop_reason":   reason,
		"stopped_at":    stoppedAt,
		"stop_response": vendorResponse,
	}}

	result, err := s.sessions.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark session stopped: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (s *MongoSessionStore) RecordQuery(ctx context.Context, channel, recordingType string, vendorResponse map[string]any, at time.Time) error {
	update := bson.M{"$set": bson.M{
		"query_response":  vendorResponse,
		"last_queried_at": at,
	}}
	if _, err := s.sessions.UpdateOne(ctx, bson.M{"_id": DocID(channel, recordingType)}, update); err != nil {
		return fmt.Errorf("failed to record query response: %w", err)
	}
	return nil
}

func (s *MongoSessionStore) ListActive(ctx context.Context) ([]Session, error) {
	cursor, err := s.sessions.Find(ctx, bson.M{"state": StateStarted})
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []Session
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *MongoSessionStore) LogUpdate(ctx context.Context, channel, recordingType string, subscribeUids []string, vendorResponse map[string]any) error {
	doc := bson.M{
		"cname":           channel,
		"type":            recordingType,
		"subscribe_uids":  subscribeUids,
		"vendor_response": vendorResponse,
		"created_at":      time.Now(),
	}
	if _, err := s.updates.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to log update: %w", err)
	}
	return nil
}
