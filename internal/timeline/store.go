package timeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrMeetingNotFound = errors.New("meeting not found")

type MeetingStore interface {
	Get(ctx context.Context, channel string) (*Meeting, error)
}

type TrackStore interface {
	List(ctx context.Context, channel string) ([]RecordingTrack, error)
	// Open creates a new track with an unset stop time.
	Open(ctx context.Context, channel string, start int64, mix bool) (string, error)
	// CloseOpen closes the open track for the channel, if any.
	CloseOpen(ctx context.Context, channel string, stop int64) error
}

type EventStore interface {
	ListByChannel(ctx context.Context, channel string) ([]SpeakingEvent, error)
	ListByParticipant(ctx context.Context, channel, participantID string) ([]SpeakingEvent, error)
	Append(ctx context.Context, event SpeakingEvent) error
}

type MongoMeetingStore struct {
	meetings *mongo.Collection
}

func NewMongoMeetingStore(db *mongo.Database) *MongoMeetingStore {
	return &MongoMeetingStore{meetings: db.Collection("meetings")}
}

func (s *MongoMeetingStore) Get(ctx context.Context, channel string) (*Meeting, error) {
	var meeting Meeting
	err := s.meetings.FindOne(ctx, bson.M{"_id": channel}).Decode(&meeting)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMeetingNotFound
		}
		return nil, fmt.Errorf("failed to load meeting %s: %w", channel, err)
	}
	return &meeting, nil
}

type MongoTrackStore struct {
	tracks *mongo.Collection
}

func NewMongoTrackStore(db *mongo.Database) *MongoTrackStore {
	return &MongoTrackStore{tracks: db.Collection("recording_tracks")}
}

func (s *MongoTrackStore) List(ctx context.Context, channel string) ([]RecordingTrack, error) {
	cursor, err := s.tracks.Find(ctx, bson.M{"meeting_id": channel})
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks for %s: %w", channel, err)
	}
	defer cursor.Close(ctx)

	var tracks []RecordingTrack
	if err := cursor.All(ctx, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

func (s *MongoTrackStore) Open(ctx context.Context, channel string, start int64, mix bool) (string, error) {
	track := RecordingTrack{
		MeetingID: channel,
		TrackID:   uuid.NewString(),
		StartTime: start,
		Mix:       mix,
	}
	if _, err := s.tracks.InsertOne(ctx, track); err != nil {
		return "", fmt.Errorf("failed to open track for %s: %w", channel, err)
	}
	return track.TrackID, nil
}

func (s *MongoTrackStore) CloseOpen(ctx context.Context, channel string, stop int64) error {
	filter := bson.M{
		"meeting_id": channel,
		"$or": bson.A{
			bson.M{"stop_time": bson.M{"$exists": false}},
			bson.M{"stop_time": 0},
		},
	}
	update := bson.M{"$set": bson.M{"stop_time": stop}}
	if _, err := s.tracks.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to close open track for %s: %w", channel, err)
	}
	return nil
}

type MongoEventStore struct {
	events *mongo.Collection
}

func NewMongoEventStore(db *mongo.Database) *MongoEventStore {
	return &MongoEventStore{events: db.Collection("speaking_events")}
}

func (s *MongoEventStore) ListByChannel(ctx context.Context, channel string) ([]SpeakingEvent, error) {
	return s.find(ctx, bson.M{"meeting_id": channel})
}

func (s *MongoEventStore) ListByParticipant(ctx context.Context, channel, participantID string) ([]SpeakingEvent, error) {
	return s.find(ctx, bson.M{"meeting_id": channel, "participant_id": participantID})
}

func (s *MongoEventStore) Append(ctx context.Context, event SpeakingEvent) error {
	if _, err := s.events.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to append speaking event: %w", err)
	}
	return nil
}

func (s *MongoEventStore) find(ctx context.Context, filter bson.M) ([]SpeakingEvent, error) {
	cursor, err := s.events.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list speaking events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []SpeakingEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
