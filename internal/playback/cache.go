// Package playback resolves stored recording artifacts into securely
// playable media: manifest rewriting, signed-URL caching, proxy delivery,
// audio derivatives and retention.
package playback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrCacheMiss = errors.New("cache entry not found")

// PlaylistEntry caches one rewritten manifest and its signed URL. Valid
// until ExpiresAt, which never exceeds the signed URL's own expiry.
type PlaylistEntry struct {
	PlaylistKey string    `bson:"_id" json:"key"`
	SecureKey   string    `bson:"secure_key" json:"secureKey"`
	PlayableURL string    `bson:"playable_url" json:"playableUrl"`
	CachedAt    time.Time `bson:"cached_at" json:"-"`
	ExpiresAt   time.Time `bson:"expires_at" json:"-"`
}

// Valid reports whether the entry can still be served.
func (e *PlaylistEntry) Valid(now time.Time) bool {
	return e.ExpiresAt.After(now)
}

// AudioEntry caches one transcoded audio derivative. Permanent: transcoding
// is expensive and source recordings are immutable once written.
type AudioEntry struct {
	SourceKey   string     `bson:"_id" json:"sourceKey"`
	AudioKey    string     `bson:"audio_key" json:"audioKey"`
	CaptureTime *time.Time `bson:"capture_time,omitempty" json:"captureTime,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"-"`
}

// CacheStore persists playlist and audio cache entries.
type CacheStore interface {
	GetPlaylist(ctx context.Context, playlistKey string) (*PlaylistEntry, error)
	PutPlaylist(ctx context.Context, entry *PlaylistEntry) error
	DeletePlaylist(ctx context.Context, playlistKey string) error
	GetAudio(ctx context.Context, sourceKey string) (*AudioEntry, error)
	PutAudio(ctx context.Context, entry *AudioEntry) error
}

type MongoCacheStore struct {
	playlists *mongo.Collection
	audio     *mongo.Collection
}

func NewMongoCacheStore(db *mongo.Database) *MongoCacheStore {
	return &MongoCacheStore{
		playlists: db.Collection("playlist_cache"),
		audio:     db.Collection("audio_cache"),
	}
}

func (s *MongoCacheStore) GetPlaylist(ctx context.Context, playlistKey string) (*PlaylistEntry, error) {
	var entry PlaylistEntry
	err := s.playlists.FindOne(ctx, bson.M{"_id": playlistKey}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to load playlist cache entry: %w", err)
	}
	return &entry, nil
}

func (s *MongoCacheStore) PutPlaylist(ctx context.Context, entry *PlaylistEntry) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.playlists.ReplaceOne(ctx, bson.M{"_id": entry.PlaylistKey}, entry, opts); err != nil {
		return fmt.Errorf("failed to store playlist cache entry: %w", err)
	}
	return nil
}

func (s *MongoCacheStore) DeletePlaylist(ctx context.Context, playlistKey string) error {
	if _, err := s.playlists.DeleteOne(ctx, bson.M{"_id": playlistKey}); err != nil {
		return fmt.Errorf("failed to delete playlist cache entry: %w", err)
	}
	return nil
}

func (s *MongoCacheStore) GetAudio(ctx context.Context, sourceKey string) (*AudioEntry, error) {
	var entry AudioEntry
	err := s.audio.FindOne(ctx, bson.M{"_id": sourceKey}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to load audio cache entry: %w", err)
	}
	return &entry, nil
}

func (s *MongoCacheStore) PutAudio(ctx context.Context, entry *AudioEntry) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.audio.ReplaceOne(ctx, bson.M{"_id": entry.SourceKey}, entry, opts); err != nil {
		return fmt.Errorf("failed to store audio cache entry: %w", err)
	}
	return nil
}
