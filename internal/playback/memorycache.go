package playback

import (
	"context"
	"sync"
)

// MemoryCacheStore backs unit tests.
type MemoryCacheStore struct {
	mu        sync.RWMutex
	playlists map[string]*PlaylistEntry
	audio     map[string]*AudioEntry
}

func NewMemoryCacheStore() *MemoryCacheStore {
	return &MemoryCacheStore{
		playlists: make(map[string]*PlaylistEntry),
		audio:     make(map[string]*AudioEntry),
	}
}

func (s *MemoryCacheStore) GetPlaylist(_ context.Context, playlistKey string) (*PlaylistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.playlists[playlistKey]
	if !ok {
		return nil, ErrCacheMiss
	}
	copied := *entry
	return &copied, nil
}

func (s *MemoryCacheStore) PutPlaylist(_ context.Context, entry *PlaylistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *entry
	s.playlists[entry.PlaylistKey] = &copied
	return nil
}

func (s *MemoryCacheStore) DeletePlaylist(_ context.Context, playlistKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.playlists, playlistKey)
	return nil
}

func (s *MemoryCacheStore) GetAudio(_ context.Context, sourceKey string) (*AudioEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.audio[sourceKey]
	if !ok {
		return nil, ErrCacheMiss
	}
	copied := *entry
	return &copied, nil
}

func (s *MemoryCacheStore) PutAudio(_ context.Context, entry *AudioEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *entry
	s.audio[entry.SourceKey] = &copied
	return nil
}
