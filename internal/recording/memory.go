package recording

import (
	"context"
	"sync"
	"time"
)

// MemorySessionStore is the in-memory SessionStore used by unit tests.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	updates  []UpdateRecord
}

type UpdateRecord struct {
	Channel       string
	Type          string
	SubscribeUids []string
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*Session)}
}

func (s *MemorySessionStore) Get(_ context.Context, channel, recordingType string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[DocID(channel, recordingType)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (s *MemorySessionStore) Create(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *session
	s.sessions[DocID(session.Channel, session.Type)] = &copied
	return nil
}

func (s *MemorySessionStore) MarkStopped(_ context.Context, channel, recordingType string, state SessionState, reason StopReason, stoppedAt time.Time, vendorResponse map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[DocID(channel, recordingType)]
	if !ok || session.State != StateStarted {
		return false, nil
	}
	session.State = state
	session.StopReason = reason
	session.StoppedAt = &stoppedAt
	return true, nil
}

func (s *MemorySessionStore) RecordQuery(_ context.Context, channel, recordingType string, vendorResponse map[string]any, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[DocID(channel, recordingType)]; ok {
		session.QueryResponse = vendorResponse
		session.LastQueriedAt = &at
	}
	return nil
}

func (s *MemorySessionStore) ListActive(_ context.Context) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []Session
	for _, session := range s.sessions {
		if session.State == StateStarted {
			active = append(active, *session)
		}
	}
	return active, nil
}

func (s *MemorySessionStore) LogUpdate(_ context.Context, channel, recordingType string, subscribeUids []string, _ map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updates = append(s.updates, UpdateRecord{
		Channel:       channel,
		Type:          recordingType,
		SubscribeUids: subscribeUids,
	})
	return nil
}

// Updates returns the audit trail captured so far.
func (s *MemorySessionStore) Updates() []UpdateRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]UpdateRecord(nil), s.updates...)
}
