package timeline

import (
	"context"
	"fmt"
	"sync"
)

// In-memory store implementations backing unit tests.

type MemoryMeetingStore struct {
	mu       sync.RWMutex
	meetings map[string]*Meeting
}

func NewMemoryMeetingStore() *MemoryMeetingStore {
	return &MemoryMeetingStore{meetings: make(map[string]*Meeting)}
}

func (s *MemoryMeetingStore) Put(meeting *Meeting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings[meeting.Channel] = meeting
}

func (s *MemoryMeetingStore) Get(_ context.Context, channel string) (*Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meeting, ok := s.meetings[channel]
	if !ok {
		return nil, ErrMeetingNotFound
	}
	copied := *meeting
	return &copied, nil
}

type MemoryTrackStore struct {
	mu     sync.RWMutex
	tracks []RecordingTrack
	nextID int
}

func NewMemoryTrackStore() *MemoryTrackStore {
	return &MemoryTrackStore{}
}

func (s *MemoryTrackStore) List(_ context.Context, channel string) ([]RecordingTrack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []RecordingTrack
	for _, t := range s.tracks {
		if t.MeetingID == channel {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemoryTrackStore) Open(_ context.Context, channel string, start int64, mix bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	track := RecordingTrack{
		MeetingID: channel,
		TrackID:   fmt.Sprintf("track-%d", s.nextID),
		StartTime: start,
		Mix:       mix,
	}
	s.tracks = append(s.tracks, track)
	return track.TrackID, nil
}

func (s *MemoryTrackStore) CloseOpen(_ context.Context, channel string, stop int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tracks {
		if s.tracks[i].MeetingID == channel && s.tracks[i].StopTime == 0 {
			s.tracks[i].StopTime = stop
			return nil
		}
	}
	return nil
}

type MemoryEventStore struct {
	mu     sync.RWMutex
	events []SpeakingEvent
}

func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{}
}

func (s *MemoryEventStore) ListByChannel(_ context.Context, channel string) ([]SpeakingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []SpeakingEvent
	for _, e := range s.events {
		if e.MeetingID == channel {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryEventStore) ListByParticipant(_ context.Context, channel, participantID string) ([]SpeakingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []SpeakingEvent
	for _, e := range s.events {
		if e.MeetingID == channel && e.ParticipantID == participantID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryEventStore) Append(_ context.Context, event SpeakingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}
