package playback

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"meetvault/internal/artifact"
	"meetvault/internal/timeline"
)

// ErrNoRecordings is returned when a channel has no matching recordings.
// Absence is an expected outcome, not a fault.
var ErrNoRecordings = errors.New("no recordings found")

// PlayableRecording is one recording artifact with its sanitized URL and,
// when matched to a track, the track's bounds.
type PlayableRecording struct {
	Key         string     `json:"key"`
	URL         string     `json:"url"`
	CaptureTime *time.Time `json:"captureTime,omitempty"`
	TrackID     string     `json:"trackId,omitempty"`
	TrackStart  int64      `json:"trackStart,omitempty"`
	TrackStop   int64      `json:"trackStop,omitempty"`
}

// MixListing pairs track-correlated recordings with the speaking events that
// fall inside each matched track.
type MixListing struct {
	Recordings []PlayableRecording      `json:"recordings"`
	Events     []timeline.PlaybackEvent `json:"events"`
}

// UserTimeline resolves a participant's speaking events onto their audio
// artifacts. URLs maps each referenced playback key to a playable URL.
type UserTimeline struct {
	Entries []timeline.TimelineEntry `json:"entries"`
	URLs    map[string]string        `json:"urls"`
}

// Service ties artifact discovery, track correlation and secure URL
// resolution together behind the playback API.
type Service struct {
	locator   *artifact.Locator
	resolver  *Resolver
	audio     *AudioService
	tracks    timeline.TrackStore
	events    timeline.EventStore
	tolerance time.Duration
	log       zerolog.Logger
}

func NewService(locator *artifact.Locator, resolver *Resolver, audio *AudioService, tracks timeline.TrackStore, events timeline.EventStore, tolerance time.Duration, log zerolog.Logger) *Service {
	return &Service{
		locator:   locator,
		resolver:  resolver,
		audio:     audio,
		tracks:    tracks,
		events:    events,
		tolerance: tolerance,
		log:       log,
	}
}

// ListMix returns the channel's composite recordings correlated with their
// recording tracks, plus the speaking events inside each matched track.
func (s *Service) ListMix(ctx context.Context, channel string) (*MixListing, error) {
	artifacts, err := s.locator.Locate(ctx, channel, artifact.TypeMix)
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		return nil, ErrNoRecordings
	}

	allTracks, err := s.tracks.List(ctx, channel)
	if err != nil {
		return nil, err
	}
	var mixTracks []timeline.RecordingTrack
	for _, t := range allTracks {
		if t.Mix {
			mixTracks = append(mixTracks, t)
		}
	}

	matches := timeline.MatchTracks(mixTracks, artifacts, s.tolerance)
	if len(matches) == 0 {
		return nil, ErrNoRecordings
	}

	listing := &MixListing{}
	for _, m := range matches {
		rec, err := s.resolve(ctx, m.Artifact)
		if err != nil {
			return nil, err
		}
		rec.TrackID = m.Track.TrackID
		rec.TrackStart = m.Track.StartTime
		rec.TrackStop = m.Track.StopTime
		listing.Recordings = append(listing.Recordings, *rec)
	}

	events, err := s.events.ListByChannel(ctx, channel)
	if err != nil {
		s.log.Warn().Err(err).Str("channel", channel).Msg("speaking event lookup failed")
	} else {
		listing.Events = timeline.AnnotateEvents(matches, events)
	}
	return listing, nil
}

// LatestMix returns the most recently written composite recording.
func (s *Service) LatestMix(ctx context.Context, channel string) (*PlayableRecording, error) {
	artifacts, err := s.locator.Locate(ctx, channel, artifact.TypeMix)
	if err != nil {
		return nil, err
	}
	latest := artifact.Latest(artifacts)
	if latest == nil {
		return nil, ErrNoRecordings
	}
	return s.resolve(ctx, *latest)
}

// ListIndividual returns per-participant recordings grouped by publisher uid.
func (s *Service) ListIndividual(ctx context.Context, channel string) (map[string][]PlayableRecording, error) {
	artifacts, err := s.locator.Locate(ctx, channel, artifact.TypeIndividual)
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		return nil, ErrNoRecordings
	}

	grouped := artifact.GroupByUID(artifacts)
	out := make(map[string][]PlayableRecording, len(grouped))
	for uid, group := range grouped {
		for _, a := range group {
			rec, err := s.resolve(ctx, a)
			if err != nil {
				return nil, err
			}
			out[uid] = append(out[uid], *rec)
		}
	}
	return out, nil
}

// Window returns the single composite recording captured within
// [start, end] widened by the correlation tolerance on both sides.
func (s *Service) Window(ctx context.Context, channel string, start, end int64) (*PlayableRecording, error) {
	artifacts, err := s.locator.Locate(ctx, channel, artifact.TypeMix)
	if err != nil {
		return nil, err
	}
	matched := timeline.MatchWindow(artifacts, start, end, s.tolerance)
	if matched == nil {
		return nil, ErrNoRecordings
	}
	return s.resolve(ctx, *matched)
}

// ListMixAudio returns an audio derivative for every composite recording of
// the channel, transcoding any that are not yet cached.
func (s *Service) ListMixAudio(ctx context.Context, channel string) ([]AudioEntry, error) {
	artifacts, err := s.locator.Locate(ctx, channel, artifact.TypeMix)
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		return nil, ErrNoRecordings
	}

	entries := make([]AudioEntry, 0, len(artifacts))
	for _, a := range artifacts {
		entry, err := s.audio.GetOrCreate(ctx, channel, a.Key)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// AudioFile returns the audio derivative for one recording manifest.
func (s *Service) AudioFile(ctx context.Context, channel, recordingKey string) (*AudioEntry, error) {
	return s.audio.GetOrCreate(ctx, channel, recordingKey)
}

// Timeline builds a participant's speaking timeline over their individual
// audio recordings, with seek offsets into each artifact.
func (s *Service) Timeline(ctx context.Context, channel, participantID string) (*UserTimeline, error) {
	artifacts, err := s.locator.Locate(ctx, channel, artifact.TypeIndividual)
	if err != nil {
		return nil, err
	}
	var own []artifact.Artifact
	for _, a := range artifacts {
		if a.UID == participantID {
			own = append(own, a)
		}
	}
	if len(own) == 0 {
		return nil, ErrNoRecordings
	}

	events, err := s.events.ListByParticipant(ctx, channel, participantID)
	if err != nil {
		return nil, err
	}

	entries := timeline.UserAudioTimeline(own, events)
	urls := make(map[string]string)
	for _, e := range entries {
		if _, ok := urls[e.PlaybackKey]; ok {
			continue
		}
		resolved, err := s.resolver.Resolve(ctx, e.PlaybackKey)
		if err != nil {
			return nil, err
		}
		urls[e.PlaybackKey] = resolved.PlayableURL
	}
	return &UserTimeline{Entries: entries, URLs: urls}, nil
}

func (s *Service) resolve(ctx context.Context, a artifact.Artifact) (*PlayableRecording, error) {
	entry, err := s.resolver.Resolve(ctx, a.Key)
	if err != nil {
		return nil, err
	}
	return &PlayableRecording{
		Key:         a.Key,
		URL:         entry.PlayableURL,
		CaptureTime: a.CaptureTime,
	}, nil
}
