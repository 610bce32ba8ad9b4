package timeline

import (
	"sort"
	"time"

	"meetvault/internal/artifact"
)

// TrackMatch pairs a closed track with the artifact recorded during it.
type TrackMatch struct {
	Track    RecordingTrack
	Artifact artifact.Artifact
}

// MatchTracks finds, for each closed track, the first artifact whose capture
// time falls within [start - tolerance, stop]. The tolerance absorbs recorder
// start-up lag before the track's logical start. Tracks without a match are
// silently skipped: recordings can be missing when a session failed to start.
func MatchTracks(tracks []RecordingTrack, artifacts []artifact.Artifact, tolerance time.Duration) []TrackMatch {
	var matches []TrackMatch
	for _, track := range tracks {
		if track.StartTime == 0 || track.StopTime == 0 {
			continue
		}
		lower := track.StartTime - tolerance.Milliseconds()
		for _, a := range artifacts {
			if a.CaptureTime == nil {
				continue
			}
			captured := a.CaptureTime.UnixMilli()
			if captured >= lower && captured <= track.StopTime {
				matches = append(matches, TrackMatch{Track: track, Artifact: a})
				break
			}
		}
	}
	return matches
}

// MatchWindow finds the first artifact captured within [start-tolerance,
// end+tolerance], both epoch ms. Used by the single-recording lookup.
func MatchWindow(artifacts []artifact.Artifact, start, end int64, tolerance time.Duration) *artifact.Artifact {
	tol := tolerance.Milliseconds()
	for i := range artifacts {
		a := &artifacts[i]
		if a.CaptureTime == nil {
			continue
		}
		captured := a.CaptureTime.UnixMilli()
		if captured >= start-tol && captured <= end+tol {
			return a
		}
	}
	return nil
}

// PlaybackEvent is one speaking event annotated with the playback reference
// of the track it happened in.
type PlaybackEvent struct {
	ParticipantID string `json:"participantId"`
	Start         int64  `json:"start"`
	End           int64  `json:"end"`
	PlaybackKey   string `json:"playbackKey"`
	TrackStart    int64  `json:"trackStart"`
	TrackStop     int64  `json:"trackStop"`
}

// AnnotateEvents attaches each matched track's artifact key and bounds to the
// speaking events inside that track, flattened and ordered by participant
// then start time.
func AnnotateEvents(matches []TrackMatch, events []SpeakingEvent) []PlaybackEvent {
	var annotated []PlaybackEvent
	for _, m := range matches {
		for _, e := range events {
			if e.Start < m.Track.StartTime || e.Start > m.Track.StopTime {
				continue
			}
			annotated = append(annotated, PlaybackEvent{
				ParticipantID: e.ParticipantID,
				Start:         e.Start,
				End:           e.End,
				PlaybackKey:   m.Artifact.Key,
				TrackStart:    m.Track.StartTime,
				TrackStop:     m.Track.StopTime,
			})
		}
	}
	sort.Slice(annotated, func(i, j int) bool {
		if annotated[i].ParticipantID != annotated[j].ParticipantID {
			return annotated[i].ParticipantID < annotated[j].ParticipantID
		}
		return annotated[i].Start < annotated[j].Start
	})
	return annotated
}

// TimelineEntry maps one speaking event onto a seek offset inside a single
// participant's audio artifact.
type TimelineEntry struct {
	ParticipantID   string `json:"participantId"`
	Start           int64  `json:"start"`
	End             int64  `json:"end"`
	PlaybackKey     string `json:"playbackKey"`
	SeekFromSeconds int64  `json:"seekFromSeconds"`
}

// UserAudioTimeline maps each speaking event to the artifact whose segment
// start is the latest one at or before the event's start. The seek offset is
// the whole-second distance between the two. Events earlier than every
// segment start are dropped. The result is globally ordered by event start.
func UserAudioTimeline(artifacts []artifact.Artifact, events []SpeakingEvent) []TimelineEntry {
	type candidate struct {
		key        string
		startEpoch int64
	}
	var candidates []candidate
	for _, a := range artifacts {
		segStart := artifact.ExtractSegmentStart(a.Key)
		if segStart == nil {
			continue
		}
		candidates = append(candidates, candidate{key: a.Key, startEpoch: segStart.UnixMilli()})
	}

	var entries []TimelineEntry
	for _, e := range events {
		var best *candidate
		for i := range candidates {
			c := &candidates[i]
			if e.Start < c.startEpoch {
				continue
			}
			if best == nil || c.startEpoch > best.startEpoch {
				best = c
			}
		}
		if best == nil {
			continue
		}
		entries = append(entries, TimelineEntry{
			ParticipantID:   e.ParticipantID,
			Start:           e.Start,
			End:             e.End,
			PlaybackKey:     best.key,
			SeekFromSeconds: (e.Start - best.startEpoch) / 1000,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Start < entries[j].Start })
	return entries
}
