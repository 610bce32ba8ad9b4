// Package timeline owns the meeting-side records (tracks and speaking
// events) and the correlation of located artifacts against them.
package timeline

import (
	"time"
)

type MeetingStatus string

const (
	MeetingStatusScheduled MeetingStatus = "scheduled"
	MeetingStatusActive    MeetingStatus = "active"
	MeetingStatusEnded     MeetingStatus = "ended"
)

type Meeting struct {
	Channel          string        `bson:"_id"`
	Status           MeetingStatus `bson:"status"`
	ScheduledEndTime time.Time     `bson:"scheduled_end_time"`
	ActualEndTime    *time.Time    `bson:"actual_end_time,omitempty"`
}

// Ended reports whether the meeting is over: explicitly ended, has an actual
// end time, or its scheduled end has passed. A document without a scheduled
// end decodes to the zero time and carries no deadline.
func (m *Meeting) Ended(now time.Time) bool {
	return m.Status == MeetingStatusEnded ||
		m.ActualEndTime != nil ||
		(!m.ScheduledEndTime.IsZero() && m.ScheduledEndTime.Before(now))
}

// RecordingTrack is one recorded span of a meeting. Times are epoch
// milliseconds; StopTime is zero while the track is open.
type RecordingTrack struct {
	MeetingID string `bson:"meeting_id"`
	TrackID   string `bson:"track_id"`
	StartTime int64  `bson:"start_time"`
	StopTime  int64  `bson:"stop_time,omitempty"`
	Mix       bool   `bson:"mix"`
}

// SpeakingEvent records one span of a participant speaking. Append-only.
type SpeakingEvent struct {
	MeetingID     string `bson:"meeting_id"`
	ParticipantID string `bson:"participant_id"`
	Start         int64  `bson:"start"`
	End           int64  `bson:"end"`
	Source        string `bson:"source"`
}
