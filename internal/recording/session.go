// Package recording drives the vendor cloud recording state machine and
// tracks session state durably.
package recording

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

type SessionState string

const (
	StateStarted     SessionState = "started"
	StateStopped     SessionState = "stopped"
	StateAutoStopped SessionState = "auto_stopped"
)

// Terminal reports whether the state permits no further transitions.
func (s SessionState) Terminal() bool {
	return s == StateStopped || s == StateAutoStopped
}

type StopReason string

const (
	StopReasonRequested   StopReason = "REQUESTED"
	StopReasonMeetingEnd  StopReason = "MEETING_ENDED"
	StopReasonMaxDuration StopReason = "MAX_DURATION_EXCEEDED"
)

// Session is one vendor recording session, keyed by (channel, type). At most
// one non-terminal session may exist per key.
type Session struct {
	Channel     string       `bson:"cname" json:"cname"`
	Type        string       `bson:"type" json:"type"`
	ResourceID  string       `bson:"resource_id" json:"resourceId"`
	SID         string       `bson:"sid" json:"sid"`
	RecorderUID uint32       `bson:"recorder_uid" json:"recorderUid"`
	State       SessionState `bson:"state" json:"state"`
	StartedAt   time.Time    `bson:"started_at" json:"startedAt"`
	StoppedAt   *time.Time   `bson:"stopped_at,omitempty" json:"stoppedAt,omitempty"`
	StopReason  StopReason   `bson:"stop_reason,omitempty" json:"stopReason,omitempty"`

	// Raw vendor response documents, kept for audit.
	StartResponse bson.M     `bson:"start_response,omitempty" json:"-"`
	StopResponse  bson.M     `bson:"stop_response,omitempty" json:"-"`
	QueryResponse bson.M     `bson:"query_response,omitempty" json:"-"`
	LastQueriedAt *time.Time `bson:"last_queried_at,omitempty" json:"-"`
}

// DocID builds the session document key.
func DocID(channel, recordingType string) string {
	return channel + "_" + recordingType
}
