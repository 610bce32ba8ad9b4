package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMeetingEnded(t *testing.T) {
	now := time.Date(2025, 1, 14, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		meeting Meeting
		want    bool
	}{
		{
			name:    "ended status",
			meeting: Meeting{Status: MeetingStatusEnded, ScheduledEndTime: future},
			want:    true,
		},
		{
			name:    "actual end time set",
			meeting: Meeting{Status: MeetingStatusActive, ScheduledEndTime: future, ActualEndTime: &past},
			want:    true,
		},
		{
			name:    "scheduled end passed",
			meeting: Meeting{Status: MeetingStatusActive, ScheduledEndTime: past},
			want:    true,
		},
		{
			name:    "scheduled end ahead",
			meeting: Meeting{Status: MeetingStatusActive, ScheduledEndTime: future},
			want:    false,
		},
		{
			name:    "no scheduled end carries no deadline",
			meeting: Meeting{Status: MeetingStatusActive},
			want:    false,
		},
		{
			name:    "scheduled meeting without end time",
			meeting: Meeting{Status: MeetingStatusScheduled},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.meeting.Ended(now))
		})
	}
}
