package artifact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCaptureTime(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want *time.Time
	}{
		{
			name: "manifest with seconds precision",
			key:  "recordings/mix/sid123_room42_20250114093045.m3u8",
			want: timePtr(time.Date(2025, 1, 14, 9, 30, 45, 0, time.UTC)),
		},
		{
			name: "segment with millisecond precision",
			key:  "recordings/mix/sid123_room42_20250114093045123.ts",
			want: timePtr(time.Date(2025, 1, 14, 9, 30, 45, 123*int(time.Millisecond), time.UTC)),
		},
		{
			name: "two digit fraction padded to milliseconds",
			key:  "recordings/mix/sid123_room42_2025011409304512.ts",
			want: timePtr(time.Date(2025, 1, 14, 9, 30, 45, 120*int(time.Millisecond), time.UTC)),
		},
		{
			name: "no timestamp",
			key:  "recordings/mix/room42.m3u8",
			want: nil,
		},
		{
			name: "timestamp too short",
			key:  "recordings/mix/room42_2025011409.m3u8",
			want: nil,
		},
		{
			name: "month out of range",
			key:  "recordings/mix/room42_20251314093045.m3u8",
			want: nil,
		},
		{
			name: "minute out of range",
			key:  "recordings/mix/room42_20250114096045.m3u8",
			want: nil,
		},
		{
			name: "wrong extension",
			key:  "recordings/mix/room42_20250114093045.mp4",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractCaptureTime(tt.key)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "want %v, got %v", tt.want, got)
		})
	}
}

func TestExtractUID(t *testing.T) {
	assert.Equal(t, "12345", ExtractUID("recordings/individual/sid__uid_s_12345__uid_e_audio.m3u8"))
	assert.Equal(t, "", ExtractUID("recordings/mix/sid_room42_20250114093045.m3u8"))
}

func TestExtractStreamType(t *testing.T) {
	assert.Equal(t, StreamTypeAudio, ExtractStreamType("sid__uid_s_1__uid_e_audio.m3u8"))
	assert.Equal(t, StreamTypeVideo, ExtractStreamType("sid__uid_s_1__uid_e_video.m3u8"))
	assert.Equal(t, StreamTypeUnknown, ExtractStreamType("sid__uid_s_1__uid_e_audio.ts"))
}

func TestExtractSegmentStart(t *testing.T) {
	got := ExtractSegmentStart("recordings/individual/sid__uid_s_1__uid_e___ts_s_1736847045000.ts")
	require.NotNil(t, got)
	assert.Equal(t, int64(1736847045000), got.UnixMilli())

	assert.Nil(t, ExtractSegmentStart("recordings/individual/sid__uid_s_1__uid_e_audio.m3u8"))
}

func timePtr(t time.Time) *time.Time { return &t }
