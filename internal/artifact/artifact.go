// Package artifact locates recording files in object storage and recovers
// the capture metadata embedded in their filenames.
package artifact

import (
	"time"
)

// Type of stream an individual-mode artifact carries, parsed from the
// __uid_e_<type> filename marker.
const (
	StreamTypeUnknown = "unknown"
	StreamTypeAudio   = "audio"
	StreamTypeVideo   = "video"
)

// Artifact is one recording manifest found in object storage. CaptureTime is
// derived from the filename; LastModified only reflects when storage wrote
// the object and is never used for timeline correlation.
type Artifact struct {
	Key          string     `json:"key"`
	CaptureTime  *time.Time `json:"captureTime,omitempty"`
	LastModified time.Time  `json:"lastModified"`
	Size         int64      `json:"size"`
	// UID is the participant identity for individual recordings, empty for mix.
	UID string `json:"uid,omitempty"`
	// StreamType is audio/video for individual recordings.
	StreamType string `json:"streamType,omitempty"`
}
