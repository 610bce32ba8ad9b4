package recording

import (
	"fmt"
)

// Reserved recorder identities, one per mode, far above the range real
// participants use, so the vendor never confuses the recorder with a member
// of the meeting.
const (
	mixRecorderUID        uint32 = 9999999
	individualRecorderUID uint32 = 9999998
)

// SessionMode is the per-type recording configuration, validated when the
// mode string is resolved rather than at point of use.
type SessionMode interface {
	Name() string
	RecorderUID() uint32
	// RecordingConfig builds the vendor clientRequest.recordingConfig body.
	RecordingConfig(maxIdleTime int) map[string]any
}

// ModeFor resolves a recording type string into its mode, failing on
// anything but mix/individual.
func ModeFor(recordingType string) (SessionMode, error) {
	switch recordingType {
	case "mix":
		return MixMode{}, nil
	case "individual":
		return IndividualMode{}, nil
	default:
		return nil, fmt.Errorf("invalid recording type: %s, must be 'mix' or 'individual'", recordingType)
	}
}

// MixMode composites all participant streams into one recording.
type MixMode struct{}

func (MixMode) Name() string        { return "mix" }
func (MixMode) RecorderUID() uint32 { return mixRecorderUID }

func (MixMode) RecordingConfig(maxIdleTime int) map[string]any {
	return map[string]any{
		"channelType":  1,
		"streamTypes":  0,
		"audioProfile": 1,
		"maxIdleTime":  maxIdleTime,
	}
}

// IndividualMode records one file per subscribed participant.
type IndividualMode struct{}

func (IndividualMode) Name() string        { return "individual" }
func (IndividualMode) RecorderUID() uint32 { return individualRecorderUID }

func (IndividualMode) RecordingConfig(maxIdleTime int) map[string]any {
	return map[string]any{
		"channelType":       1,
		"streamTypes":       0,
		"subscribeUidGroup": 0,
		"maxIdleTime":       maxIdleTime,
	}
}
