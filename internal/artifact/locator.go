package artifact

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"meetvault/internal/storage"
)

const (
	TypeMix        = "mix"
	TypeIndividual = "individual"

	MixPrefix        = "recordings/mix/"
	IndividualPrefix = "recordings/individual/"
)

// PrefixForType maps a recording type to its storage prefix.
func PrefixForType(recordingType string) (string, error) {
	switch recordingType {
	case TypeMix:
		return MixPrefix, nil
	case TypeIndividual:
		return IndividualPrefix, nil
	default:
		return "", fmt.Errorf("invalid recording type: %s", recordingType)
	}
}

// Locator lists recording manifests for a channel.
type Locator struct {
	store storage.ObjectStore
	log   zerolog.Logger
}

func NewLocator(store storage.ObjectStore, log zerolog.Logger) *Locator {
	return &Locator{store: store, log: log}
}

// Locate returns every manifest under the type's prefix whose key contains
// the channel name. Artifacts without a parsable capture time are still
// listed; correlation skips them later.
func (l *Locator) Locate(ctx context.Context, channel, recordingType string) ([]Artifact, error) {
	prefix, err := PrefixForType(recordingType)
	if err != nil {
		return nil, err
	}

	objects, err := l.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var artifacts []Artifact
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, ".m3u8") || !strings.Contains(obj.Key, channel) {
			continue
		}

		a := Artifact{
			Key:          obj.Key,
			CaptureTime:  ExtractCaptureTime(obj.Key),
			LastModified: obj.LastModified,
			Size:         obj.Size,
		}
		if a.CaptureTime == nil {
			l.log.Debug().Str("key", obj.Key).Msg("manifest has no parsable capture time")
		}
		if recordingType == TypeIndividual {
			a.UID = ExtractUID(obj.Key)
			a.StreamType = ExtractStreamType(obj.Key)
		}
		artifacts = append(artifacts, a)
	}

	return artifacts, nil
}

// GroupByUID buckets individual artifacts by embedded participant identity.
// Artifacts without a uid marker are dropped.
func GroupByUID(artifacts []Artifact) map[string][]Artifact {
	grouped := make(map[string][]Artifact)
	for _, a := range artifacts {
		if a.UID == "" {
			continue
		}
		grouped[a.UID] = append(grouped[a.UID], a)
	}
	return grouped
}

// Latest returns the most recently written artifact, or nil when empty.
func Latest(artifacts []Artifact) *Artifact {
	var latest *Artifact
	for i := range artifacts {
		if latest == nil || artifacts[i].LastModified.After(latest.LastModified) {
			latest = &artifacts[i]
		}
	}
	return latest
}
