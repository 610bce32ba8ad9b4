package playback

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"meetvault/internal/artifact"
	"meetvault/internal/storage"
	"meetvault/internal/transcode"
)

const AudioPrefix = "audiofiles/"

// AudioService produces single-file audio derivatives of HLS recordings.
// Results are cached permanently: inputs are immutable once recorded and
// transcoding is the expensive step.
type AudioService struct {
	store     storage.ObjectStore
	cache     CacheStore
	converter transcode.Converter
	log       zerolog.Logger
}

func NewAudioService(store storage.ObjectStore, cache CacheStore, converter transcode.Converter, log zerolog.Logger) *AudioService {
	return &AudioService{store: store, cache: cache, converter: converter, log: log}
}

// GetOrCreate returns the audio derivative for a recording manifest,
// transcoding on first request. Scratch storage is released on every path.
func (s *AudioService) GetOrCreate(ctx context.Context, channel, recordingKey string) (*AudioEntry, error) {
	entry, err := s.cache.GetAudio(ctx, recordingKey)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		s.log.Warn().Err(err).Str("key", recordingKey).Msg("audio cache lookup failed")
	}

	if err := s.converter.Available(); err != nil {
		return nil, err
	}

	scratch := filepath.Join(os.TempDir(), "meetvault-audio-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			s.log.Warn().Err(err).Str("dir", scratch).Msg("scratch cleanup failed")
		}
	}()

	playlistPath, captureTime, err := s.downloadHLS(ctx, recordingKey, scratch)
	if err != nil {
		return nil, err
	}

	outputPath := filepath.Join(scratch, "output.mp3")
	if err := s.converter.ToAudio(ctx, playlistPath, outputPath); err != nil {
		return nil, err
	}

	audioData, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcoded audio: %w", err)
	}

	safeName := strings.TrimSuffix(path.Base(recordingKey), ".m3u8")
	audioKey := fmt.Sprintf("%s%s_%s_%d.mp3", AudioPrefix, channel, safeName, time.Now().UnixMilli())

	if err := s.store.Put(ctx, audioKey, audioData, "audio/mpeg"); err != nil {
		return nil, err
	}

	fresh := &AudioEntry{
		SourceKey:   recordingKey,
		AudioKey:    audioKey,
		CaptureTime: captureTime,
		CreatedAt:   time.Now(),
	}
	if err := s.cache.PutAudio(ctx, fresh); err != nil {
		s.log.Warn().Err(err).Str("key", recordingKey).Msg("failed to cache audio entry")
	}

	s.log.Info().Str("source", recordingKey).Str("audio", audioKey).Msg("audio derivative created")
	return fresh, nil
}

// downloadHLS fetches the manifest and every referenced segment into the
// scratch dir, rewriting segment references to local filenames. Returns the
// local playlist path and the capture time of the first segment.
func (s *AudioService) downloadHLS(ctx context.Context, recordingKey, scratch string) (string, *time.Time, error) {
	manifest, err := s.store.Get(ctx, recordingKey)
	if err != nil {
		return "", nil, err
	}

	basePath := recordingKey[:strings.LastIndex(recordingKey, "/")+1]
	lines := strings.Split(string(manifest), "\n")
	localLines := make([]string, 0, len(lines))
	var captureTime *time.Time

	for _, rawLine := range lines {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") || !strings.HasSuffix(line, ".ts") {
			localLines = append(localLines, rawLine)
			continue
		}

		segmentName := strings.SplitN(line, "?", 2)[0]
		segmentData, err := s.store.Get(ctx, basePath+segmentName)
		if err != nil {
			return "", nil, err
		}
		if err := os.WriteFile(filepath.Join(scratch, segmentName), segmentData, 0o644); err != nil {
			return "", nil, fmt.Errorf("failed to write segment: %w", err)
		}
		localLines = append(localLines, segmentName)

		if captureTime == nil {
			captureTime = artifact.ExtractCaptureTime(segmentName)
		}
	}

	playlistPath := filepath.Join(scratch, "playlist.m3u8")
	if err := os.WriteFile(playlistPath, []byte(strings.Join(localLines, "\n")), 0o644); err != nil {
		return "", nil, fmt.Errorf("failed to write playlist: %w", err)
	}
	return playlistPath, captureTime, nil
}
