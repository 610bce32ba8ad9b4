// Package transcode adapts the external audio transcoding tool. The tool is
// consumed as a black box: local playlist in, local audio file out.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrUnavailable is returned when the external converter is not installed.
var ErrUnavailable = errors.New("transcoder not available")

// Converter turns a local HLS playlist into a single audio file.
type Converter interface {
	Available() error
	ToAudio(ctx context.Context, playlistPath, outputPath string) error
}

// FFmpegConverter shells out to ffmpeg.
type FFmpegConverter struct {
	ffmpegPath string
}

func NewFFmpegConverter() *FFmpegConverter {
	return &FFmpegConverter{
		ffmpegPath: "ffmpeg", // Assumes ffmpeg is in PATH
	}
}

// Available checks that ffmpeg is installed and runnable.
func (f *FFmpegConverter) Available() error {
	cmd := exec.Command(f.ffmpegPath, "-version")
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if !strings.Contains(string(output), "ffmpeg version") {
		return fmt.Errorf("%w: unexpected version output", ErrUnavailable)
	}

	return nil
}

// ToAudio converts the playlist and its local segments into one mp3 file.
func (f *FFmpegConverter) ToAudio(ctx context.Context, playlistPath, outputPath string) error {
	args := []string{
		"-y",
		"-i", playlistPath,
		"-acodec", "libmp3lame",
		"-q:a", "2",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		tail := stderr.String()
		if len(tail) > 500 {
			tail = tail[len(tail)-500:]
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, tail)
	}
	return nil
}
