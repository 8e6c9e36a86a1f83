package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

const maxStderrPreview = 180

// FrameExtractor writes a single JPEG frame of the video at inPath to outPath.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, inPath, outPath string, offset time.Duration) error
}

// FFmpegExtractor runs the ffmpeg binary.
type FFmpegExtractor struct {
	bin string
}

func NewFFmpegExtractor(bin string) *FFmpegExtractor {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpegExtractor{bin: bin}
}

func (f *FFmpegExtractor) ExtractFrame(ctx context.Context, inPath, outPath string, offset time.Duration) error {
	cmd := exec.CommandContext(
		ctx,
		f.bin,
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(offset.Seconds(), 'f', 3, 64),
		"-i", inPath,
		"-frames:v", "1",
		"-q:v", "3",
		"-y",
		outPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if len(msg) > maxStderrPreview {
			msg = msg[:maxStderrPreview]
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, msg)
	}
	return nil
}
