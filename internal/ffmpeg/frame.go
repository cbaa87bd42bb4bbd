package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"strings"
	"time"

	"github.com/kikiluvv/keyframer/pkg/util"
)

// ErrNoFrame means ffmpeg ran but produced no frame for the requested position
var ErrNoFrame = errors.New("no frame decoded")

// Video is an open handle on one video file. Frames are decoded by piping a
// single PNG out of ffmpeg.
type Video struct {
	exec *Executor
	path string
	info *VideoInfo
}

// OpenVideo probes path and returns a handle for frame reads
func (e *Executor) OpenVideo(ctx context.Context, path string) (*Video, error) {
	info, err := e.ProbeVideo(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("could not open video %s: %w", path, err)
	}

	e.logger.Debug().
		Str("video", path).
		Int("width", info.Width).
		Int("height", info.Height).
		Float64("fps", info.FPS).
		Dur("duration", info.Duration).
		Int64("frame_count", info.FrameCount).
		Str("codec", info.VideoCodec).
		Msg("video opened")

	return &Video{exec: e, path: path, info: info}, nil
}

// Duration returns the container duration, 0 if ffprobe did not report one
func (v *Video) Duration() time.Duration {
	return v.info.Duration
}

// FPS returns the stream's reported frame rate, 0 if unknown
func (v *Video) FPS() float64 {
	return v.info.FPS
}

// FrameAt seeks to timestampMs and decodes the next frame
func (v *Video) FrameAt(ctx context.Context, timestampMs int64) (image.Image, error) {
	args := []string{
		"-ss", util.FormatSeconds(timestampMs),
		"-i", v.path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
	return v.grab(ctx, args)
}

// FrameAtIndex decodes the frame with the given index counted from the start
func (v *Video) FrameAtIndex(ctx context.Context, index int64) (image.Image, error) {
	args := []string{
		"-i", v.path,
		"-vf", NewFilterBuilder().SelectFrame(index).Build(),
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
	return v.grab(ctx, args)
}

// Close releases the handle. Frame reads hold no process open between calls.
func (v *Video) Close() error {
	return nil
}

func (v *Video) grab(ctx context.Context, args []string) (image.Image, error) {
	var buf bytes.Buffer
	opts := RunOptions{
		Args:   args,
		Stdout: &buf,
		LogHandler: func(line string) {
			v.exec.logger.Debug().Str("ffmpeg", line).Msg("frame grab")
		},
	}

	if err := v.exec.Run(ctx, opts); err != nil {
		return nil, err
	}
	if buf.Len() == 0 {
		return nil, ErrNoFrame
	}

	img, _, err := image.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	return img, nil
}

// StillArgs builds the ffmpeg arguments that export one frame to opts.Output
func StillArgs(opts StillOptions) []string {
	args := []string{
		"-ss", util.FormatSeconds(opts.TimestampMs),
		"-i", opts.Input,
		"-frames:v", "1",
	}

	if filter := NewFilterBuilder().ScaleWidth(opts.Width).Build(); filter != "" {
		args = append(args, "-vf", filter)
	}

	switch opts.Codec {
	case StillPNG:
		args = append(args, "-compression_level", fmt.Sprintf("%d", opts.Compression))
	default:
		args = append(args, "-q:v", fmt.Sprintf("%d", opts.QScale))
	}

	return append(args, opts.Output)
}

// ExportStill writes a single frame straight to disk
func (e *Executor) ExportStill(ctx context.Context, opts StillOptions) error {
	if opts.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Debug().
		Str("input", opts.Input).
		Str("output", opts.Output).
		Int64("timestamp_ms", opts.TimestampMs).
		Msg("exporting still")

	runOpts := RunOptions{
		Args: StillArgs(opts),
		ProgressHandler: func(p *Progress) {
			e.logger.Trace().
				Int("frame", p.Frame).
				Str("speed", p.Speed).
				Msg("still export progress")
		},
		LogHandler: func(line string) {
			if !strings.Contains(line, "=") {
				e.logger.Debug().Str("ffmpeg", line).Msg("still export")
			}
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return err
	}

	// ffmpeg exits cleanly when the seek lands past the last frame
	if info, err := os.Stat(opts.Output); err != nil || info.Size() == 0 {
		return fmt.Errorf("%w at %d ms", ErrNoFrame, opts.TimestampMs)
	}

	return nil
}
