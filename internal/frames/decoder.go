package frames

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/keyframer/internal/ffmpeg"
	"github.com/kikiluvv/keyframer/pkg/util"
)

var errNoFrame = errors.New("decoder returned no frame")

// Video is an open decoder handle
type Video interface {
	FrameAt(ctx context.Context, timestampMs int64) (image.Image, error)
	FrameAtIndex(ctx context.Context, index int64) (image.Image, error)
	FPS() float64
	Duration() time.Duration
	Close() error
}

// Decoder opens video files for frame reads
type Decoder interface {
	Open(ctx context.Context, path string) (Video, error)
}

// FFmpegDecoder opens videos through an ffmpeg executor
type FFmpegDecoder struct {
	Exec *ffmpeg.Executor
}

// Open probes the file and returns a frame handle
func (d FFmpegDecoder) Open(ctx context.Context, path string) (Video, error) {
	v, err := d.Exec.OpenVideo(ctx, path)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// DecoderExtractor decodes frames in process, rescales them and encodes them
// with the image packages. Every Extract opens and closes its own handle.
type DecoderExtractor struct {
	logger    zerolog.Logger
	decoder   Decoder
	resampler Resampler
	dryRun    bool
}

// NewDecoderExtractor creates the in-process extraction strategy
func NewDecoderExtractor(logger zerolog.Logger, decoder Decoder, resampler Resampler, dryRun bool) *DecoderExtractor {
	return &DecoderExtractor{
		logger:    logger.With().Str("component", "decoder-extractor").Logger(),
		decoder:   decoder,
		resampler: resampler,
		dryRun:    dryRun,
	}
}

// Extract reads the frame nearest req.TimestampMs and writes it to req.Output
func (d *DecoderExtractor) Extract(ctx context.Context, req Request) (Operation, error) {
	op := Operation{TimestampMs: req.TimestampMs, Output: req.Output, DryRun: d.dryRun}
	if d.dryRun {
		return op, nil
	}

	img, err := d.readFrame(ctx, req.Video, req.TimestampMs)
	if err != nil {
		return op, err
	}

	img = d.resampler.Resize(img, req.Width)

	n, err := writeImage(req.Output, img, req.Format, MapQuality(req.Quality))
	if err != nil {
		return op, &FrameWriteError{Path: req.Output, Err: err}
	}
	op.Bytes = n

	d.logger.Debug().
		Int64("timestamp_ms", req.TimestampMs).
		Str("output", req.Output).
		Int64("bytes", n).
		Msg("frame written")

	return op, nil
}

// readFrame tries a time seek first, then a frame index seek derived from fps
func (d *DecoderExtractor) readFrame(ctx context.Context, path string, timestampMs int64) (img image.Image, err error) {
	video, err := d.decoder.Open(ctx, path)
	if err != nil {
		return nil, &FrameReadError{TimestampMs: timestampMs, Err: err}
	}
	defer func() {
		if cerr := video.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close video: %w", cerr)
		}
	}()

	if dur := video.Duration(); dur > 0 && timestampMs > dur.Milliseconds() {
		d.logger.Warn().
			Int64("timestamp_ms", timestampMs).
			Str("timecode", util.FormatMillis(timestampMs)).
			Dur("duration", dur).
			Msg("keyframe is past the end of the video")
	}

	img, err = video.FrameAt(ctx, timestampMs)
	if err == nil && img == nil {
		err = errNoFrame
	}
	if err == nil {
		return img, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	timeErr := err

	fps := video.FPS()
	if fps <= 0 {
		return nil, &FrameReadError{TimestampMs: timestampMs, Err: timeErr}
	}

	index := FrameIndex(timestampMs, fps)
	d.logger.Debug().
		Int64("timestamp_ms", timestampMs).
		Int64("frame_index", index).
		Float64("fps", fps).
		AnErr("seek_error", timeErr).
		Msg("time seek failed, seeking by frame index")

	img, err = video.FrameAtIndex(ctx, index)
	if err == nil && img == nil {
		err = errNoFrame
	}
	if err == nil {
		return img, nil
	}
	return nil, &FrameReadError{TimestampMs: timestampMs, Err: errors.Join(timeErr, err)}
}

// FrameIndex converts a timestamp into a frame number at the given rate
func FrameIndex(timestampMs int64, fps float64) int64 {
	return int64(math.Round(float64(timestampMs) / 1000 * fps))
}

func writeImage(path string, img image.Image, format Format, quality int) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	switch format {
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: pngLevel(PNGCompression(quality))}
		err = enc.Encode(f, img)
	default:
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: quality})
	}

	if err != nil {
		f.Close()
		os.Remove(path)
		return 0, err
	}

	info, statErr := f.Stat()
	if err := f.Close(); err != nil {
		os.Remove(path)
		return 0, err
	}
	if statErr != nil {
		return 0, nil
	}
	return info.Size(), nil
}
