package frames

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/keyframer/internal/ffmpeg"
	"github.com/kikiluvv/keyframer/pkg/util"
)

// StillExporter is the part of the ffmpeg executor the command strategy needs
type StillExporter interface {
	ExportStill(ctx context.Context, opts ffmpeg.StillOptions) error
	CommandLine(args []string) []string
}

// CommandExtractor hands grab, scale and encode to one ffmpeg process per frame
type CommandExtractor struct {
	logger zerolog.Logger
	exec   StillExporter
	dryRun bool
}

// NewCommandExtractor creates the external command strategy
func NewCommandExtractor(logger zerolog.Logger, exec StillExporter, dryRun bool) *CommandExtractor {
	return &CommandExtractor{
		logger: logger.With().Str("component", "command-extractor").Logger(),
		exec:   exec,
		dryRun: dryRun,
	}
}

// StillOptions translates a request into ffmpeg export settings
func StillOptions(req Request) ffmpeg.StillOptions {
	opts := ffmpeg.StillOptions{
		Input:       req.Video,
		Output:      req.Output,
		TimestampMs: req.TimestampMs,
		Width:       req.Width,
		Codec:       ffmpeg.StillJPEG,
		QScale:      clamp(req.Quality, 1, 31),
	}
	if req.Format == FormatPNG {
		opts.Codec = ffmpeg.StillPNG
		opts.Compression = PNGCompression(MapQuality(req.Quality))
	}
	return opts
}

// Extract runs ffmpeg for req, or only reports the command in a dry run
func (c *CommandExtractor) Extract(ctx context.Context, req Request) (Operation, error) {
	opts := StillOptions(req)
	op := Operation{
		TimestampMs: req.TimestampMs,
		Output:      req.Output,
		Command:     c.exec.CommandLine(ffmpeg.StillArgs(opts)),
		DryRun:      c.dryRun,
	}
	if c.dryRun {
		return op, nil
	}

	if err := c.exec.ExportStill(ctx, opts); err != nil {
		if ctx.Err() != nil {
			return op, ctx.Err()
		}
		return op, &ExtractionFailedError{TimestampMs: req.TimestampMs, Err: err}
	}

	op.Bytes = util.FileSize(req.Output)
	c.logger.Debug().
		Int64("timestamp_ms", req.TimestampMs).
		Str("output", req.Output).
		Msg("frame exported")

	return op, nil
}
