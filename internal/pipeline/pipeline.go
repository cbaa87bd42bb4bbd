package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/kikiluvv/keyframer/internal/align"
	"github.com/kikiluvv/keyframer/internal/analysis"
	"github.com/kikiluvv/keyframer/internal/catalog"
	"github.com/kikiluvv/keyframer/internal/frames"
	"github.com/kikiluvv/keyframer/internal/logging"
	"github.com/kikiluvv/keyframer/internal/report"
	"github.com/kikiluvv/keyframer/pkg/util"
)

// Pipeline drives a run from analysis result to extracted frames
type Pipeline struct {
	logger    zerolog.Logger
	extractor frames.Extractor
	store     Store
	opts      Options
}

// New creates a pipeline. store may be nil to skip the run catalog.
func New(logger zerolog.Logger, extractor frames.Extractor, store Store, opts Options) *Pipeline {
	if opts.Prefix == "" {
		opts.Prefix = "keyFrame"
	}
	if opts.Format == "" {
		opts.Format = frames.FormatJPG
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	return &Pipeline{
		logger:    logger.With().Str("component", "pipeline").Logger(),
		extractor: extractor,
		store:     store,
		opts:      opts,
	}
}

// Run executes the pipeline. Any frame failure aborts the remaining frames.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	opts := p.opts
	result := &Result{RunID: uuid.NewString()}
	logger := logging.WithRun(p.logger, result.RunID)

	logger.Info().
		Str("video", opts.Video).
		Bool("dry_run", opts.DryRun).
		Msg("starting run")

	// Stage 1: inputs
	if err := opts.CheckInputs(); err != nil {
		return nil, err
	}

	doc, err := analysis.Load(opts.Document, opts.Stdin)
	if errors.Is(err, analysis.ErrInvalidDocument) {
		return nil, fmt.Errorf("failed to load %s: %w", documentName(opts.Document), err)
	}
	if err != nil {
		return nil, &InputNotFoundError{Input: documentName(opts.Document), Err: err}
	}

	// Stage 2: keyframes
	keyframes, err := analysis.LocateKeyframes(doc)
	if err != nil {
		return nil, err
	}
	result.Keyframes = keyframes

	logger.Info().
		Int("keyframes", len(keyframes)).
		Msg("keyframes located")

	if opts.TimestampsOnly {
		for _, t := range keyframes {
			fmt.Fprintf(opts.Out, "%d\t%s\n", t, util.FormatMillis(t))
		}
		return result, nil
	}

	if err := util.EnsureDir(opts.OutputDir); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	result.IndexPath, err = report.WriteIndexFile(opts.OutputDir, keyframes, p.filename)
	if err != nil {
		return nil, fmt.Errorf("failed to write keyframe index: %w", err)
	}

	// Stage 3: phrases
	if opts.MatchPhrases {
		phrases, err := analysis.SegmentPhrases(doc)
		if err != nil {
			return nil, err
		}

		result.Matches, err = align.MatchPhrases(phrases, keyframes, p.filename)
		if err != nil {
			return nil, err
		}

		result.PhraseMapPath, err = report.WritePhraseMapFile(opts.OutputDir, result.Matches)
		if err != nil {
			return nil, fmt.Errorf("failed to write phrase map: %w", err)
		}

		logger.Info().
			Int("phrases", len(phrases)).
			Int("matched_keyframes", len(align.MatchedKeyframes(result.Matches))).
			Msg("phrases matched")
	}

	// Stage 4: frames
	set := p.extractionSet(keyframes, result.Matches)

	extracted, err := p.extract(ctx, logger, set)
	result.Extracted = extracted
	for _, op := range extracted {
		result.TotalBytes += op.Bytes
	}
	if err != nil {
		return result, err
	}

	if err := p.record(ctx, result); err != nil {
		return result, err
	}

	logger.Info().
		Int("frames", len(result.Extracted)).
		Str("size", humanize.Bytes(uint64(result.TotalBytes))).
		Str("output_dir", opts.OutputDir).
		Msg("run complete")

	return result, nil
}

func (p *Pipeline) filename(t int64) string {
	return frames.Filename(p.opts.Prefix, t, p.opts.Format)
}

func (p *Pipeline) extractionSet(keyframes []int64, matches []align.Match) []int64 {
	if p.opts.MatchPhrases && p.opts.OnlyMatched {
		return align.MatchedKeyframes(matches)
	}
	return keyframes
}

func (p *Pipeline) extract(ctx context.Context, logger zerolog.Logger, set []int64) ([]frames.Operation, error) {
	opts := p.opts
	if opts.DryRun {
		fmt.Fprintln(opts.Out, "# DRY RUN")
	}

	var bar *progressbar.ProgressBar
	if opts.Progress && !opts.DryRun && len(set) > 0 {
		bar = progressbar.NewOptions(len(set),
			progressbar.OptionSetDescription("Extracting"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(50),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
	}

	ops := make([]frames.Operation, 0, len(set))
	for _, t := range set {
		if err := ctx.Err(); err != nil {
			return ops, err
		}

		req := frames.Request{
			Video:       opts.Video,
			TimestampMs: t,
			Width:       opts.ScaleWidth,
			Quality:     opts.Quality,
			Format:      opts.Format,
			Output:      filepath.Join(opts.OutputDir, p.filename(t)),
		}

		op, err := p.extractor.Extract(ctx, req)
		if err != nil {
			logger.Error().
				Err(err).
				Int64("timestamp_ms", t).
				Str("timecode", util.FormatMillis(t)).
				Msg("frame extraction failed")
			return ops, err
		}
		ops = append(ops, op)

		if op.DryRun {
			fmt.Fprintln(opts.Out, describe(op))
		}
		if bar != nil {
			bar.Add(1)
		}
	}

	return ops, nil
}

func (p *Pipeline) record(ctx context.Context, result *Result) error {
	if p.store == nil {
		return nil
	}

	filenames := make(map[int64]string, len(result.Keyframes))
	for _, t := range result.Keyframes {
		filenames[t] = p.filename(t)
	}

	var extracted []int64
	if !p.opts.DryRun {
		extracted = make([]int64, 0, len(result.Extracted))
		for _, op := range result.Extracted {
			extracted = append(extracted, op.TimestampMs)
		}
	}

	rec := catalog.RunRecord{
		ID:        result.RunID,
		Video:     p.opts.Video,
		OutputDir: p.opts.OutputDir,
		Prefix:    p.opts.Prefix,
		Format:    string(p.opts.Format),
		DryRun:    p.opts.DryRun,
		Keyframes: result.Keyframes,
		Filenames: filenames,
		Extracted: extracted,
		Matches:   result.Matches,
	}

	if err := p.store.Record(ctx, rec); err != nil {
		return fmt.Errorf("failed to record run %s: %w", result.RunID, err)
	}
	return nil
}

func describe(op frames.Operation) string {
	if len(op.Command) > 0 {
		return strings.Join(op.Command, " ")
	}
	return fmt.Sprintf("%s -> %s", util.FormatMillis(op.TimestampMs), op.Output)
}

func documentName(arg string) string {
	switch {
	case arg == "":
		return "stdin"
	case util.FileExists(arg):
		return arg
	default:
		return "inline analysis result"
	}
}
