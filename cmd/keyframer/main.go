package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kikiluvv/keyframer/internal/catalog"
	"github.com/kikiluvv/keyframer/internal/config"
	"github.com/kikiluvv/keyframer/internal/ffmpeg"
	"github.com/kikiluvv/keyframer/internal/frames"
	"github.com/kikiluvv/keyframer/internal/logging"
	"github.com/kikiluvv/keyframer/internal/pipeline"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "keyframer",
	Short: "keyframer - keyframe extraction from video analysis results",
	Long:  "Extracts still frames at the keyframe times of a video analysis result and maps transcript phrases onto them.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(verbose)

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./keyframer.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(timestampsCmd)
	rootCmd.AddCommand(configCmd)
}

var extractFlags struct {
	video          string
	document       string
	outDir         string
	prefix         string
	format         string
	quality        int
	scaleWidth     int
	dryRun         bool
	timestampsOnly bool
	matchPhrases   bool
	onlyMatched    bool
	strategy       string
	resample       string
	noProgress     bool
	catalogPath    string
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract keyframe stills and write the CSV index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		applyExtractFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		format, err := frames.ParseFormat(cfg.Format)
		if err != nil {
			return err
		}

		opts := pipeline.Options{
			Video:          extractFlags.video,
			Document:       extractFlags.document,
			Stdin:          os.Stdin,
			OutputDir:      cfg.OutputDir,
			Prefix:         cfg.Prefix,
			Format:         format,
			Quality:        cfg.Quality,
			ScaleWidth:     cfg.ScaleWidth,
			DryRun:         extractFlags.dryRun,
			TimestampsOnly: extractFlags.timestampsOnly,
			MatchPhrases:   extractFlags.matchPhrases,
			OnlyMatched:    extractFlags.onlyMatched,
			Out:            cmd.OutOrStdout(),
			Progress:       cfg.Progress,
		}

		logger := logging.WithComponent("cli")
		if opts.OnlyMatched && !opts.MatchPhrases {
			logger.Warn().Msg("--only-matched has no effect without --match-phrases")
		}

		if err := opts.CheckInputs(); err != nil {
			logger.Error().Err(err).Msg("extraction failed")
			return err
		}

		var extractor frames.Extractor
		if !opts.TimestampsOnly {
			extractor, err = newExtractor(cfg, opts.DryRun)
			if err != nil {
				return err
			}
		}

		var store pipeline.Store
		if cfg.Catalog.Path != "" && !opts.TimestampsOnly {
			cat, err := catalog.Open(cfg.Catalog.Path)
			if err != nil {
				return err
			}
			defer cat.Close()
			store = cat
		}

		pipe := pipeline.New(log.Logger, extractor, store, opts)
		result, err := pipe.Run(cmd.Context())
		if err != nil {
			logger.Error().Err(err).Msg("extraction failed")
			return err
		}

		logger.Info().
			Str("run_id", result.RunID).
			Int("keyframes", len(result.Keyframes)).
			Int("phrases", len(result.Matches)).
			Int("frames", len(result.Extracted)).
			Msg("done")

		return nil
	},
}

func init() {
	f := extractCmd.Flags()
	f.StringVar(&extractFlags.video, "video", "", "input video file")
	f.StringVar(&extractFlags.document, "json", "", "analysis result: file path or inline JSON (default: stdin)")
	f.StringVar(&extractFlags.outDir, "outdir", "", "output directory")
	f.StringVar(&extractFlags.prefix, "prefix", "", "image filename prefix")
	f.StringVar(&extractFlags.format, "format", "", "image format: jpg, jpeg or png")
	f.IntVar(&extractFlags.quality, "quality", 0, "image quality, 1 (best) to 31 (worst)")
	f.IntVar(&extractFlags.scaleWidth, "scale-width", 0, "output width in pixels, keeping aspect ratio")
	f.BoolVar(&extractFlags.dryRun, "dry-run", false, "report planned frames without writing images")
	f.BoolVar(&extractFlags.timestampsOnly, "timestamps-only", false, "print keyframe times and exit")
	f.BoolVar(&extractFlags.matchPhrases, "match-phrases", false, "map transcript phrases to their nearest keyframe")
	f.BoolVar(&extractFlags.onlyMatched, "only-matched", false, "extract only keyframes matched by a phrase")
	f.StringVar(&extractFlags.strategy, "strategy", "", "extraction strategy: decoder or command")
	f.StringVar(&extractFlags.resample, "resample", "", "decoder strategy resampler: bicubic or catmull-rom")
	f.BoolVar(&extractFlags.noProgress, "no-progress", false, "disable the progress bar")
	f.StringVar(&extractFlags.catalogPath, "catalog", "", "record the run in this SQLite catalog")
}

// applyExtractFlags overrides config values with flags set on the command line
func applyExtractFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("outdir") {
		cfg.OutputDir = extractFlags.outDir
	}
	if f.Changed("prefix") {
		cfg.Prefix = extractFlags.prefix
	}
	if f.Changed("format") {
		cfg.Format = extractFlags.format
	}
	if f.Changed("quality") {
		cfg.Quality = extractFlags.quality
	}
	if f.Changed("scale-width") {
		cfg.ScaleWidth = extractFlags.scaleWidth
	}
	if f.Changed("strategy") {
		cfg.Strategy = extractFlags.strategy
	}
	if f.Changed("resample") {
		cfg.Resample = extractFlags.resample
	}
	if f.Changed("catalog") {
		cfg.Catalog.Path = extractFlags.catalogPath
	}
	if extractFlags.noProgress {
		cfg.Progress = false
	}
}

func newExtractor(cfg *config.Config, dryRun bool) (frames.Extractor, error) {
	exec, err := ffmpeg.New(log.Logger, ffmpeg.Options{
		FFmpegPath:  cfg.FFmpeg.BinaryPath,
		FFprobePath: cfg.FFmpeg.ProbeBinaryPath,
		Threads:     cfg.FFmpeg.Threads,
		DryRun:      dryRun,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	switch cfg.Strategy {
	case config.StrategyCommand:
		return frames.NewCommandExtractor(log.Logger, exec, dryRun), nil
	default:
		resampler, err := frames.ParseResampler(cfg.Resample)
		if err != nil {
			return nil, err
		}
		return frames.NewDecoderExtractor(log.Logger, frames.FFmpegDecoder{Exec: exec}, resampler, dryRun), nil
	}
}

var timestampsCmd = &cobra.Command{
	Use:   "timestamps",
	Short: "Print the keyframe times of an analysis result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		document, _ := cmd.Flags().GetString("json")

		pipe := pipeline.New(log.Logger, nil, nil, pipeline.Options{
			Document:       document,
			Stdin:          os.Stdin,
			TimestampsOnly: true,
			Out:            cmd.OutOrStdout(),
		})
		_, err := pipe.Run(cmd.Context())
		return err
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.FromContext(cmd.Context()).Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	timestampsCmd.Flags().String("json", "", "analysis result: file path or inline JSON (default: stdin)")
	configCmd.AddCommand(configShowCmd)
}
