package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kikiluvv/keyframer/internal/align"
	"github.com/kikiluvv/keyframer/internal/catalog"
	"github.com/kikiluvv/keyframer/internal/frames"
	"github.com/kikiluvv/keyframer/pkg/util"
)

// Options configures a single run
type Options struct {
	Video    string
	Document string    // file path or inline JSON; empty reads Stdin
	Stdin    io.Reader // source for the analysis result when Document is empty

	OutputDir  string
	Prefix     string
	Format     frames.Format
	Quality    int // 1 (best) to 31 (worst)
	ScaleWidth int // 0 keeps the native width

	DryRun         bool
	TimestampsOnly bool
	MatchPhrases   bool
	OnlyMatched    bool // only honored together with MatchPhrases

	Out      io.Writer // timestamp listings and dry-run reports
	Progress bool
}

// CheckInputs reports a missing video before any extraction work is set up.
// Timestamps-only runs never touch the video.
func (o Options) CheckInputs() error {
	if o.TimestampsOnly || util.FileExists(o.Video) {
		return nil
	}
	return &InputNotFoundError{Input: o.Video, Err: os.ErrNotExist}
}

// Result summarizes a finished run
type Result struct {
	RunID         string
	Keyframes     []int64
	Matches       []align.Match
	Extracted     []frames.Operation
	IndexPath     string
	PhraseMapPath string
	TotalBytes    int64
}

// Store records finished runs
type Store interface {
	Record(ctx context.Context, rec catalog.RunRecord) error
}

// InputNotFoundError reports a missing video or unreadable analysis result
type InputNotFoundError struct {
	Input string
	Err   error
}

func (e *InputNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("input not found: %s: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("input not found: %s", e.Input)
}

func (e *InputNotFoundError) Unwrap() error {
	return e.Err
}
