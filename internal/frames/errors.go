package frames

import (
	"fmt"

	"github.com/kikiluvv/keyframer/pkg/util"
)

// FrameReadError means no frame could be decoded near a timestamp
type FrameReadError struct {
	TimestampMs int64
	Err         error
}

func (e *FrameReadError) Error() string {
	msg := fmt.Sprintf("failed to read frame near %d ms (timecode %s)", e.TimestampMs, util.FormatMillis(e.TimestampMs))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FrameReadError) Unwrap() error {
	return e.Err
}

// FrameWriteError means an image could not be encoded or saved
type FrameWriteError struct {
	Path string
	Err  error
}

func (e *FrameWriteError) Error() string {
	return fmt.Sprintf("failed to write image %s: %v", e.Path, e.Err)
}

func (e *FrameWriteError) Unwrap() error {
	return e.Err
}

// ExtractionFailedError means the external decoder exited with an error
type ExtractionFailedError struct {
	TimestampMs int64
	Err         error
}

func (e *ExtractionFailedError) Error() string {
	return fmt.Sprintf("frame extraction failed at %d ms (timecode %s): %v", e.TimestampMs, util.FormatMillis(e.TimestampMs), e.Err)
}

func (e *ExtractionFailedError) Unwrap() error {
	return e.Err
}
