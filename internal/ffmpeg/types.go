package ffmpeg

import (
	"io"
	"time"
)

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath   string
	Duration   time.Duration
	Width      int
	Height     int
	FPS        float64
	FrameCount int64
	VideoCodec string
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame int
	FPS   float64
	Time  string
	Speed string
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	Stdout          io.Writer // receives raw stdout when set
	ProgressHandler func(*Progress)
	LogHandler      func(line string)
}

// StillCodec selects the encoder used for a still export
type StillCodec string

const (
	StillJPEG StillCodec = "jpg"
	StillPNG  StillCodec = "png"
)

// StillOptions describes one frame exported straight to disk by ffmpeg
type StillOptions struct {
	Input       string
	Output      string
	TimestampMs int64
	Width       int // 0 keeps native size
	Codec       StillCodec
	QScale      int // -q:v, 1 (best) to 31 (worst)
	Compression int // png compression level 0..9
}
