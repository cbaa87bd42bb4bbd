package frames

import "context"

// Request describes a single frame to extract
type Request struct {
	Video       string
	TimestampMs int64
	Width       int // 0 keeps the native width
	Quality     int // 1 (best) to 31 (worst)
	Format      Format
	Output      string
}

// Operation reports what an extraction did, or would do in a dry run
type Operation struct {
	TimestampMs int64
	Output      string
	Command     []string // set by strategies that shell out
	DryRun      bool
	Bytes       int64
}

// Extractor grabs one frame of a video and writes it to Request.Output
type Extractor interface {
	Extract(ctx context.Context, req Request) (Operation, error)
}
