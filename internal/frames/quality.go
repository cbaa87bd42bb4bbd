package frames

import (
	"image/png"
	"math"
)

// MapQuality converts an ffmpeg style -q:v value (1 best, 31 worst) to a
// 0-100 encoder quality: 1 -> 100, 31 -> 10.
func MapQuality(q int) int {
	q = clamp(q, 1, 31)
	return clamp(100-3*(q-1), 0, 100)
}

// PNGCompression derives a 0 (none) to 9 (max) compression level from a
// mapped quality, so better quality compresses less.
func PNGCompression(quality int) int {
	level := float64(100-quality)*0.09 + 1
	level = math.Max(0, math.Min(9, level))
	return int(math.Round(level))
}

// pngLevel buckets a 0-9 level onto the levels image/png supports
func pngLevel(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
