package frames

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// Resampler selects the cubic kernel used when rescaling frames
type Resampler string

const (
	ResampleBicubic    Resampler = "bicubic"
	ResampleCatmullRom Resampler = "catmull-rom"
)

// ParseResampler validates a resampler name; empty means bicubic
func ParseResampler(s string) (Resampler, error) {
	switch Resampler(strings.ToLower(strings.TrimSpace(s))) {
	case "", ResampleBicubic:
		return ResampleBicubic, nil
	case ResampleCatmullRom:
		return ResampleCatmullRom, nil
	default:
		return "", fmt.Errorf("unknown resampler %q", s)
	}
}

// ScaledHeight keeps the aspect ratio for a new width, never below 1
func ScaledHeight(width, height, targetWidth int) int {
	h := int(math.Round(float64(height) * float64(targetWidth) / float64(width)))
	if h < 1 {
		return 1
	}
	return h
}

// Resize scales img to targetWidth. A zero width or the native width returns img unchanged.
func (r Resampler) Resize(img image.Image, targetWidth int) image.Image {
	b := img.Bounds()
	if targetWidth <= 0 || targetWidth == b.Dx() || b.Dx() == 0 {
		return img
	}
	targetHeight := ScaledHeight(b.Dx(), b.Dy(), targetWidth)

	if r == ResampleCatmullRom {
		dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		return dst
	}
	return resize.Resize(uint(targetWidth), uint(targetHeight), img, resize.Bicubic)
}
