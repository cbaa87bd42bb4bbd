package frames

import (
	"fmt"
	"strings"
)

// Format is the image encoding of extracted frames
type Format string

const (
	FormatJPG Format = "jpg"
	FormatPNG Format = "png"
)

// ParseFormat accepts jpg, jpeg or png in any case. jpeg is reported as jpg.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpg", "jpeg":
		return FormatJPG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported image format %q (want jpg, jpeg or png)", s)
	}
}

// Filename returns {prefix}.{timestampMs}.{format}
func Filename(prefix string, timestampMs int64, format Format) string {
	return fmt.Sprintf("%s.%d.%s", prefix, timestampMs, format)
}
