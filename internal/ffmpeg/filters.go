package ffmpeg

import (
	"fmt"
	"strings"
)

// FilterBuilder helps construct ffmpeg filter chains
type FilterBuilder struct {
	filters []string
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		filters: make([]string, 0),
	}
}

// ScaleWidth scales to width and lets ffmpeg derive the height from the aspect ratio
func (fb *FilterBuilder) ScaleWidth(width int) *FilterBuilder {
	if width <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("scale=%d:-1:flags=bicubic", width))
	return fb
}

// SelectFrame keeps only the frame with the given decode index
func (fb *FilterBuilder) SelectFrame(index int64) *FilterBuilder {
	if index < 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf(`select=eq(n\,%d)`, index))
	return fb
}

// Build returns the complete filter string joined with commas
func (fb *FilterBuilder) Build() string {
	if len(fb.filters) == 0 {
		return ""
	}
	return strings.Join(fb.filters, ",")
}
