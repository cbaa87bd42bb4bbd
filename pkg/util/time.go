package util

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatMillis renders a millisecond offset as HH:MM:SS.mmm.
// Hours grow past two digits for long inputs.
func FormatMillis(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	secs, milli := ms/1000, ms%1000
	mins, secs := secs/60, secs%60
	hours, mins := mins/60, mins%60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, mins, secs, milli)
}

// ParseTimecode parses HH:MM:SS.mmm back into milliseconds
func ParseTimecode(s string) (int64, error) {
	s = strings.TrimSpace(s)

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timecode format: %s", s)
	}

	secParts := strings.SplitN(parts[2], ".", 2)
	if len(secParts) != 2 || len(secParts[1]) != 3 {
		return 0, fmt.Errorf("invalid timecode format: %s", s)
	}

	fields := []string{parts[0], parts[1], secParts[0], secParts[1]}
	values := make([]int64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid timecode format: %s", s)
		}
		values[i] = v
	}

	hours, mins, secs, milli := values[0], values[1], values[2], values[3]
	if mins > 59 || secs > 59 {
		return 0, fmt.Errorf("invalid timecode format: %s", s)
	}

	return ((hours*60+mins)*60+secs)*1000 + milli, nil
}

// FormatSeconds converts milliseconds to the seconds form ffmpeg takes for -ss
func FormatSeconds(ms int64) string {
	return fmt.Sprintf("%d.%03d", ms/1000, ms%1000)
}

// ParseFrameRate parses frame rate from ffprobe format (e.g., "30/1")
func ParseFrameRate(s string) float64 {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
