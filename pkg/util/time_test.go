package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMillis(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{0, "00:00:00.000"},
		{7, "00:00:00.007"},
		{1000, "00:00:01.000"},
		{61_001, "00:01:01.001"},
		{3_723_456, "01:02:03.456"},
		{359_999_999, "99:59:59.999"},
		{360_000_000, "100:00:00.000"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatMillis(tc.ms), "ms=%d", tc.ms)
	}
}

func TestFormatMillisWidth(t *testing.T) {
	for _, ms := range []int64{0, 1, 999, 59_999, 3_599_999, 86_400_000, 359_999_999} {
		assert.Len(t, FormatMillis(ms), 12, "ms=%d", ms)
	}
}

func TestParseTimecodeRoundTrip(t *testing.T) {
	for _, ms := range []int64{0, 1, 500, 1000, 61_001, 3_723_456, 359_999_999, 400_000_123} {
		got, err := ParseTimecode(FormatMillis(ms))
		require.NoError(t, err)
		assert.Equal(t, ms, got)
	}
}

func TestParseTimecodeInvalid(t *testing.T) {
	for _, s := range []string{"", "12", "00:00:01", "00:61:00.000", "aa:00:00.000", "00:00:00.5"} {
		_, err := ParseTimecode(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "0.000", FormatSeconds(0))
	assert.Equal(t, "1.500", FormatSeconds(1500))
	assert.Equal(t, "12.345", FormatSeconds(12345))
}

func TestParseFrameRate(t *testing.T) {
	assert.InDelta(t, 29.97, ParseFrameRate("30000/1001"), 0.01)
	assert.Equal(t, 25.0, ParseFrameRate("25/1"))
	assert.Equal(t, 0.0, ParseFrameRate("25"))
	assert.Equal(t, 0.0, ParseFrameRate("25/0"))
}
