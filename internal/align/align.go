package align

import (
	"errors"
	"sort"
)

// ErrEmptyKeyframeSet is returned when matching against no keyframes.
// Callers are expected to have rejected empty keyframe lists already.
var ErrEmptyKeyframeSet = errors.New("keyframe set is empty")

// Phrase is a punctuation-delimited span of the transcript
type Phrase struct {
	Text        string
	StartTimeMs int64
	EndTimeMs   int64
}

// Match ties a phrase to the keyframe closest to its midpoint
type Match struct {
	Index        int // 1-based, transcript order
	Phrase       Phrase
	AnchorMs     int64
	KeyframeMs   int64
	KeyframeFile string
}

// Anchor returns the floored midpoint of the phrase
func Anchor(p Phrase) int64 {
	sum := p.StartTimeMs + p.EndTimeMs
	mid := sum / 2
	if sum < 0 && sum%2 != 0 {
		mid--
	}
	return mid
}

// Nearest returns the keyframe closest to target. On a tie the earliest
// keyframe in slice order wins, which matters because keyframes are not
// guaranteed to be sorted.
func Nearest(target int64, keyframes []int64) (int64, error) {
	if len(keyframes) == 0 {
		return 0, ErrEmptyKeyframeSet
	}

	best := keyframes[0]
	bestDist := distance(best, target)
	for _, k := range keyframes[1:] {
		if d := distance(k, target); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best, nil
}

func distance(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}

// MatchPhrases anchors every phrase to its nearest keyframe. filename maps a
// keyframe to the image name it will be written under.
func MatchPhrases(phrases []Phrase, keyframes []int64, filename func(int64) string) ([]Match, error) {
	matches := make([]Match, 0, len(phrases))
	for i, p := range phrases {
		anchor := Anchor(p)
		kf, err := Nearest(anchor, keyframes)
		if err != nil {
			return nil, err
		}
		m := Match{
			Index:      i + 1,
			Phrase:     p,
			AnchorMs:   anchor,
			KeyframeMs: kf,
		}
		if filename != nil {
			m.KeyframeFile = filename(kf)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// MatchedKeyframes returns the distinct keyframes referenced by matches, ascending
func MatchedKeyframes(matches []Match) []int64 {
	seen := make(map[int64]struct{}, len(matches))
	out := make([]int64, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m.KeyframeMs]; ok {
			continue
		}
		seen[m.KeyframeMs] = struct{}{}
		out = append(out, m.KeyframeMs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
