package analysis

import "errors"

// KeyFrameTimesKey is the field that carries keyframe offsets in milliseconds
const KeyFrameTimesKey = "KeyFrameTimesMs"

// ErrMissingKeyframes means no keyframe list could be found anywhere in the document
var ErrMissingKeyframes = errors.New("could not find '" + KeyFrameTimesKey + "' in analysis result")

// LocateKeyframes returns the keyframe times of an analysis result.
// result.contents[0].KeyFrameTimesMs is tried first, then the whole tree is
// searched depth first. The list is returned in document order.
func LocateKeyframes(doc Value) ([]int64, error) {
	if seq, ok := contents(doc); ok && len(seq) > 0 {
		if item, ok := seq[0].(*Map); ok {
			if v, ok := item.Get(KeyFrameTimesKey); ok {
				if times, ok := intList(v); ok {
					return times, nil
				}
			}
		}
	}

	if times, ok := findKeyframes(doc); ok {
		return times, nil
	}

	return nil, ErrMissingKeyframes
}

// findKeyframes checks each key of a map, descending into its value before
// moving on to the next key.
func findKeyframes(v Value) ([]int64, bool) {
	switch node := v.(type) {
	case *Map:
		for _, key := range node.Keys() {
			child, _ := node.Get(key)
			if key == KeyFrameTimesKey {
				if times, ok := intList(child); ok {
					return times, true
				}
			}
			if times, ok := findKeyframes(child); ok {
				return times, true
			}
		}
	case Seq:
		for _, child := range node {
			if times, ok := findKeyframes(child); ok {
				return times, true
			}
		}
	}
	return nil, false
}

// intList accepts a non-empty sequence made only of integer literals
func intList(v Value) ([]int64, bool) {
	seq, ok := v.(Seq)
	if !ok || len(seq) == 0 {
		return nil, false
	}

	times := make([]int64, 0, len(seq))
	for _, elem := range seq {
		n, ok := elem.(Number)
		if !ok {
			return nil, false
		}
		t, ok := n.Int64()
		if !ok {
			return nil, false
		}
		times = append(times, t)
	}
	return times, true
}
