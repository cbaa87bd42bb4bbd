package analysis

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kikiluvv/keyframer/internal/align"
)

// ErrMalformedTranscript marks a transcript that cannot be segmented
var ErrMalformedTranscript = errors.New("malformed transcript")

// WordTimingError reports a word whose start or end time is missing or unusable
type WordTimingError struct {
	Phrase int // index into transcriptPhrases
	Word   int // index into that phrase's words
	Field  string
}

func (e *WordTimingError) Error() string {
	return fmt.Sprintf("transcript phrase %d word %d: invalid %s", e.Phrase, e.Word, e.Field)
}

func (e *WordTimingError) Unwrap() error {
	return ErrMalformedTranscript
}

type word struct {
	text  string
	start int64
	end   int64
}

// SegmentPhrases splits result.contents[0].transcriptPhrases into phrases
// that end at words finishing with a comma or a period. Words left over at
// the end of an entry become one final phrase.
func SegmentPhrases(doc Value) ([]align.Phrase, error) {
	seq, ok := contents(doc)
	if !ok {
		return nil, fmt.Errorf("%w: result.contents is missing", ErrMalformedTranscript)
	}
	if len(seq) == 0 {
		return []align.Phrase{}, nil
	}

	item, ok := seq[0].(*Map)
	if !ok {
		return nil, fmt.Errorf("%w: result.contents[0] is not an object", ErrMalformedTranscript)
	}

	phrasesVal, ok := item.Get("transcriptPhrases")
	if !ok {
		return []align.Phrase{}, nil
	}
	entries, ok := phrasesVal.(Seq)
	if !ok {
		return nil, fmt.Errorf("%w: transcriptPhrases is not a list", ErrMalformedTranscript)
	}

	phrases := make([]align.Phrase, 0, len(entries))
	for i, entry := range entries {
		words, err := entryWords(i, entry)
		if err != nil {
			return nil, err
		}
		phrases = append(phrases, segmentWords(words)...)
	}

	return phrases, nil
}

func entryWords(idx int, entry Value) ([]word, error) {
	m, ok := entry.(*Map)
	if !ok {
		return nil, fmt.Errorf("%w: transcript phrase %d is not an object", ErrMalformedTranscript, idx)
	}

	wordsVal, ok := m.Get("words")
	if !ok {
		return nil, nil
	}
	if _, isNull := wordsVal.(Null); isNull {
		return nil, nil
	}
	seq, ok := wordsVal.(Seq)
	if !ok {
		return nil, fmt.Errorf("%w: transcript phrase %d words is not a list", ErrMalformedTranscript, idx)
	}

	words := make([]word, 0, len(seq))
	for j, wv := range seq {
		wm, ok := wv.(*Map)
		if !ok {
			return nil, fmt.Errorf("%w: transcript phrase %d word %d is not an object", ErrMalformedTranscript, idx, j)
		}

		text, err := wordText(wm)
		if err != nil {
			return nil, fmt.Errorf("%w: transcript phrase %d word %d: %v", ErrMalformedTranscript, idx, j, err)
		}
		start, ok := millis(wm, "startTimeMs")
		if !ok {
			return nil, &WordTimingError{Phrase: idx, Word: j, Field: "startTimeMs"}
		}
		end, ok := millis(wm, "endTimeMs")
		if !ok {
			return nil, &WordTimingError{Phrase: idx, Word: j, Field: "endTimeMs"}
		}

		words = append(words, word{text: strings.TrimSpace(text), start: start, end: end})
	}
	return words, nil
}

func segmentWords(words []word) []align.Phrase {
	var out []align.Phrase
	var cur []string
	var start int64

	for _, w := range words {
		if len(cur) == 0 {
			start = w.start
		}
		cur = append(cur, w.text)

		if strings.HasSuffix(w.text, ",") || strings.HasSuffix(w.text, ".") {
			out = append(out, align.Phrase{
				Text:        phraseText(cur),
				StartTimeMs: start,
				EndTimeMs:   w.end,
			})
			cur = cur[:0]
		}
	}

	if len(cur) > 0 {
		out = append(out, align.Phrase{
			Text:        phraseText(cur),
			StartTimeMs: start,
			EndTimeMs:   words[len(words)-1].end,
		})
	}

	return out
}

// phraseText joins words and drops the closing punctuation
func phraseText(words []string) string {
	joined := strings.TrimSpace(strings.Join(words, " "))
	joined = strings.ReplaceAll(joined, " ,", ",")
	joined = strings.ReplaceAll(joined, " .", ".")
	return strings.TrimSpace(strings.TrimRight(joined, ",."))
}

func wordText(m *Map) (string, error) {
	v, ok := m.Get("text")
	if !ok {
		return "", nil
	}
	switch t := v.(type) {
	case String:
		return string(t), nil
	case Null:
		return "", nil
	default:
		return "", fmt.Errorf("text is not a string")
	}
}

// millis reads a word time. Whole numbers, fractional numbers (truncated)
// and numeric strings are accepted.
func millis(m *Map, key string) (int64, bool) {
	v, ok := m.Get(key)
	if !ok {
		return 0, false
	}

	switch t := v.(type) {
	case Number:
		if n, ok := t.Int64(); ok {
			return n, true
		}
		f, err := t.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return int64(f), true
	case String:
		n, err := strconv.ParseInt(strings.TrimSpace(string(t)), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
