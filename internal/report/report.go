package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kikiluvv/keyframer/internal/align"
	"github.com/kikiluvv/keyframer/pkg/util"
)

const (
	IndexFile     = "keyframes_index.csv"
	PhraseMapFile = "phrase_keyframe_map.csv"

	indexHeader     = "timestamp_ms,timecode,filename"
	phraseMapHeader = "phrase_idx,phrase_text,start_ms,start_tc,end_ms,end_tc,anchor_ms,anchor_tc,matched_keyframe_ms,matched_keyframe_tc,matched_filename"
)

// WriteIndex lists every keyframe in discovery order with its image name
func WriteIndex(w io.Writer, keyframes []int64, filename func(int64) string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, indexHeader)
	for _, t := range keyframes {
		fmt.Fprintf(bw, "%d,%s,%s\n", t, util.FormatMillis(t), filename(t))
	}
	return bw.Flush()
}

// WritePhraseMap writes one row per match. The phrase text is always quoted,
// with embedded double quotes turned into single quotes.
func WritePhraseMap(w io.Writer, matches []align.Match) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, phraseMapHeader)
	for _, m := range matches {
		start, end := m.Phrase.StartTimeMs, m.Phrase.EndTimeMs
		fmt.Fprintf(bw, "%d,\"%s\",%d,%s,%d,%s,%d,%s,%d,%s,%s\n",
			m.Index,
			strings.ReplaceAll(m.Phrase.Text, `"`, "'"),
			start, util.FormatMillis(start),
			end, util.FormatMillis(end),
			m.AnchorMs, util.FormatMillis(m.AnchorMs),
			m.KeyframeMs, util.FormatMillis(m.KeyframeMs),
			m.KeyframeFile,
		)
	}
	return bw.Flush()
}

// WriteIndexFile writes keyframes_index.csv into dir and returns its path
func WriteIndexFile(dir string, keyframes []int64, filename func(int64) string) (string, error) {
	path := filepath.Join(dir, IndexFile)
	return path, writeFile(path, func(w io.Writer) error {
		return WriteIndex(w, keyframes, filename)
	})
}

// WritePhraseMapFile writes phrase_keyframe_map.csv into dir and returns its path
func WritePhraseMapFile(dir string, matches []align.Match) (string, error) {
	path := filepath.Join(dir, PhraseMapFile)
	return path, writeFile(path, func(w io.Writer) error {
		return WritePhraseMap(w, matches)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
