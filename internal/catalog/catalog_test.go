package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/keyframer/internal/align"
)

func setupTestCatalog(t *testing.T) *Catalog {
	t.Helper()

	c, err := Open(filepath.Join(t.TempDir(), "catalog", "runs.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() {
		c.Close()
	})
	return c
}

func TestRecordAndQuery(t *testing.T) {
	c := setupTestCatalog(t)
	ctx := context.Background()

	keyframes := []int64{2000, 0, 1000, 1000}
	names := map[int64]string{}
	for _, k := range keyframes {
		names[k] = fmt.Sprintf("keyFrame.%d.jpg", k)
	}

	id := uuid.NewString()
	rec := RunRecord{
		ID:        id,
		Video:     "talk.mp4",
		OutputDir: "frames",
		Prefix:    "keyFrame",
		Format:    "jpg",
		Keyframes: keyframes,
		Filenames: names,
		Extracted: []int64{1000},
		Matches: []align.Match{
			{Index: 1, Phrase: align.Phrase{Text: "hello", StartTimeMs: 900, EndTimeMs: 1100}, AnchorMs: 1000, KeyframeMs: 1000, KeyframeFile: names[1000]},
			{Index: 2, Phrase: align.Phrase{Text: "again", StartTimeMs: 950, EndTimeMs: 1000}, AnchorMs: 975, KeyframeMs: 1000, KeyframeFile: names[1000]},
		},
	}
	require.NoError(t, c.Record(ctx, rec))

	run, err := c.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "talk.mp4", run.Video)

	rows, err := c.Keyframes(ctx, id)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	got := make([]int64, 0, len(rows))
	for _, r := range rows {
		got = append(got, r.TimestampMs)
	}
	assert.Equal(t, keyframes, got)
	assert.False(t, rows[0].Extracted)
	assert.True(t, rows[2].Extracted)
	assert.Equal(t, "00:00:02.000", rows[0].Timecode)

	matches, err := c.Matches(ctx, id)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "hello", matches[0].Text)
	assert.Equal(t, int64(1000), matches[1].KeyframeMs)
}

func TestRecordDuplicateRunFails(t *testing.T) {
	c := setupTestCatalog(t)
	ctx := context.Background()

	rec := RunRecord{ID: uuid.NewString(), Keyframes: []int64{0}}
	require.NoError(t, c.Record(ctx, rec))
	assert.Error(t, c.Record(ctx, rec))

	rows, err := c.Keyframes(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestNilCatalog(t *testing.T) {
	var c *Catalog
	assert.NoError(t, c.Close())
	assert.Error(t, c.Record(context.Background(), RunRecord{}))
}
