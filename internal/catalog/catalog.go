package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kikiluvv/keyframer/internal/align"
	"github.com/kikiluvv/keyframer/pkg/util"
)

const errCatalogNil = "catalog is nil"

// Run is one pipeline invocation
type Run struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Video     string
	OutputDir string
	Prefix    string
	Format    string
	DryRun    bool
	CreatedAt time.Time
}

// Keyframe is one discovered keyframe of a run, in discovery order
type Keyframe struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	RunID       string `gorm:"type:varchar(36);index:idx_keyframe_run"`
	Position    int
	TimestampMs int64
	Timecode    string
	Filename    string
	Extracted   bool
}

// PhraseMatch is one row of the phrase to keyframe map
type PhraseMatch struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	RunID        string `gorm:"type:varchar(36);index:idx_match_run"`
	PhraseIdx    int
	Text         string
	StartMs      int64
	EndMs        int64
	AnchorMs     int64
	KeyframeMs   int64
	KeyframeFile string
}

// RunRecord is everything a finished run contributes to the catalog
type RunRecord struct {
	ID        string
	Video     string
	OutputDir string
	Prefix    string
	Format    string
	DryRun    bool
	Keyframes []int64
	Filenames map[int64]string
	Extracted []int64
	Matches   []align.Match
}

// Catalog persists runs into a SQLite file
type Catalog struct {
	db *gorm.DB
}

// Open creates or opens the catalog at path
func Open(path string) (*Catalog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.AutoMigrate(&Run{}, &Keyframe{}, &PhraseMatch{}); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close releases the database handle
func (c *Catalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record stores a run with its keyframes and matches in one transaction
func (c *Catalog) Record(ctx context.Context, rec RunRecord) error {
	if c == nil || c.db == nil {
		return errors.New(errCatalogNil)
	}

	extracted := make(map[int64]bool, len(rec.Extracted))
	for _, t := range rec.Extracted {
		extracted[t] = true
	}

	keyframes := make([]Keyframe, 0, len(rec.Keyframes))
	for i, t := range rec.Keyframes {
		keyframes = append(keyframes, Keyframe{
			RunID:       rec.ID,
			Position:    i,
			TimestampMs: t,
			Timecode:    util.FormatMillis(t),
			Filename:    rec.Filenames[t],
			Extracted:   extracted[t],
		})
	}

	matches := make([]PhraseMatch, 0, len(rec.Matches))
	for _, m := range rec.Matches {
		matches = append(matches, PhraseMatch{
			RunID:        rec.ID,
			PhraseIdx:    m.Index,
			Text:         m.Phrase.Text,
			StartMs:      m.Phrase.StartTimeMs,
			EndMs:        m.Phrase.EndTimeMs,
			AnchorMs:     m.AnchorMs,
			KeyframeMs:   m.KeyframeMs,
			KeyframeFile: m.KeyframeFile,
		})
	}

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run := Run{
			ID:        rec.ID,
			Video:     rec.Video,
			OutputDir: rec.OutputDir,
			Prefix:    rec.Prefix,
			Format:    rec.Format,
			DryRun:    rec.DryRun,
		}
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("creating run: %w", err)
		}
		if len(keyframes) > 0 {
			if err := tx.CreateInBatches(keyframes, 500).Error; err != nil {
				return fmt.Errorf("batch insert keyframes: %w", err)
			}
		}
		if len(matches) > 0 {
			if err := tx.CreateInBatches(matches, 500).Error; err != nil {
				return fmt.Errorf("batch insert phrase matches: %w", err)
			}
		}
		return nil
	})
}

// GetRun returns a recorded run
func (c *Catalog) GetRun(ctx context.Context, id string) (*Run, error) {
	if c == nil || c.db == nil {
		return nil, errors.New(errCatalogNil)
	}
	var run Run
	if err := c.db.WithContext(ctx).Where("id = ?", id).First(&run).Error; err != nil {
		return nil, fmt.Errorf("querying run %s: %w", id, err)
	}
	return &run, nil
}

// Keyframes returns a run's keyframes in discovery order
func (c *Catalog) Keyframes(ctx context.Context, runID string) ([]Keyframe, error) {
	if c == nil || c.db == nil {
		return nil, errors.New(errCatalogNil)
	}
	var rows []Keyframe
	if err := c.db.WithContext(ctx).Where("run_id = ?", runID).Order("position").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying keyframes: %w", err)
	}
	return rows, nil
}

// Matches returns a run's phrase matches in transcript order
func (c *Catalog) Matches(ctx context.Context, runID string) ([]PhraseMatch, error) {
	if c == nil || c.db == nil {
		return nil, errors.New(errCatalogNil)
	}
	var rows []PhraseMatch
	if err := c.db.WithContext(ctx).Where("run_id = ?", runID).Order("phrase_idx").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying phrase matches: %w", err)
	}
	return rows, nil
}
