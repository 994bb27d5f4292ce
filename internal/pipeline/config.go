package pipeline

import (
	"fmt"
	"time"

	"github.com/snarg/chaptr/internal/chapters"
)

// RunConfig holds the per-run options threaded through every stage.
type RunConfig struct {
	ChapterCount   int
	Mode           chapters.Mode
	BudgetLimit    int
	MinGap         time.Duration
	MaxRetries     int
	MaxTitleWords  int
	SegmentTimeout time.Duration // per provider call
	RunTimeout     time.Duration // whole run; 0 = caller's context only
}

// DefaultRunConfig returns the defaults used when no configuration is given.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		ChapterCount:   10,
		Mode:           chapters.ModeGeneral,
		BudgetLimit:    24000,
		MinGap:         30 * time.Second,
		MaxRetries:     2,
		MaxTitleWords:  4,
		SegmentTimeout: 2 * time.Minute,
		RunTimeout:     10 * time.Minute,
	}
}

// Validate rejects option values no stage can work with.
func (c RunConfig) Validate() error {
	if c.ChapterCount < 1 {
		return fmt.Errorf("chapter count must be at least 1, got %d", c.ChapterCount)
	}
	if c.BudgetLimit < 1 {
		return fmt.Errorf("budget limit must be at least 1, got %d", c.BudgetLimit)
	}
	if c.MinGap < 0 {
		return fmt.Errorf("min gap must not be negative, got %s", c.MinGap)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("max retries must be between 0 and 10, got %d", c.MaxRetries)
	}
	if c.MaxTitleWords < 1 {
		return fmt.Errorf("max title words must be at least 1, got %d", c.MaxTitleWords)
	}
	if c.SegmentTimeout < 0 || c.RunTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	switch c.Mode {
	case chapters.ModeGeneral, chapters.ModeQA:
	default:
		return fmt.Errorf("unknown chapter mode %q", c.Mode)
	}
	if c.Mode == chapters.ModeQA && c.ChapterCount < 2 {
		return fmt.Errorf("qa mode needs at least 2 chapters (introduction and closing), got %d", c.ChapterCount)
	}
	return nil
}
