package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/chaptr/internal/chapters"
	"github.com/snarg/chaptr/internal/metrics"
	"github.com/snarg/chaptr/internal/segment"
	"github.com/snarg/chaptr/internal/transcript"
)

// Source records which stage produced a result's chapters.
type Source string

const (
	SourceEngine   Source = "engine"
	SourceFallback Source = "fallback"
)

// Fallback reasons reported in Result.FallbackReason.
const (
	ReasonNoProvider         = "no_provider"
	ReasonBudgetExceeded     = "budget_exceeded"
	ReasonSegmentationFailed = "segmentation_failed"
	ReasonAlignmentFailed    = "alignment_failed"
)

// VideoMetadata is what the caller knows about the video besides its
// transcript. A zero Duration means unknown; the transcript's end is used.
type VideoMetadata struct {
	Title    string
	Duration time.Duration
}

// Result is the outcome of a successful run.
type Result struct {
	Chapters       chapters.Set
	Source         Source
	FallbackReason string
	Duration       time.Duration // D used for fallback spacing
	Segments       int           // segments after normalization
	Elapsed        time.Duration
	// Transcript is the normalized transcript the chapters were aligned to.
	Transcript transcript.Transcript
}

// Options configures a Runner.
type Options struct {
	// Provider backs the segmentation engine. nil sends every run straight
	// to evenly spaced chapters.
	Provider segment.Provider
	Log      zerolog.Logger
}

// Runner executes chapter runs. It holds no per-run state and is safe for
// concurrent use.
type Runner struct {
	provider segment.Provider
	log      zerolog.Logger
}

func NewRunner(opts Options) *Runner {
	return &Runner{
		provider: opts.Provider,
		log:      opts.Log.With().Str("component", "pipeline").Logger(),
	}
}

// Run turns a raw transcript into a chapter set.
//
// The only errors are transcript.ErrEmptyTranscript, an invalid cfg, and the
// context error when ctx is cancelled or cfg.RunTimeout elapses. Every other
// failure falls back to evenly spaced chapters and is reported in
// Result.FallbackReason.
func (r *Runner) Run(ctx context.Context, raw []transcript.RawCue, meta VideoMetadata, cfg RunConfig) (*Result, error) {
	start := time.Now()
	if err := cfg.Validate(); err != nil {
		metrics.RunsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("invalid run config: %w", err)
	}
	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}

	log := r.log.With().Str("video", meta.Title).Logger()

	tr, err := transcript.Normalize(raw, log)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("empty").Inc()
		return nil, err
	}

	d := meta.Duration
	if d <= 0 {
		d = tr.Duration()
	}
	res := &Result{Duration: d, Segments: tr.Len(), Transcript: tr}

	set, reason, err := r.segment(ctx, tr, cfg, log)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("cancelled").Inc()
		log.Warn().Err(err).Msg("chapter run aborted")
		return nil, err
	}
	if reason != "" {
		set = chapters.Fallback(d, cfg.ChapterCount, cfg.Mode)
		res.Source = SourceFallback
		res.FallbackReason = reason
		metrics.FallbacksTotal.WithLabelValues(reason).Inc()
	} else {
		res.Source = SourceEngine
	}
	res.Chapters = set
	res.Elapsed = time.Since(start)

	metrics.RunsTotal.WithLabelValues(string(res.Source)).Inc()
	metrics.RunDuration.Observe(res.Elapsed.Seconds())
	metrics.ChaptersEmitted.Observe(float64(len(set)))

	log.Info().
		Str("source", string(res.Source)).
		Str("fallback_reason", res.FallbackReason).
		Int("chapters", len(set)).
		Int("segments", res.Segments).
		Dur("elapsed", res.Elapsed).
		Msg("chapter run complete")
	return res, nil
}

// segment runs the engine and aligner. A non-empty reason means the caller
// should fall back; a non-nil error means the run was aborted.
func (r *Runner) segment(ctx context.Context, tr transcript.Transcript, cfg RunConfig, log zerolog.Logger) (chapters.Set, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if r.provider == nil {
		return nil, ReasonNoProvider, nil
	}

	engine := segment.NewEngine(segment.Options{
		Provider:      r.provider,
		Budget:        cfg.BudgetLimit,
		MaxRetries:    cfg.MaxRetries,
		CallTimeout:   cfg.SegmentTimeout,
		MaxTitleWords: cfg.MaxTitleWords,
		Log:           log,
		OnAttempt: func(result string) {
			metrics.EngineAttemptsTotal.WithLabelValues(result).Inc()
		},
	})

	cands, err := engine.Segment(ctx, tr, cfg.ChapterCount, cfg.Mode)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return nil, "", ctx.Err()
	case errors.Is(err, transcript.ErrBudgetExceeded):
		log.Warn().Err(err).Int("budget", cfg.BudgetLimit).Msg("transcript does not fit budget, using fallback chapters")
		return nil, ReasonBudgetExceeded, nil
	default:
		log.Warn().Err(err).Msg("segmentation failed, using fallback chapters")
		return nil, ReasonSegmentationFailed, nil
	}

	set, err := chapters.Align(cands, tr, chapters.AlignOptions{
		MinGap:    cfg.MinGap,
		Requested: cfg.ChapterCount,
	})
	if err != nil {
		log.Warn().Err(err).Int("candidates", len(cands)).Msg("alignment failed, using fallback chapters")
		return nil, ReasonAlignmentFailed, nil
	}
	return set, "", nil
}
