package segment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/chaptr/internal/chapters"
	"github.com/snarg/chaptr/internal/transcript"
)

// ErrSegmentationFailed is returned when every attempt failed or produced
// too few candidates.
var ErrSegmentationFailed = errors.New("segmentation failed")

// Attempt results reported to Options.OnAttempt.
const (
	ResultOK            = "ok"
	ResultProviderError = "provider_error"
	ResultTimeout       = "timeout"
	ResultParseError    = "parse_error"
	ResultTooFew        = "too_few"
)

// Options configures an Engine.
type Options struct {
	Provider      Provider
	Budget        int           // serialized transcript ceiling for the first attempt
	MaxRetries    int           // attempts = MaxRetries + 1
	CallTimeout   time.Duration // per provider call; 0 = no limit beyond ctx
	MaxTitleWords int
	Log           zerolog.Logger
	OnAttempt     func(result string)
}

// Engine asks a Provider for chapter candidates with bounded retries.
type Engine struct {
	opts Options
	log  zerolog.Logger
}

func NewEngine(opts Options) *Engine {
	return &Engine{
		opts: opts,
		log:  opts.Log.With().Str("component", "segment").Logger(),
	}
}

// Segment proposes chapter candidates for tr.
//
// Each retry shrinks the sample budget to three quarters of the previous
// attempt. Provider errors, call timeouts, unparsable answers, and answers
// with too few candidates all count as failed attempts; once retries are
// exhausted ErrSegmentationFailed is returned. A budget that cannot hold the
// first and last segment returns transcript.ErrBudgetExceeded without calling
// the provider. Cancellation of ctx aborts immediately with ctx.Err().
func (e *Engine) Segment(ctx context.Context, tr transcript.Transcript, k int, mode chapters.Mode) ([]chapters.Candidate, error) {
	if k < 1 {
		k = 1
	}
	var lastErr error
	attempts := 0
	for a := 0; a <= e.opts.MaxRetries; a++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		budget := attemptBudget(e.opts.Budget, a)
		sampled, err := transcript.Sample(tr, budget)
		if err != nil {
			if a == 0 {
				return nil, err
			}
			lastErr = err
			break
		}

		attempts++
		cands, result, err := e.attempt(ctx, sampled, tr.Duration(), k, mode)
		if e.opts.OnAttempt != nil {
			e.opts.OnAttempt(result)
		}
		if err == nil {
			e.log.Debug().
				Int("attempt", a).
				Int("budget", budget).
				Int("segments", sampled.Len()).
				Int("candidates", len(cands)).
				Msg("segmentation succeeded")
			return cands, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lastErr = err
		e.log.Warn().Err(err).
			Int("attempt", a).
			Int("budget", budget).
			Str("result", result).
			Str("provider", e.opts.Provider.Name()).
			Msg("segmentation attempt failed")
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrSegmentationFailed, attempts, lastErr)
}

func (e *Engine) attempt(ctx context.Context, sampled transcript.Transcript, duration time.Duration, k int, mode chapters.Mode) ([]chapters.Candidate, string, error) {
	callCtx := ctx
	if e.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.opts.CallTimeout)
		defer cancel()
	}

	text, err := e.opts.Provider.Summarize(callCtx, Request{
		System: systemPrompt,
		Prompt: buildPrompt(sampled.Serialize(), k, mode, e.opts.MaxTitleWords, duration),
		JSON:   true,
	})
	if err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, ResultTimeout, fmt.Errorf("provider call timed out after %s: %w", e.opts.CallTimeout, err)
		}
		return nil, ResultProviderError, err
	}

	cands, err := ParseResponse(text, e.opts.MaxTitleWords)
	if err != nil {
		return nil, ResultParseError, err
	}

	need := minCandidates(k, mode)
	if len(cands) < need {
		return nil, ResultTooFew, fmt.Errorf("got %d candidates, need at least %d of %d", len(cands), need, k)
	}
	if mode == chapters.ModeQA && len(cands) > k {
		cands = cands[:k]
	}
	return cands, ResultOK, nil
}

// minCandidates is half of k rounded up in general mode. Q&A answers must
// fill the intro, every question, and the closing slot.
func minCandidates(k int, mode chapters.Mode) int {
	if mode == chapters.ModeQA {
		return k
	}
	return (k + 1) / 2
}

// attemptBudget returns budget * 3^a / 4^a, never below 1.
func attemptBudget(budget, a int) int {
	num, den := int64(budget), int64(1)
	for i := 0; i < a; i++ {
		num *= 3
		den *= 4
	}
	return max(int(num/den), 1)
}
