package pipeline

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/chaptr/internal/chapters"
	"github.com/snarg/chaptr/internal/segment"
	"github.com/snarg/chaptr/internal/transcript"
)

func threeTopicCues() []transcript.RawCue {
	return []transcript.RawCue{
		transcript.Cue(0, 30, "intro"),
		transcript.Cue(30, 95, "topicA"),
		transcript.Cue(95, 140, "topicB"),
	}
}

func reply(text string) segment.Provider {
	return segment.ProviderFunc(func(ctx context.Context, req segment.Request) (string, error) {
		return text, nil
	})
}

func blocking(calls *atomic.Int32) segment.Provider {
	return segment.ProviderFunc(func(ctx context.Context, req segment.Request) (string, error) {
		calls.Add(1)
		<-ctx.Done()
		return "", ctx.Err()
	})
}

func testConfig(k int) RunConfig {
	cfg := DefaultRunConfig()
	cfg.ChapterCount = k
	return cfg
}

func TestRunAlignsEngineCandidates(t *testing.T) {
	r := NewRunner(Options{
		Provider: reply(`{"chapters": [
			{"timestamp": "00:00:02", "title": "Intro"},
			{"timestamp": "00:00:31", "title": "Topic A"},
			{"timestamp": "00:01:36", "title": "Topic B"}]}`),
		Log: zerolog.Nop(),
	})
	res, err := r.Run(context.Background(), threeTopicCues(), VideoMetadata{Title: "demo"}, testConfig(3))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := chapters.Set{
		{Time: 0, Title: "Introduction"},
		{Time: 30 * time.Second, Title: "Topic A"},
		{Time: 95 * time.Second, Title: "Topic B"},
	}
	if !reflect.DeepEqual(res.Chapters, want) {
		t.Errorf("chapters = %+v, want %+v", res.Chapters, want)
	}
	if res.Source != SourceEngine || res.FallbackReason != "" {
		t.Errorf("source = %s (%s), want engine", res.Source, res.FallbackReason)
	}
}

func TestRunFallsBackAfterRepeatedTimeouts(t *testing.T) {
	var calls atomic.Int32
	r := NewRunner(Options{Provider: blocking(&calls), Log: zerolog.Nop()})
	cfg := testConfig(3)
	cfg.SegmentTimeout = 20 * time.Millisecond

	res, err := r.Run(context.Background(), threeTopicCues(), VideoMetadata{}, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("provider calls = %d, want 3", calls.Load())
	}
	if res.Source != SourceFallback || res.FallbackReason != ReasonSegmentationFailed {
		t.Errorf("source = %s (%s)", res.Source, res.FallbackReason)
	}
	want := chapters.Fallback(140*time.Second, 3, chapters.ModeGeneral)
	if !reflect.DeepEqual(res.Chapters, want) {
		t.Errorf("chapters = %+v, want %+v", res.Chapters, want)
	}
}

func TestRunEmptyTranscript(t *testing.T) {
	r := NewRunner(Options{Provider: reply(`{}`), Log: zerolog.Nop()})
	for _, raw := range [][]transcript.RawCue{nil, {transcript.Cue(0, 1, "   ")}} {
		res, err := r.Run(context.Background(), raw, VideoMetadata{}, testConfig(3))
		if !errors.Is(err, transcript.ErrEmptyTranscript) {
			t.Errorf("err = %v, want ErrEmptyTranscript", err)
		}
		if res != nil {
			t.Errorf("result = %+v, want nil", res)
		}
	}
}

func TestRunFallbackReasons(t *testing.T) {
	tests := []struct {
		name     string
		provider segment.Provider
		cfg      func(*RunConfig)
		reason   string
	}{
		{"no provider", nil, nil, ReasonNoProvider},
		{"budget exceeded", reply(`{}`), func(c *RunConfig) { c.BudgetLimit = 3 }, ReasonBudgetExceeded},
		{"malformed answers", reply("no json here"), nil, ReasonSegmentationFailed},
		{
			"alignment collapses",
			reply(`{"chapters": [{"timestamp": "00:00:01", "title": "A"}, {"timestamp": "00:00:05", "title": "B"}, {"timestamp": "00:00:10", "title": "C"}]}`),
			nil,
			ReasonAlignmentFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(3)
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			r := NewRunner(Options{Provider: tt.provider, Log: zerolog.Nop()})
			res, err := r.Run(context.Background(), threeTopicCues(), VideoMetadata{Duration: 150 * time.Second}, cfg)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if res.FallbackReason != tt.reason {
				t.Errorf("reason = %q, want %q", res.FallbackReason, tt.reason)
			}
			if len(res.Chapters) != 3 || res.Chapters[1].Time != 50*time.Second {
				t.Errorf("chapters = %+v, want fallback over metadata duration", res.Chapters)
			}
			if err := res.Chapters.Validate(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestRunTimeoutAbortsRun(t *testing.T) {
	var calls atomic.Int32
	r := NewRunner(Options{Provider: blocking(&calls), Log: zerolog.Nop()})
	cfg := testConfig(3)
	cfg.SegmentTimeout = 0
	cfg.RunTimeout = 30 * time.Millisecond

	res, err := r.Run(context.Background(), threeTopicCues(), VideoMetadata{}, cfg)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
	if res != nil {
		t.Errorf("partial result returned: %+v", res)
	}
}

func TestRunCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(Options{Provider: reply(`{}`), Log: zerolog.Nop()})
	if _, err := r.Run(ctx, threeTopicCues(), VideoMetadata{}, testConfig(3)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want Canceled", err)
	}
}

func TestRunConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RunConfig)
		ok     bool
	}{
		{"defaults", func(*RunConfig) {}, true},
		{"qa mode", func(c *RunConfig) { c.Mode = chapters.ModeQA }, true},
		{"qa mode two chapters", func(c *RunConfig) { c.Mode, c.ChapterCount = chapters.ModeQA, 2 }, true},
		{"qa mode one chapter", func(c *RunConfig) { c.Mode, c.ChapterCount = chapters.ModeQA, 1 }, false},
		{"zero chapters", func(c *RunConfig) { c.ChapterCount = 0 }, false},
		{"zero budget", func(c *RunConfig) { c.BudgetLimit = 0 }, false},
		{"negative gap", func(c *RunConfig) { c.MinGap = -time.Second }, false},
		{"negative retries", func(c *RunConfig) { c.MaxRetries = -1 }, false},
		{"zero title words", func(c *RunConfig) { c.MaxTitleWords = 0 }, false},
		{"unknown mode", func(c *RunConfig) { c.Mode = "podcast" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRunConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
