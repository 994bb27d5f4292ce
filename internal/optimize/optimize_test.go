package optimize

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/chaptr/internal/chapters"
	"github.com/snarg/chaptr/internal/segment"
	"github.com/snarg/chaptr/internal/transcript"
)

func sample() (transcript.Transcript, chapters.Set) {
	tr := transcript.Transcript{Segments: []transcript.Segment{
		{Start: 0, End: 30 * time.Second, Text: "welcome to the review"},
		{Start: 30 * time.Second, End: 60 * time.Second, Text: "cardiology basics"},
	}}
	set := chapters.Set{{Time: 0, Title: "Introduction"}, {Time: 30 * time.Second, Title: "Cardiology"}}
	return tr, set
}

func TestSuggest(t *testing.T) {
	var prompts []string
	p := segment.ProviderFunc(func(ctx context.Context, req segment.Request) (string, error) {
		prompts = append(prompts, req.Prompt)
		if strings.Contains(req.System, "hashtags") {
			return "#Cardiology #StudyGuide, #cardiology #Step1", nil
		}
		return "1. Study Guide - Cardiology, Renal, Pulm\n2) \"Heart Review for Boards\"\nshort\n#NotATitle\n", nil
	})
	s := NewSuggester(Options{Provider: p, Log: zerolog.Nop()})
	tr, set := sample()
	got := s.Suggest(context.Background(), tr, set)

	wantTitles := []string{"Study Guide - Cardiology, Renal, Pulm", "Heart Review for Boards"}
	if !reflect.DeepEqual(got.Titles, wantTitles) {
		t.Errorf("titles = %q, want %q", got.Titles, wantTitles)
	}
	if got.Tags != "#Cardiology #StudyGuide #Step1" {
		t.Errorf("tags = %q", got.Tags)
	}
	if len(prompts) != 2 || !strings.Contains(prompts[0], "00:00:30 Cardiology") || !strings.Contains(prompts[0], "[00:00:30] cardiology basics") {
		t.Errorf("prompt missing chapters or transcript: %q", prompts)
	}
}

func TestSuggestDefaults(t *testing.T) {
	tr, set := sample()
	failing := segment.ProviderFunc(func(ctx context.Context, req segment.Request) (string, error) {
		return "", errors.New("boom")
	})
	empty := segment.ProviderFunc(func(ctx context.Context, req segment.Request) (string, error) {
		return "ok\n", nil
	})
	for name, p := range map[string]segment.Provider{"error": failing, "unusable": empty, "nil": nil} {
		t.Run(name, func(t *testing.T) {
			got := NewSuggester(Options{Provider: p, Log: zerolog.Nop()}).Suggest(context.Background(), tr, set)
			if !reflect.DeepEqual(got.Titles, DefaultTitles) {
				t.Errorf("titles = %q", got.Titles)
			}
			if got.Tags != DefaultTags {
				t.Errorf("tags = %q", got.Tags)
			}
		})
	}
}

func TestSuggestBoundsHungProvider(t *testing.T) {
	tr, set := sample()
	var withDeadline int
	hung := segment.ProviderFunc(func(ctx context.Context, req segment.Request) (string, error) {
		if _, ok := ctx.Deadline(); ok {
			withDeadline++
		}
		<-ctx.Done()
		return "", ctx.Err()
	})
	s := NewSuggester(Options{Provider: hung, CallTimeout: 50 * time.Millisecond, Log: zerolog.Nop()})

	start := time.Now()
	got := s.Suggest(context.Background(), tr, set)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Suggest took %v, want bounded by the call timeout", elapsed)
	}
	if withDeadline != 2 {
		t.Errorf("calls with a deadline = %d, want 2", withDeadline)
	}
	if !reflect.DeepEqual(got.Titles, DefaultTitles) || got.Tags != DefaultTags {
		t.Errorf("got %+v, want defaults", got)
	}
}

func TestCleanTitlesKeepsFive(t *testing.T) {
	text := strings.Repeat("A reasonably long title\n", 8)
	if got := CleanTitles(text); len(got) != 5 {
		t.Errorf("len = %d, want 5", len(got))
	}
}
