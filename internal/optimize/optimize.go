// Package optimize suggests publishable video titles and hashtags from a
// transcript and its chapters. Failures never surface as errors: callers get
// generic defaults instead.
package optimize

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/snarg/chaptr/internal/chapters"
	"github.com/snarg/chaptr/internal/segment"
	"github.com/snarg/chaptr/internal/transcript"
)

const maxTitles = 5

var errNoProvider = errors.New("no provider configured")

// DefaultTitles are returned when title generation fails.
var DefaultTitles = []string{
	"Complete Educational Guide",
	"Everything You Need to Know",
	"Master the Basics",
	"Essential Review",
	"Ultimate Study Guide",
}

// DefaultTags is returned when tag generation fails.
const DefaultTags = "#EducationalContent #Tutorial #Learning"

// Suggestions holds generated titles and a space-separated hashtag line.
type Suggestions struct {
	Titles []string
	Tags   string
}

// Options configures a Suggester.
type Options struct {
	Provider segment.Provider
	Budget   int // transcript sample ceiling per prompt
	// CallTimeout bounds each provider call (default 2m).
	CallTimeout time.Duration
	Log         zerolog.Logger
}

// Suggester asks a Provider for titles and tags.
type Suggester struct {
	provider segment.Provider
	budget   int
	timeout  time.Duration
	log      zerolog.Logger
}

func NewSuggester(opts Options) *Suggester {
	if opts.Budget <= 0 {
		opts.Budget = 12000
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 2 * time.Minute
	}
	return &Suggester{
		provider: opts.Provider,
		budget:   opts.Budget,
		timeout:  opts.CallTimeout,
		log:      opts.Log.With().Str("component", "optimize").Logger(),
	}
}

// Suggest generates titles and tags. Each half falls back to its defaults
// independently.
func (s *Suggester) Suggest(ctx context.Context, tr transcript.Transcript, set chapters.Set) Suggestions {
	return Suggestions{
		Titles: s.Titles(ctx, tr, set),
		Tags:   s.Tags(ctx, tr, set),
	}
}

// Titles returns up to five title suggestions.
func (s *Suggester) Titles(ctx context.Context, tr transcript.Transcript, set chapters.Set) []string {
	text, err := s.ask(ctx, tr, set,
		"Generate YouTube titles optimized for educational content engagement and search.",
		titlesInstructions)
	if err != nil {
		s.log.Warn().Err(err).Msg("title generation failed, using defaults")
		return append([]string(nil), DefaultTitles...)
	}
	titles := CleanTitles(text)
	if len(titles) == 0 {
		s.log.Warn().Msg("title generation returned nothing usable, using defaults")
		return append([]string(nil), DefaultTitles...)
	}
	return titles
}

// Tags returns a space-separated hashtag line.
func (s *Suggester) Tags(ctx context.Context, tr transcript.Transcript, set chapters.Set) string {
	text, err := s.ask(ctx, tr, set,
		"Generate YouTube hashtags optimized for search discovery.",
		tagsInstructions)
	if err != nil {
		s.log.Warn().Err(err).Msg("tag generation failed, using defaults")
		return DefaultTags
	}
	tags := CleanTags(text)
	if tags == "" {
		return DefaultTags
	}
	return tags
}

const titlesInstructions = `Create 5 titles that:
1. List the main topics covered, separated by commas
2. Include specific topics taken from the chapter titles
3. Stay under 100 characters
4. Sound comprehensive and high-yield

Output exactly 5 titles, one per line.`

const tagsInstructions = `Generate 15-20 hashtags that are:
1. Highly relevant to the content
2. A mix of broad and specific terms
3. Optimized for search discovery

Output format: #tag1 #tag2 #tag3 (space-separated hashtags)`

func (s *Suggester) ask(ctx context.Context, tr transcript.Transcript, set chapters.Set, system, instructions string) (string, error) {
	if s.provider == nil {
		return "", errNoProvider
	}
	sampled, err := transcript.Sample(tr, s.budget)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Analyze this video content.\n\nCHAPTERS:\n")
	b.WriteString(chapters.Format(set, s.log))
	b.WriteString("\n\nTRANSCRIPT SAMPLE:\n")
	b.WriteString(sampled.Serialize())
	b.WriteString("\n")
	b.WriteString(instructions)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.provider.Summarize(callCtx, segment.Request{System: system, Prompt: b.String()})
}

var numberingRe = regexp.MustCompile(`^(?:\d+[.)]|[-*•])\s*`)

// CleanTitles splits a model answer into titles: numbering and quotes are
// stripped, hashtag lines and lines of 10 characters or fewer are dropped,
// and at most five are kept.
func CleanTitles(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = numberingRe.ReplaceAllString(line, "")
		line = strings.Trim(line, `"'`)
		if utf8.RuneCountInString(line) <= 10 {
			continue
		}
		out = append(out, line)
		if len(out) == maxTitles {
			break
		}
	}
	return out
}

// CleanTags keeps the hashtag words of a model answer, deduplicated, in
// order of first appearance.
func CleanTags(text string) string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range strings.Fields(text) {
		f = strings.TrimRight(f, ",.;")
		if len(f) < 2 || f[0] != '#' || seen[strings.ToLower(f)] {
			continue
		}
		seen[strings.ToLower(f)] = true
		out = append(out, f)
	}
	return strings.Join(out, " ")
}
