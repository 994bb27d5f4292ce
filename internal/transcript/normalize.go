package transcript

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrEmptyTranscript is returned when no usable segment survives normalization.
// Without any transcript there is nothing to segment, so it is fatal to a run.
var ErrEmptyTranscript = errors.New("empty transcript")

// Normalize converts raw cues of any granularity into a canonical Transcript.
//
// Cues with a missing, non-finite, or negative start are dropped, as are cues
// with no text; each drop is logged as a warning. A missing end is filled with
// the next cue's start (or the cue's own start for the last one) and an end
// before its start is clamped. The result is stable-sorted by start time.
func Normalize(raw []RawCue, log zerolog.Logger) (Transcript, error) {
	if len(raw) == 0 {
		return Transcript{}, ErrEmptyTranscript
	}

	type pending struct {
		start  float64
		end    float64
		hasEnd bool
		text   string
	}

	kept := make([]pending, 0, len(raw))
	dropped := 0
	for i, c := range raw {
		if !validSeconds(c.Start) {
			log.Warn().Int("index", i).Str("reason", "missing or invalid start").Msg("dropping transcript cue")
			dropped++
			continue
		}
		text := strings.Join(strings.Fields(c.Text), " ")
		if text == "" {
			log.Warn().Int("index", i).Str("reason", "empty text").Msg("dropping transcript cue")
			dropped++
			continue
		}
		p := pending{start: *c.Start, text: text}
		if c.End != nil && !math.IsNaN(*c.End) && *c.End <= maxSeconds {
			p.end = *c.End
			p.hasEnd = true
		}
		kept = append(kept, p)
	}

	if len(kept) == 0 {
		log.Warn().Int("dropped", dropped).Msg("no usable cues in transcript")
		return Transcript{}, ErrEmptyTranscript
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].start < kept[j].start })

	segs := make([]Segment, len(kept))
	for i, p := range kept {
		end := p.end
		if !p.hasEnd {
			end = p.start
			if i+1 < len(kept) {
				end = kept[i+1].start
			}
		}
		if end < p.start {
			end = p.start
		}
		segs[i] = Segment{
			Start: toDuration(p.start),
			End:   toDuration(end),
			Text:  p.text,
		}
	}

	if dropped > 0 {
		log.Info().Int("kept", len(segs)).Int("dropped", dropped).Msg("transcript normalized with drops")
	}
	return Transcript{Segments: segs}, nil
}

// maxSeconds is the largest time toDuration can represent without overflow.
var maxSeconds = float64(math.MaxInt64/int64(time.Millisecond)-1) / 1000

func validSeconds(v *float64) bool {
	if v == nil {
		return false
	}
	return !math.IsNaN(*v) && *v >= 0 && *v <= maxSeconds
}

// toDuration rounds to the millisecond so float noise from providers
// (e.g. 29.999999) does not shift segment boundaries.
func toDuration(secs float64) time.Duration {
	return time.Duration(math.Round(secs*1000)) * time.Millisecond
}
