package chapters

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/snarg/chaptr/internal/transcript"
)

// ErrAlignmentFailed is returned when too few chapters survive alignment.
var ErrAlignmentFailed = errors.New("chapter alignment failed")

// AlignOptions configures Align.
type AlignOptions struct {
	// MinGap is the smallest allowed distance between consecutive chapters.
	MinGap time.Duration
	// Requested is the chapter count K asked of the engine. The result is
	// capped at K and must hold at least half of it.
	Requested int
}

// Align snaps candidates onto transcript segment boundaries.
//
// Candidates are sorted by time and each one moves to the start of the last
// segment beginning at or before it (0 when it precedes every segment). The
// set always opens with an Introduction chapter at 0; a candidate that lands
// on or before the previous chapter, or closer to it than MinGap, is merged
// into it and its title discarded.
func Align(cands []Candidate, tr transcript.Transcript, opts AlignOptions) (Set, error) {
	sorted := make([]Candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At < sorted[j].At })

	out := Set{{Time: 0, Title: IntroTitle}}
	for _, c := range sorted {
		at := snap(tr, c.At)
		prev := out[len(out)-1].Time
		if at <= prev || at-prev < opts.MinGap {
			continue
		}
		title := strings.TrimSpace(c.Title)
		if title == "" {
			title = fmt.Sprintf("Chapter %d", len(out)+1)
		}
		out = append(out, Chapter{Time: at, Title: title})
	}

	if opts.Requested > 0 && len(out) > opts.Requested {
		out = out[:opts.Requested]
	}

	if len(out) < 2 || len(out)*2 < opts.Requested {
		return nil, fmt.Errorf("%w: %d of %d chapters survived", ErrAlignmentFailed, len(out), opts.Requested)
	}
	return out, nil
}

func snap(tr transcript.Transcript, at time.Duration) time.Duration {
	i := tr.IndexAtOrBefore(at)
	if i < 0 {
		return 0
	}
	return tr.Segments[i].Start
}
