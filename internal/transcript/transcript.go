package transcript

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Segment is a timestamped span of transcribed speech.
type Segment struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}

// Transcript is an ordered sequence of segments with non-decreasing start times.
// It is produced once by Normalize and treated as read-only afterwards; stages
// that need a different view (Sample) build a new Transcript.
type Transcript struct {
	Segments []Segment
}

// Len returns the number of segments.
func (t Transcript) Len() int { return len(t.Segments) }

// Duration returns the largest segment end time.
func (t Transcript) Duration() time.Duration {
	var max time.Duration
	for _, s := range t.Segments {
		if s.End > max {
			max = s.End
		}
	}
	return max
}

// Clone returns a copy that shares no backing array with t.
func (t Transcript) Clone() Transcript {
	segs := make([]Segment, len(t.Segments))
	copy(segs, t.Segments)
	return Transcript{Segments: segs}
}

// IndexAtOrBefore returns the index of the segment with the greatest start
// that is <= at, or -1 when at precedes every segment.
func (t Transcript) IndexAtOrBefore(at time.Duration) int {
	// First index whose start is strictly greater than at.
	i := sort.Search(len(t.Segments), func(i int) bool {
		return t.Segments[i].Start > at
	})
	return i - 1
}

// HasStart reports whether some segment starts exactly at d.
func (t Transcript) HasStart(d time.Duration) bool {
	i := t.IndexAtOrBefore(d)
	return i >= 0 && t.Segments[i].Start == d
}

// Line renders a segment the way it is presented to the segmentation engine:
// "[HH:MM:SS] text\n".
func Line(s Segment) string {
	return "[" + Clock(s.Start) + "] " + s.Text + "\n"
}

// LineSize is the budget cost of a segment, in characters.
func LineSize(s Segment) int {
	return utf8.RuneCountInString(Line(s))
}

// Serialize renders every segment with Line.
func (t Transcript) Serialize() string {
	var b strings.Builder
	for _, s := range t.Segments {
		b.WriteString(Line(s))
	}
	return b.String()
}

// Size is the total budget cost of the transcript.
func (t Transcript) Size() int {
	n := 0
	for _, s := range t.Segments {
		n += LineSize(s)
	}
	return n
}

// Clock formats d as zero-padded HH:MM:SS, truncating sub-second precision.
// Negative durations render as 00:00:00.
func Clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// ParseClock parses "HH:MM:SS", "MM:SS" (each optionally with a fractional
// second using '.' or ','), or a plain number of seconds.
func ParseClock(s string) (time.Duration, error) {
	secs, err := parseClockSeconds(s)
	if err != nil {
		return 0, err
	}
	return Seconds(secs), nil
}

func parseClockSeconds(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}

	var total float64
	for i, p := range parts {
		p = strings.Replace(p, ",", ".", 1)
		last := i == len(parts)-1
		if last {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil || v < 0 {
				return 0, fmt.Errorf("invalid timestamp %q", s)
			}
			total = total*60 + v
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		total = total*60 + float64(v)
	}
	return total, nil
}

// Seconds converts a float number of seconds to a Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
