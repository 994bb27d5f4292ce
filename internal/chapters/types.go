package chapters

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/snarg/chaptr/internal/transcript"
)

// IntroTitle is the title of the mandatory opening chapter.
const IntroTitle = "Introduction"

// Mode selects the structural chapter template.
type Mode string

const (
	// ModeGeneral places chapters wherever a new topic is introduced.
	ModeGeneral Mode = "general"
	// ModeQA expects an introduction, K-2 question segments, and a closing segment.
	ModeQA Mode = "qa"
)

// ParseMode converts a config string to a Mode. "questions" is accepted as
// an alias for qa.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "general":
		return ModeGeneral, nil
	case "qa", "questions":
		return ModeQA, nil
	default:
		return "", fmt.Errorf("unknown chapter mode %q (want general or qa)", s)
	}
}

// Candidate is an unvalidated chapter proposal from the segmentation engine.
// At may be out of range, out of order, or duplicated; Title may be empty.
type Candidate struct {
	At    time.Duration
	Title string
}

// Chapter is a validated chapter aligned to a transcript segment start.
type Chapter struct {
	Time  time.Duration
	Title string
}

// MarshalJSON renders a chapter for export with both numeric seconds and
// the HH:MM:SS form shown to viewers.
func (c Chapter) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TimeSeconds float64 `json:"time_seconds"`
		Timestamp   string  `json:"timestamp"`
		Title       string  `json:"title"`
	}{c.Time.Seconds(), transcript.Clock(c.Time), c.Title})
}

// UnmarshalJSON accepts the shape written by MarshalJSON.
func (c *Chapter) UnmarshalJSON(b []byte) error {
	var aux struct {
		TimeSeconds float64 `json:"time_seconds"`
		Title       string  `json:"title"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	c.Time = transcript.Seconds(aux.TimeSeconds)
	c.Title = aux.Title
	return nil
}

// Set is an ordered chapter list: strictly increasing times starting at 0.
type Set []Chapter

// Validate checks the ordering invariants of a chapter set.
func (s Set) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("chapter set is empty")
	}
	if s[0].Time != 0 {
		return fmt.Errorf("first chapter starts at %s, want 00:00:00", transcript.Clock(s[0].Time))
	}
	for i := 1; i < len(s); i++ {
		if s[i].Time <= s[i-1].Time {
			return fmt.Errorf("chapter %d at %v does not follow %v", i, s[i].Time, s[i-1].Time)
		}
	}
	return nil
}
