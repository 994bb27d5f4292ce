package transcribe

import (
	"strings"

	"github.com/snarg/chaptr/internal/transcript"
)

const (
	// maxPause splits word-level output into separate cues.
	maxPause = 1.0
	// maxCueWords bounds a cue when the speaker never pauses or ends a sentence.
	maxCueWords = 40
)

// Cues converts the response into raw transcript cues. Segment-level output
// is used as is; word-level output is grouped into sentence-sized cues,
// breaking after terminal punctuation or a pause longer than a second. A
// response with neither yields one cue spanning the whole audio.
func (r *Response) Cues() []transcript.RawCue {
	if len(r.Segments) > 0 {
		cues := make([]transcript.RawCue, 0, len(r.Segments))
		for _, s := range r.Segments {
			cues = append(cues, transcript.Cue(s.Start, s.End, s.Text))
		}
		return cues
	}
	if len(r.Words) > 0 {
		return groupWords(r.Words)
	}
	if text := strings.TrimSpace(r.Text); text != "" {
		return []transcript.RawCue{transcript.Cue(0, r.Duration, text)}
	}
	return nil
}

func groupWords(words []Word) []transcript.RawCue {
	var cues []transcript.RawCue
	var cur []string
	var start, end float64

	flush := func() {
		if len(cur) > 0 {
			cues = append(cues, transcript.Cue(start, end, strings.Join(cur, " ")))
		}
		cur = cur[:0]
	}

	for i, w := range words {
		tok := strings.TrimSpace(w.Word)
		if tok == "" {
			continue
		}
		if len(cur) > 0 && w.Start-end > maxPause {
			flush()
		}
		if len(cur) == 0 {
			start = w.Start
		}
		cur = append(cur, tok)
		end = w.End

		last := i == len(words)-1
		if last || endsSentence(tok) || len(cur) >= maxCueWords {
			flush()
		}
	}
	flush()
	return cues
}

func endsSentence(tok string) bool {
	tok = strings.TrimRight(tok, `"')]`)
	return strings.HasSuffix(tok, ".") || strings.HasSuffix(tok, "?") || strings.HasSuffix(tok, "!")
}
