package transcript

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// timingLineRe matches a WebVTT or SRT cue timing line, capturing both
// timestamps. Hours are optional in WebVTT; SRT uses ',' before milliseconds.
var timingLineRe = regexp.MustCompile(`^\s*((?:\d+:)?\d{1,2}:\d{2}[.,]\d{1,3})\s*-->\s*((?:\d+:)?\d{1,2}:\d{2}[.,]\d{1,3})`)

// htmlTagRe matches inline markup found in captions (<c>, <i>, <00:00:01.000>, ...).
var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// ParseCaptions reads WebVTT or SRT captions into raw cues.
//
// Header, NOTE, STYLE and REGION blocks and cue identifiers are skipped and
// inline tags are stripped. Auto-generated captions repeat the previous cue's
// line at the top of each new cue; such rolling duplicates are removed, and a
// cue left with no new text is dropped.
func ParseCaptions(r io.Reader) ([]RawCue, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var (
		cues     []RawCue
		inCue    bool
		cur      RawCue
		lines    []string
		prevLine string
	)

	flush := func() {
		if !inCue {
			return
		}
		var fresh []string
		for _, l := range lines {
			if l == prevLine {
				continue
			}
			fresh = append(fresh, l)
			prevLine = l
		}
		if len(fresh) > 0 {
			cur.Text = strings.Join(fresh, " ")
			cues = append(cues, cur)
		}
		inCue = false
		cur = RawCue{}
		lines = nil
	}

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if m := timingLineRe.FindStringSubmatch(line); m != nil {
			flush()
			inCue = true
			cur = RawCue{Start: clockSeconds(m[1]), End: clockSeconds(m[2])}
			continue
		}
		if !inCue {
			// WEBVTT header, NOTE/STYLE blocks, cue identifiers.
			continue
		}
		text := strings.TrimSpace(htmlTagRe.ReplaceAllString(line, ""))
		if text != "" {
			lines = append(lines, text)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read captions: %w", err)
	}
	flush()
	return cues, nil
}

func clockSeconds(s string) *float64 {
	v, err := parseClockSeconds(s)
	if err != nil {
		return nil
	}
	return &v
}
