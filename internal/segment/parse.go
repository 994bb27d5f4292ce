package segment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/snarg/chaptr/internal/chapters"
	"github.com/snarg/chaptr/internal/transcript"
)

type responseChapter struct {
	Timestamp json.RawMessage `json:"timestamp"`
	Title     json.RawMessage `json:"title"`
}

// ParseResponse extracts chapter candidates from a provider answer. The
// answer may wrap the JSON object in prose or code fences; the outermost
// braces are decoded. Entries with unreadable timestamps are skipped.
func ParseResponse(text string, maxWords int) ([]chapters.Candidate, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var doc struct {
		Chapters []responseChapter `json:"chapters"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &doc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if doc.Chapters == nil {
		return nil, fmt.Errorf("response has no chapters list")
	}

	out := make([]chapters.Candidate, 0, len(doc.Chapters))
	for _, rc := range doc.Chapters {
		secs, ok := decodeTimestamp(rc.Timestamp)
		if !ok {
			continue
		}
		var title string
		_ = json.Unmarshal(rc.Title, &title)
		out = append(out, chapters.Candidate{
			At:    transcript.Seconds(secs),
			Title: SanitizeTitle(title, maxWords),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("response has no usable chapters")
	}
	return out, nil
}

func decodeTimestamp(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		d, err := transcript.ParseClock(s)
		if err != nil {
			return 0, false
		}
		return d.Seconds(), true
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// SanitizeTitle keeps letters, digits, apostrophes and hyphens, collapses
// whitespace, and truncates to maxWords words (no limit when maxWords <= 0).
func SanitizeTitle(s string, maxWords int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-' {
			return r
		}
		return ' '
	}, s)
	words := strings.Fields(cleaned)
	if maxWords > 0 && len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}
