package chapters

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/snarg/chaptr/internal/transcript"
)

// Format renders a chapter set as "HH:MM:SS Title" lines, one per chapter,
// in set order with no trailing newline.
//
// Entries that would produce an invalid listing (negative time, time not after
// the previous emitted entry, or a blank title) are skipped with a warning.
func Format(set Set, log zerolog.Logger) string {
	var b strings.Builder
	emitted := 0
	var prev Chapter
	for i, c := range set {
		title := strings.Join(strings.Fields(c.Title), " ")
		var reason string
		switch {
		case c.Time < 0:
			reason = "negative time"
		case emitted > 0 && c.Time <= prev.Time:
			reason = "out of order"
		case title == "":
			reason = "empty title"
		}
		if reason != "" {
			log.Warn().Int("index", i).Str("reason", reason).Msg("skipping malformed chapter")
			continue
		}
		if emitted > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(transcript.Clock(c.Time))
		b.WriteByte(' ')
		b.WriteString(title)
		prev = c
		emitted++
	}
	return b.String()
}

// Document is the full exported artifact for one video.
type Document struct {
	Titles   []string
	Chapters Set
	Tags     string
}

// RenderDocument writes the plain-text export: suggested titles, the chapter
// listing, and tags. Sections with no content are omitted.
func RenderDocument(doc Document, log zerolog.Logger) string {
	var sections []string
	if len(doc.Titles) > 0 {
		var b strings.Builder
		b.WriteString("SUGGESTED TITLES:")
		for i, t := range doc.Titles {
			fmt.Fprintf(&b, "\n%d. %s", i+1, t)
		}
		sections = append(sections, b.String())
	}
	sections = append(sections, "CHAPTERS:\n"+Format(doc.Chapters, log))
	if tags := strings.TrimSpace(doc.Tags); tags != "" {
		sections = append(sections, "YOUTUBE TAGS:\n"+tags)
	}
	return strings.Join(sections, "\n\n\n") + "\n"
}

// MarshalDocument renders doc as indented JSON.
func MarshalDocument(doc Document) ([]byte, error) {
	out := struct {
		Titles   []string `json:"titles,omitempty"`
		Chapters Set      `json:"chapters"`
		Tags     string   `json:"tags,omitempty"`
	}{doc.Titles, doc.Chapters, doc.Tags}
	return json.MarshalIndent(out, "", "  ")
}

// UnmarshalDocument parses JSON written by MarshalDocument.
func UnmarshalDocument(data []byte) (Document, error) {
	var in struct {
		Titles   []string `json:"titles"`
		Chapters Set      `json:"chapters"`
		Tags     string   `json:"tags"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return Document{}, fmt.Errorf("decode chapter document: %w", err)
	}
	return Document{Titles: in.Titles, Chapters: in.Chapters, Tags: in.Tags}, nil
}
