package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// RawCue is one record of a raw timestamped transcript as supplied by a
// captions or speech-to-text collaborator. Times are seconds from the start
// of the media; nil means the value was missing or could not be read.
type RawCue struct {
	Start *float64
	End   *float64
	Text  string
}

// Cue builds a RawCue with both times set.
func Cue(start, end float64, text string) RawCue {
	return RawCue{Start: &start, End: &end, Text: text}
}

type rawCueJSON struct {
	Start json.RawMessage `json:"start"`
	End   json.RawMessage `json:"end,omitempty"`
	Text  json.RawMessage `json:"text"`
}

// UnmarshalJSON accepts start/end as numbers, numeric strings, or clock
// strings ("00:01:02.500"). Values that cannot be read decode to nil rather
// than failing the whole document; the Normalizer reports them.
func (c *RawCue) UnmarshalJSON(b []byte) error {
	var aux rawCueJSON
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	c.Start = decodeSeconds(aux.Start)
	c.End = decodeSeconds(aux.End)
	c.Text = ""
	if len(aux.Text) > 0 {
		var s string
		if err := json.Unmarshal(aux.Text, &s); err == nil {
			c.Text = s
		}
	}
	return nil
}

// MarshalJSON writes times as plain seconds and omits a missing end.
func (c RawCue) MarshalJSON() ([]byte, error) {
	out := struct {
		Start *float64 `json:"start"`
		End   *float64 `json:"end,omitempty"`
		Text  string   `json:"text"`
	}{c.Start, c.End, c.Text}
	return json.Marshal(out)
}

func decodeSeconds(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &v
		}
		v, err := parseClockSeconds(s)
		if err != nil {
			return nil
		}
		return &v
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return nil
	}
	return &v
}

// DecodeJSON reads a raw transcript from JSON. Both a bare array of cues and
// an object with a "segments" array (Whisper verbose_json) are accepted.
func DecodeJSON(r io.Reader) ([]RawCue, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	switch data[0] {
	case '[':
		var cues []RawCue
		if err := json.Unmarshal(data, &cues); err != nil {
			return nil, fmt.Errorf("decode transcript: %w", err)
		}
		return cues, nil
	case '{':
		var doc struct {
			Segments []RawCue `json:"segments"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode transcript: %w", err)
		}
		return doc.Segments, nil
	default:
		return nil, fmt.Errorf("decode transcript: unexpected leading byte %q", data[0])
	}
}

// ReadFile loads a raw transcript, choosing the decoder by extension:
// .vtt and .srt are parsed as captions, anything else as JSON.
func ReadFile(path string) ([]RawCue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".vtt", ".srt":
		return ParseCaptions(f)
	default:
		return DecodeJSON(f)
	}
}
