package mqttclient

import (
	"encoding/json"
	"time"

	"github.com/snarg/chaptr/internal/chapters"
)

// RunEvent announces a completed chapter run.
type RunEvent struct {
	Title          string       `json:"title"`
	Source         string       `json:"source"`
	FallbackReason string       `json:"fallback_reason,omitempty"`
	DurationSec    int64        `json:"duration_seconds"`
	Chapters       chapters.Set `json:"chapters"`
	TextKey        string       `json:"text_key,omitempty"`
	StoreType      string       `json:"store,omitempty"`
	CompletedAt    time.Time    `json:"completed_at"`
}

func (e RunEvent) Marshal() ([]byte, error) {
	if e.Chapters == nil {
		e.Chapters = chapters.Set{}
	}
	return json.Marshal(e)
}
