package mqttclient

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/snarg/chaptr/internal/chapters"
)

func TestTopic(t *testing.T) {
	tests := []struct {
		prefix, leaf, want string
	}{
		{"chaptr", "chapters", "chaptr/chapters"},
		{"/home/media/", "chapters", "home/media/chapters"},
		{"", "chapters", "chapters"},
	}
	for _, tt := range tests {
		if got := Topic(tt.prefix, tt.leaf); got != tt.want {
			t.Errorf("Topic(%q, %q) = %q, want %q", tt.prefix, tt.leaf, got, tt.want)
		}
	}
}

func TestRunEventMarshal(t *testing.T) {
	ev := RunEvent{
		Title:       "Intro to Go",
		Source:      "engine",
		DurationSec: 600,
		Chapters: chapters.Set{
			{Time: 0, Title: "Introduction"},
			{Time: 95 * time.Second, Title: "Goroutines"},
		},
		TextKey:     "Intro_to_Go.txt",
		CompletedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := ev.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["title"] != "Intro to Go" || got["source"] != "engine" {
		t.Errorf("unexpected fields: %v", got)
	}
	if _, ok := got["fallback_reason"]; ok {
		t.Error("empty fallback_reason should be omitted")
	}
	chs, ok := got["chapters"].([]any)
	if !ok || len(chs) != 2 {
		t.Fatalf("chapters = %v", got["chapters"])
	}
	second := chs[1].(map[string]any)
	if second["timestamp"] != "00:01:35" || second["title"] != "Goroutines" {
		t.Errorf("chapter[1] = %v", second)
	}
}

func TestRunEventMarshalEmptyChapters(t *testing.T) {
	data, err := RunEvent{Source: "fallback"}.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got struct {
		Chapters []any `json:"chapters"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Chapters == nil {
		t.Error("chapters should encode as [] not null")
	}
}
