package segment

import (
	"testing"
	"time"
)

func TestParseResponse(t *testing.T) {
	text := `Sure! {"chapters": [
		{"timestamp": "00:00:00", "title": "Introduction"},
		{"timestamp": "01:35", "title": "Topic: A & B!"},
		{"timestamp": 125.5, "title": "Numbers"},
		{"timestamp": "240", "title": "Seconds as text"},
		{"timestamp": "soon", "title": "Unreadable"},
		{"title": "Missing"}
	]} Let me know if you need more.`

	got, err := ParseResponse(text, 4)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	want := []struct {
		at    time.Duration
		title string
	}{
		{0, "Introduction"},
		{95 * time.Second, "Topic A B"},
		{125*time.Second + 500*time.Millisecond, "Numbers"},
		{240 * time.Second, "Seconds as text"},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].At != w.at || got[i].Title != w.title {
			t.Errorf("got[%d] = %+v, want {%v %q}", i, got[i], w.at, w.title)
		}
	}
}

func TestParseResponseFailures(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"prose only", "I could not find any chapters."},
		{"broken json", `{"chapters": [{"timestamp": "00:00:00"`},
		{"no chapters key", `{"sections": []}`},
		{"nothing usable", `{"chapters": [{"timestamp": "later", "title": "x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseResponse(tt.text, 4); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		in       string
		maxWords int
		want     string
	}{
		{"Introduction", 4, "Introduction"},
		{"  Cardiac   Physiology\n", 4, "Cardiac Physiology"},
		{"Renal: Acid/Base (Part 2)", 4, "Renal Acid Base Part"},
		{"Don't panic - it's fine", 4, "Don't panic - it's"},
		{"one two three four five six", 0, "one two three four five six"},
		{"Café résumé", 4, "Café résumé"},
		{"!!!", 4, ""},
	}
	for _, tt := range tests {
		if got := SanitizeTitle(tt.in, tt.maxWords); got != tt.want {
			t.Errorf("SanitizeTitle(%q, %d) = %q, want %q", tt.in, tt.maxWords, got, tt.want)
		}
	}
}
