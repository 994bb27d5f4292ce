package chapters

import (
	"testing"
	"time"
)

func TestFallbackEvenSpacing(t *testing.T) {
	got := Fallback(sec(140), 3, ModeGeneral)
	wantTimes := []time.Duration{0, sec(46), sec(93)}
	wantTitles := []string{"Introduction", "Chapter 2", "Chapter 3"}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := range got {
		if got[i].Time != wantTimes[i] || got[i].Title != wantTitles[i] {
			t.Errorf("chapter %d = %+v, want {%v %s}", i, got[i], wantTimes[i], wantTitles[i])
		}
	}
}

func TestFallbackTotality(t *testing.T) {
	durations := []time.Duration{sec(60), sec(61.9), sec(3599), 2 * time.Hour, 10*time.Hour + 7*time.Second}
	for _, d := range durations {
		for _, k := range []int{1, 2, 7, 10, 59, 60} {
			got := Fallback(d, k, ModeGeneral)
			if len(got) != k {
				t.Errorf("Fallback(%v, %d): len = %d", d, k, len(got))
				continue
			}
			for i, c := range got {
				want := time.Duration(int64(i)*int64(d)/int64(k)).Truncate(time.Second)
				if c.Time != want {
					t.Errorf("Fallback(%v, %d)[%d] = %v, want %v", d, k, i, c.Time, want)
				}
			}
			if err := got.Validate(); err != nil {
				t.Errorf("Fallback(%v, %d): %v", d, k, err)
			}
		}
	}
}

func TestFallbackUnknownDuration(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		got := Fallback(d, 5, ModeGeneral)
		if len(got) != 1 || got[0].Time != 0 {
			t.Errorf("Fallback(%v) = %+v, want single chapter at 0", d, got)
		}
	}
}

func TestFallbackShortDurationStaysMonotonic(t *testing.T) {
	got := Fallback(sec(3.5), 10, ModeGeneral)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if err := got.Validate(); err != nil {
		t.Error(err)
	}
}

func TestFallbackQATitles(t *testing.T) {
	got := Fallback(sec(600), 5, ModeQA)
	want := []string{"Introduction", "Question 1", "Question 2", "Question 3", "Closing Remarks"}
	for i, c := range got {
		if c.Title != want[i] {
			t.Errorf("title %d = %q, want %q", i, c.Title, want[i])
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeGeneral, false},
		{"general", ModeGeneral, false},
		{"QA", ModeQA, false},
		{"questions", ModeQA, false},
		{"interview", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}
