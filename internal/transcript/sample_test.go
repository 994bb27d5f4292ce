package transcript

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func makeTranscript(n int, text string) Transcript {
	segs := make([]Segment, n)
	for i := range segs {
		segs[i] = Segment{
			Start: time.Duration(i) * 10 * time.Second,
			End:   time.Duration(i+1) * 10 * time.Second,
			Text:  fmt.Sprintf("%s %d", text, i),
		}
	}
	return Transcript{Segments: segs}
}

func TestSample_FitsUnchanged(t *testing.T) {
	tr := makeTranscript(5, "hello")
	out, err := Sample(tr, tr.Size())
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if out.Serialize() != tr.Serialize() {
		t.Error("transcript within budget was modified")
	}
	out.Segments[0].Text = "mutated"
	if tr.Segments[0].Text == "mutated" {
		t.Error("Sample output aliases its input")
	}
}

func TestSample_ReducesWithinBudget(t *testing.T) {
	tr := makeTranscript(200, "the quick brown fox")
	budget := tr.Size() / 5

	out, err := Sample(tr, budget)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if out.Size() > budget {
		t.Errorf("size %d exceeds budget %d", out.Size(), budget)
	}
	if out.Segments[0] != tr.Segments[0] {
		t.Error("first segment not preserved")
	}
	if out.Segments[out.Len()-1] != tr.Segments[tr.Len()-1] {
		t.Error("last segment not preserved")
	}
	if out.Len() < 3 {
		t.Errorf("expected interior coverage, got %d segments", out.Len())
	}

	// Every kept segment is an original one with unmodified times, in order.
	j := 0
	for _, s := range out.Segments {
		for j < tr.Len() && tr.Segments[j] != s {
			j++
		}
		if j == tr.Len() {
			t.Fatalf("segment %+v not found in order in source", s)
		}
	}
}

func TestSample_Deterministic(t *testing.T) {
	tr := makeTranscript(137, "segment text of moderate length")
	budget := tr.Size() / 3

	first, err := Sample(tr, budget)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Sample(tr, budget)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		if again.Serialize() != first.Serialize() {
			t.Fatal("Sample output differs between runs")
		}
	}
}

func TestSample_BudgetExceeded(t *testing.T) {
	giant := strings.Repeat("word ", 1000)
	tests := []struct {
		name string
		tr   Transcript
	}{
		{"single_giant", Transcript{Segments: []Segment{{Text: giant}}}},
		{"two_segments", Transcript{Segments: []Segment{{Text: giant}, {Start: time.Second, Text: "x"}}}},
		{"ends_too_big", Transcript{Segments: []Segment{
			{Text: giant},
			{Start: time.Second, Text: "a"},
			{Start: 2 * time.Second, Text: giant},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sample(tt.tr, 100)
			if !errors.Is(err, ErrBudgetExceeded) {
				t.Errorf("err = %v, want ErrBudgetExceeded", err)
			}
		})
	}
}

func TestSample_MinimalTwoSegments(t *testing.T) {
	tr := makeTranscript(50, "x")
	budget := LineSize(tr.Segments[0]) + LineSize(tr.Segments[49])
	out, err := Sample(tr, budget)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if out.Len() != 2 {
		t.Errorf("len = %d, want 2", out.Len())
	}
}

func TestLine(t *testing.T) {
	s := Segment{Start: 95 * time.Second, Text: "topic B"}
	if got := Line(s); got != "[00:01:35] topic B\n" {
		t.Errorf("Line = %q", got)
	}
	if LineSize(Segment{Text: "é"}) != len("[00:00:00] x\n") {
		t.Error("LineSize should count runes, not bytes")
	}
}
