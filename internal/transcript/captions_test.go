package transcript

import (
	"strings"
	"testing"
)

func TestParseCaptions_VTT(t *testing.T) {
	in := `WEBVTT
Kind: captions
Language: en

NOTE this is a comment

1
00:00:00.000 --> 00:00:03.500 align:start position:0%
<c.colorE5E5E5>Welcome</c> to the <i>show</i>

2
00:03.500 --> 00:07.000
Today we talk about
enzymes
`
	cues, err := ParseCaptions(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseCaptions: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(cues), cues)
	}
	if cues[0].Text != "Welcome to the show" {
		t.Errorf("cue 0 text = %q", cues[0].Text)
	}
	if *cues[0].Start != 0 || *cues[0].End != 3.5 {
		t.Errorf("cue 0 times = %v-%v", *cues[0].Start, *cues[0].End)
	}
	if cues[1].Text != "Today we talk about enzymes" {
		t.Errorf("cue 1 text = %q", cues[1].Text)
	}
	if *cues[1].Start != 3.5 {
		t.Errorf("cue 1 start = %v, want 3.5", *cues[1].Start)
	}
}

func TestParseCaptions_RollingDuplicates(t *testing.T) {
	in := `WEBVTT

00:00:01.000 --> 00:00:03.000
first line

00:00:03.000 --> 00:00:03.010
first line

00:00:03.010 --> 00:00:05.000
first line
second line
`
	cues, err := ParseCaptions(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseCaptions: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(cues), cues)
	}
	if cues[1].Text != "second line" {
		t.Errorf("cue 1 text = %q, want %q", cues[1].Text, "second line")
	}
	if *cues[1].Start != 3.01 {
		t.Errorf("cue 1 start = %v, want 3.01", *cues[1].Start)
	}
}

func TestParseCaptions_SRT(t *testing.T) {
	in := "1\r\n00:00:01,000 --> 00:00:02,500\r\nHello there\r\n\r\n2\r\n00:01:00,250 --> 00:01:02,000\r\nGeneral Kenobi\r\n"
	cues, err := ParseCaptions(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseCaptions: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("len = %d, want 2", len(cues))
	}
	if *cues[1].Start != 60.25 || cues[1].Text != "General Kenobi" {
		t.Errorf("cue 1 = %v %q", *cues[1].Start, cues[1].Text)
	}
}
