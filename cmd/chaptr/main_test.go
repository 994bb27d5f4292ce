package main

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/snarg/chaptr/internal/config"
)

func TestResolveKey(t *testing.T) {
	keys := []string{"Intro_to_Go.txt", "Rust_Talk.txt"}
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"1", "Intro_to_Go.txt", false},
		{"2", "Rust_Talk.txt", false},
		{"3", "", true},
		{"0", "", true},
		{"Rust_Talk.txt", "Rust_Talk.txt", false},
		{"Intro to Go", "Intro_to_Go.txt", false},
		{"Missing", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveKey(keys, tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("resolveKey(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestFilterKeys(t *testing.T) {
	keys := []string{"a.json", "a.txt", "b.txt", "notes.md"}
	if got := filterKeys(keys, false); len(got) != 2 {
		t.Errorf("text only = %v", got)
	}
	if got := filterKeys(keys, true); len(got) != 3 {
		t.Errorf("all = %v", got)
	}
}

func TestChapterCount(t *testing.T) {
	if n := chapterCount(json.RawMessage(`[{"title":"a"},{"title":"b"}]`)); n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
	if n := chapterCount(json.RawMessage(`null`)); n != 0 {
		t.Errorf("null count = %d, want 0", n)
	}
}

func TestNewLoggerLevel(t *testing.T) {
	if l := newLogger("debug", "json"); l.GetLevel() != zerolog.DebugLevel {
		t.Errorf("level = %v, want debug", l.GetLevel())
	}
	if l := newLogger("bogus", "console"); l.GetLevel() != zerolog.InfoLevel {
		t.Errorf("level = %v, want info fallback", l.GetLevel())
	}
}

func TestNewTranscriberSelectsProvider(t *testing.T) {
	tests := []struct {
		cfg  config.STTConfig
		name string
	}{
		{config.STTConfig{Provider: "whisper", WhisperURL: "http://whisper:8000/v1/audio/transcriptions"}, "whisper"},
		{config.STTConfig{Provider: "deepinfra", DeepInfraAPIKey: "k", DeepInfraModel: "m"}, "deepinfra"},
		{config.STTConfig{Provider: "elevenlabs", ElevenLabsAPIKey: "k", ElevenLabsModel: "scribe_v1"}, "elevenlabs"},
	}
	for _, tt := range tests {
		p, err := newTranscriber(tt.cfg)
		if err != nil {
			t.Fatalf("newTranscriber(%s): %v", tt.name, err)
		}
		if p.Name() != tt.name {
			t.Errorf("Name = %q, want %q", p.Name(), tt.name)
		}
	}
	if _, err := newTranscriber(config.STTConfig{Provider: "whisper"}); err == nil {
		t.Error("whisper without URL should fail")
	}
}
