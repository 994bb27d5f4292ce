package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talk.wav")
	if err := os.WriteFile(path, []byte("RIFF....WAVE"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWhisperTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format = %q", got)
		}
		if got := r.MultipartForm.Value["timestamp_granularities[]"]; len(got) != 2 {
			t.Errorf("timestamp_granularities = %v", got)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file: %v", err)
		}
		w.Write([]byte(`{"text": "hello there. next topic", "language": "en", "duration": 12.5,
			"segments": [{"start": 0, "end": 4.2, "text": " hello there."}, {"start": 4.2, "end": 12.5, "text": " next topic"}]}`))
	}))
	defer srv.Close()

	p, err := NewProvider(ProviderOptions{Kind: "whisper", URL: srv.URL, Model: "whisper-1"})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	resp, err := p.Transcribe(context.Background(), writeAudio(t), TranscribeOpts{})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	cues := resp.Cues()
	if len(cues) != 2 || *cues[1].Start != 4.2 || *cues[1].End != 12.5 {
		t.Errorf("cues = %+v", cues)
	}
}

func TestDeepInfraTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/openai/whisper-large-v3-turbo") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer di-key" {
			t.Errorf("Authorization = %q", got)
		}
		if _, _, err := r.FormFile("audio"); err != nil {
			t.Errorf("missing audio field: %v", err)
		}
		w.Write([]byte(`{"text": "a b", "words": [{"text": "a", "start": 0, "end": 0.4}, {"text": "b.", "start": 0.5, "end": 0.9}]}`))
	}))
	defer srv.Close()

	p, err := NewProvider(ProviderOptions{Kind: "deepinfra", URL: srv.URL + "/v1/inference", APIKey: "di-key"})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	resp, err := p.Transcribe(context.Background(), writeAudio(t), TranscribeOpts{Language: "en"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	cues := resp.Cues()
	if len(cues) != 1 || cues[0].Text != "a b." {
		t.Errorf("cues = %+v", cues)
	}
}

func TestElevenLabsTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("xi-api-key"); got != "el-key" {
			t.Errorf("xi-api-key = %q", got)
		}
		r.ParseMultipartForm(1 << 20)
		if got := r.FormValue("keyterms"); got != `["chapter","segment"]` {
			t.Errorf("keyterms = %q", got)
		}
		w.Write([]byte(`{"language_code": "en", "text": "hi you", "words": [
			{"text": "hi", "type": "word", "start": 0.1, "end": 0.3},
			{"text": " ", "type": "spacing", "start": 0.3, "end": 0.4},
			{"text": "you", "type": "word", "start": 0.4, "end": 0.7}]}`))
	}))
	defer srv.Close()

	p, err := NewProvider(ProviderOptions{Kind: "elevenlabs", URL: srv.URL, APIKey: "el-key", Keyterms: "chapter"})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	resp, err := p.Transcribe(context.Background(), writeAudio(t), TranscribeOpts{Hotwords: "segment"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(resp.Words) != 2 || resp.Duration != 0.7 {
		t.Errorf("response = %+v", resp)
	}
}

func TestTranscribeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewWhisperClient(srv.URL, "m", time.Second)
	_, err := c.Transcribe(context.Background(), writeAudio(t), TranscribeOpts{})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Errorf("err = %v, want status 503", err)
	}
}

func TestNewProviderValidation(t *testing.T) {
	tests := []ProviderOptions{
		{Kind: "whisper"},
		{Kind: "deepinfra"},
		{Kind: "elevenlabs"},
		{Kind: "dragon", URL: "http://x"},
	}
	for _, opts := range tests {
		if _, err := NewProvider(opts); err == nil {
			t.Errorf("NewProvider(%+v) should fail", opts)
		}
	}
}

func TestCuesGroupsWords(t *testing.T) {
	resp := &Response{Words: []Word{
		{Word: "Welcome", Start: 0, End: 0.4},
		{Word: "everyone.", Start: 0.5, End: 1.0},
		{Word: "Today", Start: 1.1, End: 1.4},
		{Word: "we", Start: 1.5, End: 1.6},
		{Word: "start", Start: 4.0, End: 4.3}, // long pause before
		{Word: "now", Start: 4.4, End: 4.6},
	}}
	cues := resp.Cues()
	want := []struct {
		start, end float64
		text       string
	}{
		{0, 1.0, "Welcome everyone."},
		{1.1, 1.6, "Today we"},
		{4.0, 4.6, "start now"},
	}
	if len(cues) != len(want) {
		t.Fatalf("got %d cues, want %d: %+v", len(cues), len(want), cues)
	}
	for i, w := range want {
		if *cues[i].Start != w.start || *cues[i].End != w.end || cues[i].Text != w.text {
			t.Errorf("cue %d = {%v %v %q}, want %+v", i, *cues[i].Start, *cues[i].End, cues[i].Text, w)
		}
	}
}

func TestCuesTextOnly(t *testing.T) {
	cues := (&Response{Text: " just text ", Duration: 30}).Cues()
	if len(cues) != 1 || *cues[0].End != 30 {
		t.Errorf("cues = %+v", cues)
	}
	if (&Response{}).Cues() != nil {
		t.Error("empty response should produce no cues")
	}
}
