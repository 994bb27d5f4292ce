package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const elevenLabsSTTEndpoint = "https://api.elevenlabs.io/v1/speech-to-text"

// ElevenLabsClient calls the ElevenLabs Speech-to-Text API, which returns
// word timings only. Implements the Provider interface.
type ElevenLabsClient struct {
	apiKey   string
	model    string // "scribe_v1" or "scribe_v2"
	keyterms string // comma-separated boost terms
	endpoint string
	client   *http.Client
}

type elevenlabsResponse struct {
	LanguageCode string `json:"language_code"`
	Text         string `json:"text"`
	Words        []struct {
		Text  string  `json:"text"`
		Type  string  `json:"type"` // "word", "spacing", "audio_event"
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
}

// NewElevenLabsClient creates a new ElevenLabs STT client.
func NewElevenLabsClient(apiKey, model, keyterms string, timeout time.Duration) *ElevenLabsClient {
	if model == "" {
		model = "scribe_v1"
	}
	return &ElevenLabsClient{
		apiKey:   apiKey,
		model:    model,
		keyterms: keyterms,
		endpoint: elevenLabsSTTEndpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (el *ElevenLabsClient) Name() string  { return "elevenlabs" }
func (el *ElevenLabsClient) Model() string { return el.model }

// Transcribe uploads the audio and keeps only "word" entries of the reply.
func (el *ElevenLabsClient) Transcribe(ctx context.Context, audioPath string, opts TranscribeOpts) (*Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := attachAudio(w, "file", audioPath); err != nil {
		return nil, err
	}
	w.WriteField("model_id", el.model)
	lang := opts.Language
	if lang == "" {
		lang = "en"
	}
	w.WriteField("language_code", lang)
	w.WriteField("timestamps_granularity", "word")
	if kt := buildKeyterms(el.keyterms, opts.Hotwords); kt != "" {
		w.WriteField("keyterms", kt)
	}
	w.Close()

	body, err := postForm(ctx, el.client, el.endpoint, w.FormDataContentType(), &buf,
		map[string]string{"xi-api-key": el.apiKey})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: %w", err)
	}

	var result elevenlabsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	resp := &Response{Text: result.Text, Language: result.LanguageCode}
	for _, ew := range result.Words {
		if ew.Type != "word" {
			continue
		}
		resp.Words = append(resp.Words, Word{Word: ew.Text, Start: ew.Start, End: ew.End})
		resp.Duration = max(resp.Duration, ew.End)
	}
	return resp, nil
}

// buildKeyterms merges comma-separated term lists into the JSON array form
// the API expects.
func buildKeyterms(lists ...string) string {
	var terms []string
	for _, l := range lists {
		for _, t := range strings.Split(l, ",") {
			if t = strings.TrimSpace(t); t != "" {
				terms = append(terms, t)
			}
		}
	}
	if len(terms) == 0 {
		return ""
	}
	b, _ := json.Marshal(terms)
	return string(b)
}
