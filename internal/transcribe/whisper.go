package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// WhisperClient calls an OpenAI-compatible /v1/audio/transcriptions endpoint.
// Implements the Provider interface.
type WhisperClient struct {
	url     string
	model   string
	timeout time.Duration
	client  *http.Client
}

// whisperResponse is the verbose_json response shape.
type whisperResponse struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Segments []segJSON `json:"segments"`
	Words    []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
}

type segJSON struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// NewWhisperClient creates a new Whisper HTTP client.
func NewWhisperClient(url, model string, timeout time.Duration) *WhisperClient {
	return &WhisperClient{
		url:     url,
		model:   model,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

func (wc *WhisperClient) Name() string  { return "whisper" }
func (wc *WhisperClient) Model() string { return wc.model }

// Transcribe uploads an audio file and asks for segment and word timestamps.
// Works with speaches, faster-whisper-server, LocalAI, or the OpenAI API.
func (wc *WhisperClient) Transcribe(ctx context.Context, audioPath string, opts TranscribeOpts) (*Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := attachAudio(w, "file", audioPath); err != nil {
		return nil, err
	}

	if wc.model != "" {
		w.WriteField("model", wc.model)
	}
	lang := opts.Language
	if lang == "" {
		lang = "en"
	}
	w.WriteField("language", lang)
	w.WriteField("temperature", fmt.Sprintf("%.2f", opts.Temperature))
	w.WriteField("response_format", "verbose_json")
	w.WriteField("timestamp_granularities[]", "segment")
	w.WriteField("timestamp_granularities[]", "word")
	if opts.Prompt != "" {
		w.WriteField("prompt", opts.Prompt)
	}
	if opts.Hotwords != "" {
		w.WriteField("hotwords", opts.Hotwords)
	}
	w.Close()

	body, err := postForm(ctx, wc.client, wc.url, w.FormDataContentType(), &buf, nil)
	if err != nil {
		return nil, fmt.Errorf("whisper: %w", err)
	}

	var result whisperResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	resp := &Response{
		Text:     result.Text,
		Language: result.Language,
		Duration: result.Duration,
		Segments: toSegments(result.Segments),
	}
	for _, ww := range result.Words {
		resp.Words = append(resp.Words, Word{Word: ww.Word, Start: ww.Start, End: ww.End})
	}
	return resp, nil
}

func toSegments(in []segJSON) []Segment {
	if len(in) == 0 {
		return nil
	}
	out := make([]Segment, len(in))
	for i, s := range in {
		out[i] = Segment{Text: s.Text, Start: s.Start, End: s.End}
	}
	return out
}

// attachAudio copies the file at path into a multipart form field.
func attachAudio(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copy audio data: %w", err)
	}
	return nil
}

// postForm sends a multipart body and returns the response body of a 200 reply.
func postForm(ctx context.Context, client *http.Client, url, contentType string, body io.Reader, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(data))
	}
	return data, nil
}
