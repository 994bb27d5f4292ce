package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"
)

const deepInfraBaseURL = "https://api.deepinfra.com/v1/inference/"

// DeepInfraClient calls DeepInfra's native inference API for Whisper models.
// Implements the Provider interface.
type DeepInfraClient struct {
	apiKey  string
	model   string // e.g. "openai/whisper-large-v3-turbo"
	baseURL string
	client  *http.Client
}

// deepInfraResponse is the JSON response from the DeepInfra inference API.
// DeepInfra uses "text" for the word field, not "word" like OpenAI.
type deepInfraResponse struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Segments []segJSON `json:"segments"`
	Words    []segJSON `json:"words"`
}

// NewDeepInfraClient creates a new DeepInfra inference client.
func NewDeepInfraClient(apiKey, model string, timeout time.Duration) *DeepInfraClient {
	if model == "" {
		model = "openai/whisper-large-v3-turbo"
	}
	return &DeepInfraClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: deepInfraBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (di *DeepInfraClient) Name() string  { return "deepinfra" }
func (di *DeepInfraClient) Model() string { return di.model }

// Transcribe posts the audio to {baseURL}{model}. The form field is "audio",
// not "file".
func (di *DeepInfraClient) Transcribe(ctx context.Context, audioPath string, opts TranscribeOpts) (*Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := attachAudio(w, "audio", audioPath); err != nil {
		return nil, err
	}
	if opts.Language != "" {
		w.WriteField("language", opts.Language)
	}
	if opts.Prompt != "" {
		w.WriteField("initial_prompt", opts.Prompt)
	}
	w.Close()

	body, err := postForm(ctx, di.client, di.baseURL+di.model, w.FormDataContentType(), &buf,
		map[string]string{"Authorization": "Bearer " + di.apiKey})
	if err != nil {
		return nil, fmt.Errorf("deepinfra: %w", err)
	}

	var result deepInfraResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	resp := &Response{
		Text:     result.Text,
		Language: result.Language,
		Duration: result.Duration,
		Segments: toSegments(result.Segments),
	}
	for _, dw := range result.Words {
		resp.Words = append(resp.Words, Word{Word: dw.Text, Start: dw.Start, End: dw.End})
	}
	return resp, nil
}
