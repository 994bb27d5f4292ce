package transcribe

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Provider is the interface for speech-to-text backends.
type Provider interface {
	Transcribe(ctx context.Context, audioPath string, opts TranscribeOpts) (*Response, error)
	Name() string  // "whisper", "deepinfra", "elevenlabs"
	Model() string // model identifier for DB/logs
}

// TranscribeOpts are per-request options. Zero values are omitted from the
// request so servers fall back to their own defaults.
type TranscribeOpts struct {
	Language    string
	Prompt      string // initial prompt / domain vocabulary
	Hotwords    string // comma-separated boost terms
	Temperature float64
}

// Response is the common transcription result from any provider.
type Response struct {
	Text     string
	Language string
	Duration float64   // audio duration in seconds
	Segments []Segment // nil if the provider only returns words
	Words    []Word    // nil if the provider doesn't support word timestamps
}

// Segment is a timestamped phrase from any STT provider.
type Segment struct {
	Text  string
	Start float64 // seconds
	End   float64 // seconds
}

// Word is a timestamped word from any STT provider.
type Word struct {
	Word  string
	Start float64 // seconds
	End   float64 // seconds
}

// ProviderOptions configures NewProvider.
type ProviderOptions struct {
	Kind     string // "whisper" (default), "deepinfra", "elevenlabs"
	URL      string // whisper endpoint, or base URL override for hosted APIs
	Model    string
	APIKey   string
	Keyterms string // elevenlabs only
	Timeout  time.Duration
}

// NewProvider builds the speech-to-text backend named by opts.Kind.
func NewProvider(opts ProviderOptions) (Provider, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	switch strings.ToLower(opts.Kind) {
	case "", "whisper":
		if opts.URL == "" {
			return nil, fmt.Errorf("whisper provider requires WHISPER_URL")
		}
		return NewWhisperClient(opts.URL, opts.Model, opts.Timeout), nil
	case "deepinfra":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("deepinfra provider requires DEEPINFRA_API_KEY")
		}
		c := NewDeepInfraClient(opts.APIKey, opts.Model, opts.Timeout)
		if opts.URL != "" {
			c.baseURL = strings.TrimRight(opts.URL, "/") + "/"
		}
		return c, nil
	case "elevenlabs":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("elevenlabs provider requires ELEVENLABS_API_KEY")
		}
		c := NewElevenLabsClient(opts.APIKey, opts.Model, opts.Keyterms, opts.Timeout)
		if opts.URL != "" {
			c.endpoint = opts.URL
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown STT provider %q (want whisper, deepinfra or elevenlabs)", opts.Kind)
	}
}
