package segment

import (
	"context"
	"fmt"
	"strings"
)

// Provider is the interface for content-understanding backends that read a
// transcript and answer with structured text.
type Provider interface {
	Summarize(ctx context.Context, req Request) (string, error)
	Name() string  // "openai", "anthropic"
	Model() string // model identifier for DB/logs
}

// Request is a single prompt sent to a Provider.
type Request struct {
	System string
	Prompt string
	// JSON asks the backend to constrain its answer to a JSON object where
	// the backend supports it.
	JSON bool
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, req Request) (string, error)

func (f ProviderFunc) Summarize(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

func (f ProviderFunc) Name() string  { return "func" }
func (f ProviderFunc) Model() string { return "func" }

// ProviderOptions configures NewProvider.
type ProviderOptions struct {
	Kind        string // "openai" (default) or "anthropic"
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// NewProvider builds the backend named by opts.Kind.
func NewProvider(opts ProviderOptions) (Provider, error) {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 2000
	}
	switch strings.ToLower(opts.Kind) {
	case "", "openai":
		return NewOpenAIProvider(opts), nil
	case "anthropic":
		return NewAnthropicProvider(opts), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (want openai or anthropic)", opts.Kind)
	}
}
