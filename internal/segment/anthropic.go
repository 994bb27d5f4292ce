package segment

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider calls the Anthropic Messages API.
type AnthropicProvider struct {
	client      anthropic.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewAnthropicProvider creates a Messages API client.
func NewAnthropicProvider(opts ProviderOptions) *AnthropicProvider {
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &AnthropicProvider{
		client:      anthropic.NewClient(reqOpts...),
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
	}
}

func (p *AnthropicProvider) Name() string  { return "anthropic" }
func (p *AnthropicProvider) Model() string { return p.model }

// Summarize sends the prompt as a single user turn and concatenates the
// text blocks of the reply. The Messages API has no JSON mode; the prompt
// itself asks for JSON.
func (p *AnthropicProvider) Summarize(ctx context.Context, req Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   int64(p.maxTokens),
		Temperature: anthropic.Float(p.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("anthropic messages: no text content returned")
	}
	return b.String(), nil
}
