package segment

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider calls an OpenAI-compatible chat completions endpoint.
// Setting BaseURL points it at self-hosted servers such as LocalAI.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAIProvider creates a chat completions client.
func NewOpenAIProvider(opts ProviderOptions) *OpenAIProvider {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: float32(opts.Temperature),
		maxTokens:   opts.MaxTokens,
	}
}

func (p *OpenAIProvider) Name() string  { return "openai" }
func (p *OpenAIProvider) Model() string { return p.model }

// Summarize sends one system+user exchange and returns the first choice.
func (p *OpenAIProvider) Summarize(ctx context.Context, req Request) (string, error) {
	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	creq := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    msgs,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	}
	if req.JSON {
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := p.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
