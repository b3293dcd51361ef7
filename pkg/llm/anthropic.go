package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements Provider for the Anthropic Messages API.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(cfg ProviderConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrAPIKeyRequired)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	model := cfg.Model
	if model == "" {
		model = GetDefaultModel("anthropic")
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

// Execute sends a completion request to Anthropic.
//
// The Messages API has no JSON mode; a JSON request prefills the assistant
// turn with "{" and the brace is restored on the returned content.
func (p *AnthropicProvider) Execute(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	messages := make([]anthropic.MessageParam, 0, len(req.Messages)+1)
	var system []anthropic.TextBlockParam

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	if req.JSON {
		messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock("{")))
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   int64(maxTokens(req)),
		Messages:    messages,
		System:      system,
		Temperature: anthropic.Float(req.Temperature),
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	var content strings.Builder
	if req.JSON {
		content.WriteString("{")
	}
	for _, block := range resp.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			content.WriteString(b.Text)
		}
	}

	return &Response{
		Content:      content.String(),
		FinishReason: string(resp.StopReason),
		Usage: Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
		Model:    string(resp.Model),
		Duration: time.Since(start),
	}, nil
}

// Name returns the provider identifier.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Model returns the configured model name.
func (p *AnthropicProvider) Model() string {
	return p.model
}

var _ Provider = (*AnthropicProvider)(nil)
