package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// OllamaProvider communicates with a local Ollama instance.
type OllamaProvider struct {
	model  string
	client *resty.Client
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(cfg ProviderConfig) (*OllamaProvider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	model := cfg.Model
	if model == "" {
		model = GetDefaultModel("ollama")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(cfg.MaxRetries)

	return &OllamaProvider{
		model:  model,
		client: client,
	}, nil
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Format   string          `json:"format,omitempty"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	DoneReason      string        `json:"done_reason"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

// Execute sends a completion request to Ollama's /api/chat endpoint.
func (p *OllamaProvider) Execute(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	messages := make([]ollamaMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, ollamaMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	body := ollamaRequest{
		Model:    p.model,
		Messages: messages,
		Options: ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  maxTokens(req),
		},
	}
	if req.JSON {
		body.Format = "json"
	}

	var out ollamaResponse
	res, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/api/chat")
	if err != nil {
		return nil, fmt.Errorf("Ollama request failed: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("Ollama returned status %d: %s", res.StatusCode(), res.String())
	}

	finish := out.DoneReason
	if finish == "" {
		finish = "stop"
	}

	return &Response{
		Content:      out.Message.Content,
		FinishReason: finish,
		Usage: Usage{
			InputTokens:  out.PromptEvalCount,
			OutputTokens: out.EvalCount,
		},
		Model:    out.Model,
		Duration: time.Since(start),
	}, nil
}

// Name returns the provider identifier.
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Model returns the configured model name.
func (p *OllamaProvider) Model() string {
	return p.model
}

var _ Provider = (*OllamaProvider)(nil)
