// Package llm provides a unified interface for the chat-completion
// providers used by the name standardizer.
package llm

import (
	"context"
	"errors"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ErrAPIKeyRequired is returned when a hosted provider is built without a key.
var ErrAPIKeyRequired = errors.New("API key required")

// Message represents a chat message.
type Message struct {
	Role    Role
	Content string
}

// Request represents a completion request to the LLM.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64

	// JSON asks the provider to constrain the reply to a JSON object.
	JSON bool
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response represents the result of an LLM execution.
type Response struct {
	Content      string
	FinishReason string
	Usage        Usage
	Model        string
	Duration     time.Duration
}

// Provider is the interface all LLM backends implement.
type Provider interface {
	// Execute sends a completion request and returns the response.
	Execute(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider identifier (e.g., "ollama", "anthropic").
	Name() string

	// Model returns the configured model name.
	Model() string
}

// ProviderConfig holds common configuration for providers.
type ProviderConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

// DefaultProviderConfig returns sensible defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		MaxRetries: 3,
		Timeout:    60 * time.Second,
	}
}

// defaultMaxTokens bounds replies when a request sets no limit. A program
// and university pair never needs more.
const defaultMaxTokens = 256

func maxTokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}
