package llm

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

// ProviderFactory creates providers from config.
type ProviderFactory func(cfg ProviderConfig) (Provider, error)

// DefaultModels maps provider names to their default models.
var DefaultModels = map[string]string{
	"anthropic": "claude-3-5-haiku-latest",
	"openai":    "gpt-4o-mini",
	"ollama":    "llama3.2",
}

var registry = map[string]ProviderFactory{}

func init() {
	RegisterProvider("anthropic", func(cfg ProviderConfig) (Provider, error) {
		return NewAnthropicProvider(cfg)
	})
	RegisterProvider("openai", func(cfg ProviderConfig) (Provider, error) {
		return NewOpenAIProvider(cfg)
	})
	RegisterProvider("ollama", func(cfg ProviderConfig) (Provider, error) {
		return NewOllamaProvider(cfg)
	})
}

// NewProvider creates a provider by name.
func NewProvider(name string, cfg ProviderConfig) (Provider, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s (available: %s)", name, strings.Join(AvailableProviders(), ", "))
	}
	return factory(cfg)
}

// RegisterProvider adds a custom provider factory.
func RegisterProvider(name string, factory ProviderFactory) {
	registry[name] = factory
}

// AvailableProviders returns the registered provider names, sorted.
func AvailableProviders() []string {
	providers := make([]string, 0, len(registry))
	for name := range registry {
		providers = append(providers, name)
	}
	slices.Sort(providers)
	return providers
}

// DetectProvider picks a provider from the API keys in the environment.
// Priority: ANTHROPIC_API_KEY > OPENAI_API_KEY > ollama (no key needed).
func DetectProvider() (provider string, apiKey string) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return "anthropic", key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return "openai", key
	}
	return "ollama", ""
}

// GetDefaultModel returns the default model for a provider.
func GetDefaultModel(provider string) string {
	return DefaultModels[provider]
}

// IsRegistered returns true if a provider is registered.
func IsRegistered(name string) bool {
	_, ok := registry[name]
	return ok
}

// providerEnvKeys maps provider names to their API key environment variables.
var providerEnvKeys = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
}

// APIKeyFromEnv returns the API key for provider, if one is set.
func APIKeyFromEnv(provider string) string {
	if envKey, ok := providerEnvKeys[provider]; ok {
		return os.Getenv(envKey)
	}
	return ""
}
