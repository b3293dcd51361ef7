package standardize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmylchreest/gradfetch/pkg/llm"
)

// ErrNoJSON is returned when a model reply carries no JSON object.
var ErrNoJSON = errors.New("no JSON object in reply")

const systemPrompt = `You are a data standardizer. Given program and university names from a graduate admissions database, output standardized names.

Respond ONLY with valid JSON, no other text. Use these exact keys:
- "program": standardized program name
- "university": standardized university name`

// LLMStandardizer asks a chat model for canonical names.
type LLMStandardizer struct {
	provider llm.Provider
}

// NewLLMStandardizer wraps a provider.
func NewLLMStandardizer(p llm.Provider) *LLMStandardizer {
	return &LLMStandardizer{provider: p}
}

// Standardize sends one prompt per pair. An empty field in the reply falls
// back to the input.
func (s *LLMStandardizer) Standardize(ctx context.Context, program, university string) (Names, error) {
	resp, err := s.provider.Execute(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: fmt.Sprintf("Input:\n- Program: %s\n- University: %s\n\nJSON output:", program, university)},
		},
		MaxTokens:   200,
		Temperature: 0.1,
		JSON:        true,
	})
	if err != nil {
		return Names{}, err
	}

	names, err := parseNames(resp.Content)
	if err != nil {
		return Names{}, err
	}
	if names.Program == "" {
		names.Program = program
	}
	if names.University == "" {
		names.University = university
	}
	return names, nil
}

// Name returns the standardizer identifier.
func (s *LLMStandardizer) Name() string {
	return "llm:" + s.provider.Name()
}

// parseNames decodes the first JSON object in reply. A reply cut off before
// its closing brace is closed.
func parseNames(reply string) (Names, error) {
	start := strings.IndexByte(reply, '{')
	if start < 0 {
		return Names{}, ErrNoJSON
	}
	body := reply[start:]
	if !strings.Contains(body, "}") {
		body += "}"
	}

	var names Names
	if err := json.NewDecoder(strings.NewReader(body)).Decode(&names); err != nil {
		return Names{}, fmt.Errorf("decode reply: %w", err)
	}
	names.Program = strings.TrimSpace(names.Program)
	names.University = strings.TrimSpace(names.University)
	return names, nil
}
