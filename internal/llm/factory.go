package llm

import (
	"fmt"
	"time"
)

// Config selects and configures an LLM provider.
type Config struct {
	Provider string // "ollama" (default), "openai", "anthropic", or "none"
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// NewTextGenerator creates the appropriate TextGenerator for the config,
// wrapped in a shared rate limiter. Provider "none" returns (nil, nil):
// the pipeline treats a nil generator as "LLM disabled" and uses its
// deterministic fallbacks everywhere.
func NewTextGenerator(cfg Config) (TextGenerator, error) {
	var gen TextGenerator
	switch cfg.Provider {
	case "none", "disabled":
		return nil, nil
	case "openai":
		gen = NewOpenAIClient(OpenAIConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL, Timeout: cfg.Timeout})
	case "anthropic":
		gen = NewAnthropicClient(AnthropicConfig{APIKey: cfg.APIKey, Model: cfg.Model, Timeout: cfg.Timeout})
	case "ollama", "":
		gen = NewOllamaClient(OllamaConfig{BaseURL: cfg.BaseURL, Model: cfg.Model, Timeout: cfg.Timeout})
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
	return NewRateLimited(gen, 2, 4), nil
}
