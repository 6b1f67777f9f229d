package llm

import (
	"github.com/scrypster/recall/internal/config"
)

// NewManagerFromConfig builds the provider failover chain from configuration.
// Providers are tried in priority order Gemini → OpenAI → Anthropic; any
// provider without a configured key reports itself unavailable and is
// skipped at call time.
func NewManagerFromConfig(cfg config.LLMConfig) *Manager {
	return NewManager(
		NewGeminiProvider(GeminiConfig{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel}),
		NewOpenAIProvider(OpenAIConfig{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel}),
		NewAnthropicProvider(AnthropicConfig{APIKey: cfg.AnthropicAPIKey, Model: cfg.AnthropicModel}),
	)
}
