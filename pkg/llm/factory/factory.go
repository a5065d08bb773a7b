package factory

import (
	"fmt"

	"ai-thumbnail-be/pkg/llm"
	"ai-thumbnail-be/pkg/llm/gemini"
	"ai-thumbnail-be/pkg/llm/ollama"
)

type ProviderConfig struct {
	Provider string // "ollama", "gemini" or "none"
	Model    string
	BaseURL  string
	APIKey   string
}

// NewLLMProvider returns nil, nil for "none" so callers fall back to heuristics.
func NewLLMProvider(cfg ProviderConfig) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model), nil
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return gemini.NewGeminiProvider(cfg.APIKey, cfg.Model), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
