package factory

import (
	"fmt"

	"portfolio-assistant-be/pkg/llm"
	"portfolio-assistant-be/pkg/llm/gemini"
	"portfolio-assistant-be/pkg/llm/ollama"
)

// NewLLMProvider selects the provider implementation based on config.
func NewLLMProvider(providerType, model, ollamaBaseURL, geminiApiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		return ollama.NewOllamaProvider(ollamaBaseURL, model), nil
	case "gemini":
		return gemini.NewGeminiProvider(geminiApiKey, model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", providerType)
	}
}
